// Package containment decides which branches contain which commits.
//
// Every (commit, branch) answer is memoized for the run, keyed by the branch
// tip so refs pointing at the same commit share entries. Before walking the
// graph the evaluator tries to derive the answer from entries it already has:
//
//	X ⊑ tip(A) and tip(A) ⊑ tip(B)   ⇒  X ⊑ tip(B)
//	X ⋢ tip(A) and tip(B) ⊑ tip(A)   ⇒  X ⋢ tip(B)
//
// The tip relations are ordinary cache entries, so they are learned from the
// run's own queries. Nothing is assumed about branch topology up front.
package containment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/masmgr/git-contains/internal/git"
)

// ProbeMode controls whether unknown tip relations are checked on demand.
type ProbeMode int

const (
	// ProbeAuto probes when a run has more commits than branches.
	ProbeAuto ProbeMode = iota
	ProbeAlways
	ProbeNever
)

// Options configures an Evaluator.
type Options struct {
	Workers          int // <= 0 uses runtime.NumCPU()
	DisableShortcuts bool
	Probe            ProbeMode
}

// Stats counts how answers were obtained.
type Stats struct {
	Direct    int // graph walks for (commit, branch) pairs
	Shortcuts int // answers derived from cached entries
	Probes    int // graph walks for tip-to-tip relations
}

type key struct {
	commit string
	tip    string
}

// Evaluator answers containment queries with a per-run cache.
// It is safe for concurrent use.
type Evaluator struct {
	source git.HistorySource
	opts   Options

	mu     sync.Mutex
	cache  map[key]bool
	failed map[string]error // by tip
	tips   []string
	probe  bool
	stats  Stats
}

// NewEvaluator creates an Evaluator over source.
func NewEvaluator(source git.HistorySource, opts Options) *Evaluator {
	return &Evaluator{
		source: source,
		opts:   opts,
		cache:  make(map[key]bool),
		failed: make(map[string]error),
		probe:  opts.Probe == ProbeAlways,
	}
}

// Stats returns a snapshot of the evaluator counters.
func (e *Evaluator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Contains reports whether branch contains commit.
// Errors wrapping git.ErrBranchUnresolvable concern only this branch.
func (e *Evaluator) Contains(ctx context.Context, commit string, branch git.BranchRef) (bool, error) {
	tip := branch.Tip
	if tip == "" {
		return false, &git.BranchError{Ref: branch.Name, Err: errors.New("branch has no resolved tip")}
	}
	e.addTips(tip)

	if v, ok, err := e.lookup(commit, tip); err != nil || ok {
		return v, err
	}

	if e.shouldProbe() {
		if ok, err := e.probeShortcut(ctx, commit, tip); err != nil || ok {
			return ok, err
		}
	}

	return e.direct(ctx, commit, tip)
}

// lookup answers from the cache, directly or through a tip relation.
func (e *Evaluator) lookup(commit, tip string) (value, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.failed[tip]; err != nil {
		return false, false, err
	}
	if v, hit := e.cache[key{commit, tip}]; hit {
		return v, true, nil
	}
	if commit == tip {
		e.cache[key{commit, tip}] = true
		return true, true, nil
	}
	if e.opts.DisableShortcuts {
		return false, false, nil
	}

	for _, other := range e.tips {
		if other == tip || e.failed[other] != nil {
			continue
		}
		inOther, hit := e.cache[key{commit, other}]
		if !hit {
			continue
		}
		if inOther {
			if e.cache[key{other, tip}] {
				e.cache[key{commit, tip}] = true
				e.stats.Shortcuts++
				return true, true, nil
			}
		} else if e.cache[key{tip, other}] {
			e.cache[key{commit, tip}] = false
			e.stats.Shortcuts++
			return false, true, nil
		}
	}
	return false, false, nil
}

func (e *Evaluator) shouldProbe() bool {
	if e.opts.DisableShortcuts || e.opts.Probe == ProbeNever {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probe
}

// probeShortcut learns tip(A) ⊑ tip for one branch A known to contain commit.
// A true relation answers the query; a false one leaves it to a direct check.
func (e *Evaluator) probeShortcut(ctx context.Context, commit, tip string) (bool, error) {
	e.mu.Lock()
	candidate := ""
	for _, other := range e.tips {
		if other == tip || e.failed[other] != nil {
			continue
		}
		if !e.cache[key{commit, other}] {
			continue
		}
		if _, known := e.cache[key{other, tip}]; known {
			continue
		}
		candidate = other
		break
	}
	e.mu.Unlock()

	if candidate == "" {
		return false, nil
	}

	related, err := e.walk(ctx, candidate, tip, &e.stats.Probes)
	if err != nil || !related {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key{commit, tip}] = true
	e.stats.Shortcuts++
	return true, nil
}

func (e *Evaluator) direct(ctx context.Context, commit, tip string) (bool, error) {
	return e.walk(ctx, commit, tip, &e.stats.Direct)
}

// walk asks the history source and records the answer; counter is guarded by mu.
func (e *Evaluator) walk(ctx context.Context, commit, tip string, counter *int) (bool, error) {
	v, err := e.source.IsAncestor(ctx, commit, tip)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		if errors.Is(err, git.ErrBranchUnresolvable) {
			if e.failed[tip] == nil {
				e.failed[tip] = err
			}
		}
		return false, err
	}
	e.cache[key{commit, tip}] = v
	*counter++
	return v, nil
}

func (e *Evaluator) addTips(tips ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tip := range tips {
		known := false
		for _, t := range e.tips {
			if t == tip {
				known = true
				break
			}
		}
		if !known && tip != "" {
			e.tips = append(e.tips, tip)
		}
	}
}

// BranchFailure records a branch dropped from the result.
type BranchFailure struct {
	Branch git.BranchRef
	Err    error
}

func (f BranchFailure) Error() string {
	return fmt.Sprintf("branch %s dropped: %v", f.Branch.DisplayName(), f.Err)
}

func (f BranchFailure) Unwrap() error {
	return f.Err
}

// Result holds a fully resolved containment table.
type Result struct {
	// Branches are the columns that resolved, in request order.
	Branches []git.BranchRef
	// Failed lists branches dropped because they could not be evaluated.
	Failed []BranchFailure
	rows   map[string][]bool
}

// Row returns the containment flags of a commit, aligned with Branches.
func (r *Result) Row(hash string) ([]bool, bool) {
	row, ok := r.rows[hash]
	return row, ok
}

// Contains reports whether the branch in the given column contains the commit.
func (r *Result) Contains(hash string, column int) bool {
	row, ok := r.rows[hash]
	if !ok || column < 0 || column >= len(row) {
		return false
	}
	return row[column]
}

// Evaluate resolves every (commit, branch) pair.
// A branch whose tip cannot be walked is dropped and listed in Result.Failed;
// any other error aborts the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, commits []git.Commit, branches []git.BranchRef) (*Result, error) {
	tips := make([]string, 0, len(branches))
	for _, b := range branches {
		tips = append(tips, b.Tip)
	}
	e.addTips(tips...)

	e.mu.Lock()
	if e.opts.Probe == ProbeAuto {
		e.probe = len(commits) > len(branches)
	}
	e.mu.Unlock()

	table := make([][]bool, len(commits))
	for i := range table {
		table[i] = make([]bool, len(branches))
	}
	broken := make([]error, len(branches))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	jobs := make(chan int)
	workers := e.workerCount(len(commits))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				for j, branch := range branches {
					v, err := e.Contains(ctx, commits[i].Hash, branch)
					if err != nil {
						mu.Lock()
						if errors.Is(err, git.ErrBranchUnresolvable) {
							if broken[j] == nil {
								broken[j] = err
							}
						} else if firstErr == nil {
							firstErr = err
							cancel()
						}
						mu.Unlock()
						continue
					}
					table[i][j] = v
				}
			}
		}()
	}

feed:
	for i := range commits {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A branch can also be marked failed by another branch's probe.
	e.mu.Lock()
	for j, b := range branches {
		if broken[j] == nil && e.failed[b.Tip] != nil {
			broken[j] = e.failed[b.Tip]
		}
	}
	e.mu.Unlock()

	result := &Result{rows: make(map[string][]bool, len(commits))}
	keep := make([]int, 0, len(branches))
	for j, b := range branches {
		if broken[j] != nil {
			result.Failed = append(result.Failed, BranchFailure{Branch: b, Err: broken[j]})
			continue
		}
		keep = append(keep, j)
		result.Branches = append(result.Branches, b)
	}
	for i, c := range commits {
		row := make([]bool, len(keep))
		for k, j := range keep {
			row[k] = table[i][j]
		}
		result.rows[c.Hash] = row
	}
	return result, nil
}

func (e *Evaluator) workerCount(jobs int) int {
	n := e.opts.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	return n
}
