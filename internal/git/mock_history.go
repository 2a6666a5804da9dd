package git

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockHistory is an in-memory commit graph for tests.
// It allows tests to describe histories without needing a real Git repository.
type MockHistory struct {
	mu       sync.Mutex
	commits  map[string]Commit
	parents  map[string][]string
	refs     map[string]string
	branches []BranchName
	config   map[string]string
	diffIDs  map[string]string

	// ListErr is returned by ListCommitsByAuthor when set.
	ListErr error
	// BrokenTips makes IsAncestor fail for the given tip hashes.
	BrokenTips map[string]bool

	ancestorCalls int
}

// NewMockHistory creates an empty MockHistory.
func NewMockHistory() *MockHistory {
	return &MockHistory{
		commits:    make(map[string]Commit),
		parents:    make(map[string][]string),
		refs:       make(map[string]string),
		config:     make(map[string]string),
		diffIDs:    make(map[string]string),
		BrokenTips: make(map[string]bool),
	}
}

// AddCommit records a commit and its parents.
func (m *MockHistory) AddCommit(c Commit, parents ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Subject == "" {
		c.Subject = SubjectOf(c.Message)
	}
	if c.Message == "" {
		c.Message = c.Subject
	}
	m.commits[c.Hash] = c
	m.parents[c.Hash] = append([]string(nil), parents...)
}

// SetRef points a revision name at a commit without listing it as a branch.
func (m *MockHistory) SetRef(name, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[name] = hash
}

// AddBranch points a branch at a commit and lists it.
func (m *MockHistory) AddBranch(name, hash string, remote bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[name] = hash
	m.branches = append(m.branches, BranchName{Name: name, Remote: remote})
}

// SetConfig sets a git config value such as "user.name".
func (m *MockHistory) SetConfig(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
}

// SetDiffID sets the fingerprint returned for hash.
func (m *MockHistory) SetDiffID(hash, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diffIDs[hash] = id
}

// AncestorCalls returns the number of IsAncestor calls made so far.
func (m *MockHistory) AncestorCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ancestorCalls
}

// Path returns a placeholder path.
func (m *MockHistory) Path() string {
	return "mock"
}

// ListCommitsByAuthor returns matching non-merge ancestors of opts.Base.
func (m *MockHistory) ListCommitsByAuthor(ctx context.Context, opts LogOptions) ([]Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	base := opts.Base
	if base == "" {
		base = "HEAD"
	}
	from, ok := m.resolveLocked(base)
	if !ok {
		return nil, historyError("resolve "+base, fmt.Errorf("unknown revision"))
	}

	var results []Commit
	for _, hash := range m.reachableLocked(from) {
		if len(m.parents[hash]) > 1 {
			continue
		}
		c := m.commits[hash]
		if !opts.Since.IsZero() && c.When.Before(opts.Since) {
			continue
		}
		if !c.Author.Matches(opts.Author) {
			continue
		}
		results = append(results, c)
	}

	sortMostRecentFirst(results)
	return results, nil
}

// IsAncestor walks parents from tip looking for commit.
func (m *MockHistory) IsAncestor(ctx context.Context, commit, tip string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ancestorCalls++
	if _, ok := m.commits[commit]; !ok {
		return false, historyError("commit "+commit, fmt.Errorf("object not found"))
	}
	if _, ok := m.commits[tip]; !ok || m.BrokenTips[tip] {
		return false, branchError(tip, fmt.Errorf("object not found"))
	}
	for _, hash := range m.reachableLocked(tip) {
		if hash == commit {
			return true, nil
		}
	}
	return false, nil
}

// ResolveRef resolves a ref name or a known commit hash.
func (m *MockHistory) ResolveRef(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, ok := m.resolveLocked(name)
	if !ok {
		return "", branchError(name, fmt.Errorf("unknown revision"))
	}
	return hash, nil
}

// ListBranches returns the branches added with AddBranch.
func (m *MockHistory) ListBranches(ctx context.Context) ([]BranchName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	branches := append([]BranchName(nil), m.branches...)
	for i := range branches {
		if c, ok := m.commits[m.refs[branches[i].Name]]; ok {
			branches[i].Updated = c.When.UTC()
		}
	}
	sortBranchNames(branches)
	return branches, nil
}

// DefaultAuthor returns the "user.name" config value.
func (m *MockHistory) DefaultAuthor(ctx context.Context) (string, error) {
	name, ok := m.ConfigValue(ctx, "user", "name")
	if !ok || name == "" {
		return "", errors.New("user.name is not set")
	}
	return name, nil
}

// ConfigValue returns a value set with SetConfig.
func (m *MockHistory) ConfigValue(_ context.Context, section, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.config[section+"."+key]
	return v, ok
}

// DiffID returns the fingerprint set with SetDiffID, or one derived from the subject.
func (m *MockHistory) DiffID(_ context.Context, hash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.diffIDs[hash]; ok {
		return id, nil
	}
	c, ok := m.commits[hash]
	if !ok {
		return "", historyError("commit "+hash, fmt.Errorf("object not found"))
	}
	return Fingerprint(c.Subject), nil
}

func (m *MockHistory) resolveLocked(name string) (string, bool) {
	if hash, ok := m.refs[name]; ok {
		return hash, true
	}
	if _, ok := m.commits[name]; ok {
		return name, true
	}
	return "", false
}

// reachableLocked returns tip and all its ancestors in breadth-first order.
func (m *MockHistory) reachableLocked(tip string) []string {
	seen := map[string]bool{tip: true}
	queue := []string{tip}
	var order []string
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		order = append(order, hash)
		for _, p := range m.parents[hash] {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return order
}
