package refs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/masmgr/git-contains/internal/git"
)

// SpecKind classifies a requested branch spec.
type SpecKind int

const (
	KindLiteral SpecKind = iota // a revision passed to the repository as is
	KindGlob                    // matched against branch names
	KindToken                   // translated by the Resolver
)

func (k SpecKind) String() string {
	switch k {
	case KindGlob:
		return "glob"
	case KindToken:
		return "token"
	default:
		return "literal"
	}
}

// Spec is a parsed branch request.
type Spec struct {
	Raw     string
	Pattern string // Raw without the pin prefix
	Pinned  bool
	Kind    SpecKind
}

// ParseSpec parses a branch spec.
// A leading "!" pins the column, a ":" marks a resolver token and glob
// metacharacters make it a pattern over branch names.
func ParseSpec(raw string) Spec {
	s := Spec{Raw: raw, Pattern: raw}
	if strings.HasPrefix(s.Pattern, "!") {
		s.Pinned = true
		s.Pattern = s.Pattern[1:]
	}
	switch {
	case strings.Contains(s.Pattern, ":"):
		s.Kind = KindToken
	case strings.ContainsAny(s.Pattern, "*?[{"):
		s.Kind = KindGlob
	default:
		s.Kind = KindLiteral
	}
	return s
}

// RefSource is what branch resolution needs from a repository.
type RefSource interface {
	git.RefLister
	ResolveRef(ctx context.Context, name string) (string, error)
}

// BranchResolver resolves branch specs against a repository.
type BranchResolver struct {
	source   RefSource
	resolver Resolver
	warn     func(error)
	since    time.Time

	branches []git.BranchName // listed lazily
}

// NewBranchResolver creates a BranchResolver. A nil resolver passes tokens
// through unchanged; warn receives every recoverable error and may be nil.
func NewBranchResolver(source RefSource, resolver Resolver, warn func(error)) *BranchResolver {
	if resolver == nil {
		resolver = PassThroughResolver{}
	}
	if warn == nil {
		warn = func(error) {}
	}
	return &BranchResolver{source: source, resolver: resolver, warn: warn}
}

// SkipStale excludes default and glob-matched branches whose tip was
// committed before since. Explicitly named branches are always kept. A zero
// since disables the check.
func (r *BranchResolver) SkipStale(since time.Time) {
	r.since = since
}

func (r *BranchResolver) stale(b git.BranchName) bool {
	return !r.since.IsZero() && !b.Updated.IsZero() && b.Updated.Before(r.since)
}

// Resolve turns specs into branch refs in request order. Glob matches are
// sorted by name. Specs that resolve to nothing are reported to the warning
// sink and skipped; with no specs every local branch is returned.
func (r *BranchResolver) Resolve(ctx context.Context, specs []string) ([]git.BranchRef, error) {
	if len(specs) == 0 {
		return r.LocalBranches(ctx)
	}

	var result []git.BranchRef
	index := make(map[string]int)
	add := func(ref git.BranchRef) {
		k := ref.Name + "\x00" + ref.Label
		if i, ok := index[k]; ok {
			result[i].Pinned = result[i].Pinned || ref.Pinned
			return
		}
		index[k] = len(result)
		result = append(result, ref)
	}

	for _, raw := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec := ParseSpec(raw)
		if spec.Pattern == "" {
			r.warn(&git.BranchError{Ref: raw, Err: errors.New("empty branch name")})
			continue
		}

		switch spec.Kind {
		case KindGlob:
			refs, err := r.expandGlob(ctx, spec)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				add(ref)
			}

		case KindToken:
			res, err := r.resolver.Resolve(ctx, spec.Pattern)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.warn(fmt.Errorf("%s: %w; using it as a branch name", spec.Pattern, err))
				res = Resolution{Label: spec.Pattern, Ref: spec.Pattern}
			}
			if ref, ok := r.literal(ctx, res.Ref, res.Label, spec.Pinned); ok {
				add(ref)
			}

		default:
			if ref, ok := r.literal(ctx, spec.Pattern, spec.Pattern, spec.Pinned); ok {
				add(ref)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LocalBranches returns every local branch sorted by name, minus stale ones.
func (r *BranchResolver) LocalBranches(ctx context.Context) ([]git.BranchRef, error) {
	branches, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, b := range branches {
		if !b.Remote && !r.stale(b) {
			names = append(names, b.Name)
		}
	}
	sort.Strings(names)

	var result []git.BranchRef
	for _, name := range names {
		if ref, ok := r.literal(ctx, name, name, false); ok {
			result = append(result, ref)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *BranchResolver) expandGlob(ctx context.Context, spec Spec) ([]git.BranchRef, error) {
	if !doublestar.ValidatePattern(spec.Pattern) {
		r.warn(&git.BranchError{Ref: spec.Pattern, Err: doublestar.ErrBadPattern})
		return nil, nil
	}
	branches, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	matched := 0
	for _, b := range branches {
		ok, err := doublestar.Match(spec.Pattern, b.Name)
		if err != nil {
			r.warn(&git.BranchError{Ref: spec.Pattern, Err: err})
			return nil, nil
		}
		if !ok {
			continue
		}
		matched++
		if !r.stale(b) {
			names = append(names, b.Name)
		}
	}
	if matched == 0 {
		r.warn(&git.BranchError{Ref: spec.Pattern, Err: errors.New("pattern matched no branches")})
		return nil, nil
	}
	sort.Strings(names)

	var result []git.BranchRef
	for _, name := range names {
		if ref, ok := r.literal(ctx, name, name, spec.Pinned); ok {
			result = append(result, ref)
		}
	}
	return result, nil
}

// literal resolves one revision; failures go to the warning sink.
func (r *BranchResolver) literal(ctx context.Context, name, label string, pinned bool) (git.BranchRef, bool) {
	tip, err := r.source.ResolveRef(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			if !errors.Is(err, git.ErrBranchUnresolvable) {
				err = &git.BranchError{Ref: name, Err: err}
			}
			r.warn(err)
		}
		return git.BranchRef{}, false
	}
	if label == "" {
		label = name
	}
	return git.BranchRef{Name: name, Label: label, Tip: tip, Pinned: pinned}, true
}

func (r *BranchResolver) list(ctx context.Context) ([]git.BranchName, error) {
	if r.branches != nil {
		return r.branches, nil
	}
	branches, err := r.source.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	if branches == nil {
		branches = []git.BranchName{}
	}
	r.branches = branches
	return branches, nil
}
