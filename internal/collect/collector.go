package collect

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/masmgr/git-contains/internal/git"
)

// Options configures a collection run.
type Options struct {
	Base   string    // base history, HEAD when empty
	Author string    // author name or e-mail substring
	Days   int       // lookback window; <= 0 disables it
	Now    time.Time // reference time, time.Now() when zero
}

// Since returns the start of the lookback window, or the zero time when disabled.
func (o Options) Since() time.Time {
	if o.Days <= 0 {
		return time.Time{}
	}
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	return now.Add(-time.Duration(o.Days) * 24 * time.Hour)
}

// Collector gathers the author's candidate commits from the base history.
type Collector struct {
	source git.HistorySource
}

// NewCollector creates a Collector reading from source.
func NewCollector(source git.HistorySource) *Collector {
	return &Collector{source: source}
}

// Collect returns the author's commits inside the window, most recent first.
// The window is measured against the committer date.
func (c *Collector) Collect(ctx context.Context, opts Options) ([]git.Commit, error) {
	since := opts.Since()
	commits, err := c.source.ListCommitsByAuthor(ctx, git.LogOptions{
		Base:   opts.Base,
		Author: opts.Author,
		Since:  since,
	})
	if err != nil {
		if errors.Is(err, git.ErrHistoryUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", git.ErrHistoryUnavailable, err)
	}

	seen := make(map[string]struct{}, len(commits))
	result := make([]git.Commit, 0, len(commits))
	for _, commit := range commits {
		if _, dup := seen[commit.Hash]; dup {
			continue
		}
		if !since.IsZero() && commit.When.Before(since) {
			continue
		}
		seen[commit.Hash] = struct{}{}
		result = append(result, commit)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].When.After(result[j].When)
	})
	return result, nil
}
