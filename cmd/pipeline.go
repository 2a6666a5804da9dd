package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/masmgr/git-contains/internal/collect"
	"github.com/masmgr/git-contains/internal/containment"
	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/highlight"
	"github.com/masmgr/git-contains/internal/matrix"
	"github.com/masmgr/git-contains/internal/refs"
	"github.com/masmgr/git-contains/internal/variants"
)

// PipelineOptions configures one matrix run.
type PipelineOptions struct {
	Collect     collect.Options
	Branches    []string // branch specs; empty means every local branch
	Resolver    refs.Resolver
	Search      string
	Patterns    []string
	Variants    bool
	Reverse     bool
	HideEmpty   bool
	Containment containment.Options
}

// PipelineResult is the outcome of a matrix run.
type PipelineResult struct {
	Matrix *matrix.Matrix
	Stats  containment.Stats
	Since  *time.Time
}

// runPipeline collects, groups, evaluates and assembles. Recoverable errors
// go to warn; anything returned is fatal.
func runPipeline(ctx context.Context, repo git.Repository, opts PipelineOptions, warn func(error)) (*PipelineResult, error) {
	if warn == nil {
		warn = func(error) {}
	}
	matcher, err := highlight.NewMatcher(opts.Search, opts.Patterns)
	if err != nil {
		return nil, err
	}

	commits, err := collect.NewCollector(repo).Collect(ctx, opts.Collect)
	if err != nil {
		return nil, err
	}

	resolver := refs.NewBranchResolver(repo, opts.Resolver, warn)
	resolver.SkipStale(opts.Collect.Since())
	branches, err := resolver.Resolve(ctx, opts.Branches)
	if err != nil {
		return nil, err
	}

	evaluator := containment.NewEvaluator(repo, opts.Containment)
	result, err := evaluator.Evaluate(ctx, commits, branches)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate containment: %w", err)
	}
	for _, failure := range result.Failed {
		warn(failure)
	}

	m, err := matrix.Assemble(ctx, variants.GroupBySubject(commits), result, matrix.Options{
		Variants:  opts.Variants,
		Reverse:   opts.Reverse,
		HideEmpty: opts.HideEmpty,
		Highlight: matcher,
		Diffs:     repo,
		Warn:      warn,
	})
	if err != nil {
		return nil, err
	}

	res := &PipelineResult{Matrix: m, Stats: evaluator.Stats()}
	if since := opts.Collect.Since(); !since.IsZero() {
		res.Since = &since
	}
	return res, nil
}
