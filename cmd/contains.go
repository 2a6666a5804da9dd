package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/git-contains/internal/collect"
	"github.com/masmgr/git-contains/internal/containment"
	"github.com/masmgr/git-contains/internal/output"
)

func containsAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected at most one git directory, got %d arguments", c.NArg())
	}

	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	cfg := ctx.Config

	format, err := getOutputFormat(c.String("format"), cfg.Output.Format)
	if err != nil {
		return err
	}
	probe, err := parseProbeMode(cfg.Containment.Probe)
	if err != nil {
		return err
	}

	author := cfg.History.Author
	if author == "" {
		author, err = ctx.Repo.DefaultAuthor(c.Context)
		if err != nil {
			return fmt.Errorf("no author given: %w (use --author)", err)
		}
	}

	opts := PipelineOptions{
		Collect: collect.Options{
			Base:   cfg.History.Base,
			Author: author,
			Days:   cfg.History.Days,
			Now:    time.Now(),
		},
		Branches:  cfg.Branches.Defaults,
		Resolver:  ctx.Resolver(c),
		Search:    c.String("search"),
		Patterns:  cfg.Highlight.Patterns,
		Variants:  c.Bool("variants"),
		Reverse:   c.Bool("reverse"),
		HideEmpty: cfg.Branches.HideEmpty,
		Containment: containment.Options{
			Workers: cfg.Containment.Workers,
			Probe:   probe,
		},
	}

	result, err := runPipeline(c.Context, ctx.Repo, opts, ctx.Warnings.Warn)
	if err != nil {
		return err
	}

	if c.Bool("stats") {
		fmt.Fprintf(c.App.ErrWriter, "containment: %d direct checks, %d shortcuts, %d probes\n",
			result.Stats.Direct, result.Stats.Shortcuts, result.Stats.Probes)
	}

	report := &output.ContainsReport{
		RepoPath:    ctx.Repo.Path(),
		Author:      author,
		Base:        opts.Collect.Base,
		Since:       result.Since,
		GeneratedAt: time.Now(),
		Variants:    opts.Variants,
		Reverse:     opts.Reverse,
		Matrix:      result.Matrix,
		Warnings:    ctx.Warnings.Messages(),
	}
	return writeReport(report, output.OutputOptions{
		Format:     format,
		OutputPath: c.String("output"),
	})
}
