package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/git-contains/internal/collect"
	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/refs"
)

// BranchesCmd lists the columns the branch specs resolve to.
func BranchesCmd() *cli.Command {
	return &cli.Command{
		Name:      "branches",
		Usage:     "Show what the requested branch specs resolve to",
		ArgsUsage: "[git dir]",
		Flags:     branchFlags(),
		Action:    branchesAction,
	}
}

func branchesAction(c *cli.Context) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	resolver := refs.NewBranchResolver(ctx.Repo, ctx.Resolver(c), ctx.Warnings.Warn)
	resolver.SkipStale(collect.Options{Days: ctx.Config.History.Days}.Since())
	branches, err := resolver.Resolve(c.Context, ctx.Config.Branches.Defaults)
	if err != nil {
		return err
	}

	if len(branches) == 0 {
		fmt.Fprintln(c.App.Writer, "No branches resolved.")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLabel\tRef\tTip\tPinned")
	for i, b := range branches {
		pinned := ""
		if b.Pinned {
			pinned = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, b.DisplayName(), b.Name, shortTip(b.Tip), pinned)
	}
	return tw.Flush()
}

func shortTip(hash string) string {
	return git.Commit{Hash: hash}.ShortHash()
}
