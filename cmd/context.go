package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/git-contains/config"
	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/refs"
)

// CommandContext holds common state for command execution.
type CommandContext struct {
	Config   *config.Config
	RepoPath string
	Repo     git.Repository
	Warnings *WarningSink
}

// NewCommandContext loads the configuration and opens the repository named
// by the first argument, or the current directory.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	repoPath := c.Args().First()
	if repoPath == "" {
		repoPath = "."
	}

	repo, err := git.Open(repoPath, git.Backend(cfg.History.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &CommandContext{
		Config:   cfg,
		RepoPath: repoPath,
		Repo:     repo,
		Warnings: NewWarningSink(c.App.ErrWriter),
	}, nil
}

// Resolver returns the ref resolver for ':' tokens. The script comes from
// --refscript, then the config file, then git config contains.refscript.
func (ctx *CommandContext) Resolver(c *cli.Context) refs.Resolver {
	script := ctx.Config.Branches.RefScript
	if script == "" {
		script, _ = ctx.Repo.ConfigValue(c.Context, "contains", "refscript")
	}
	if script == "" {
		return refs.PassThroughResolver{}
	}
	return refs.NewScriptResolver(script)
}

// WarningSink prints recoverable errors and keeps them for the report.
type WarningSink struct {
	out      io.Writer
	printer  *color.Color
	messages []string
}

// NewWarningSink creates a sink printing to out, or stderr when out is nil.
func NewWarningSink(out io.Writer) *WarningSink {
	if out == nil {
		out = os.Stderr
	}
	return &WarningSink{out: out, printer: color.New(color.FgYellow)}
}

// Warn records err and prints it.
func (w *WarningSink) Warn(err error) {
	if err == nil {
		return
	}
	w.messages = append(w.messages, err.Error())
	w.printer.Fprintf(w.out, "warning: %v\n", err)
}

// Messages returns the recorded warnings.
func (w *WarningSink) Messages() []string {
	return w.messages
}
