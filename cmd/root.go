package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/git-contains/config"
	"github.com/masmgr/git-contains/internal/containment"
	"github.com/masmgr/git-contains/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	// -v selects variants mode.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}

	return &cli.App{
		Name:      "git-contains",
		Usage:     "Show which branches contain your recent commits",
		UsageText: "git-contains [options] [git dir]",
		Version:   "1.0.0",
		Commands: []*cli.Command{
			BranchesCmd(),
		},
		Flags: append(containsFlags(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		),
		Action: containsAction,
	}
}

// Flags of the matrix report.
func containsFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.IntFlag{
			Name:    "days",
			Aliases: []string{"d"},
			Usage:   "Only show commits from the last N days (0 for all history)",
			Value:   30,
		},
		&cli.BoolFlag{
			Name:    "reverse",
			Aliases: []string{"r"},
			Usage:   "List the most recent commits first",
		},
		&cli.StringFlag{
			Name:  "author",
			Usage: "Author name or e-mail substring (default: git user.name)",
		},
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Highlight commits whose message contains this text",
		},
		&cli.BoolFlag{
			Name:    "variants",
			Aliases: []string{"v"},
			Usage:   "Show every commit sharing a subject on its own row",
		},
		&cli.StringFlag{
			Name:  "base",
			Usage: "History to collect commits from (default: HEAD)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent containment checks (default: number of CPUs)",
		},
		&cli.StringFlag{
			Name:  "probe",
			Usage: "Tip relation probing (auto, always, never)",
		},
		&cli.BoolFlag{
			Name:  "hide-empty",
			Usage: "Hide branches that contain none of the commits, unless pinned with '!'",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "Print containment check counters to stderr",
		},
	}, branchFlags()...)
}

// Flags shared with the branches command.
func branchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch, glob, or '<script>:<param>' token to show; '!' prefix keeps it when empty (repeatable)",
		},
		&cli.StringFlag{
			Name:  "refscript",
			Usage: "Program translating ':' tokens into refs (default: git config contains.refscript)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Repository backend (native, gitcli)",
		},
	}
}

// getOutputFormat parses the output format flag, falling back to the config value.
func getOutputFormat(flag, configured string) (output.OutputFormat, error) {
	switch flag {
	case "md":
		flag = "markdown"
	case "ndjson":
		flag = "ci"
	}
	if flag == "" {
		flag = configured
	}
	return output.ParseFormat(flag)
}

// parseProbeMode parses a probe mode name.
func parseProbeMode(s string) (containment.ProbeMode, error) {
	switch s {
	case "", "auto":
		return containment.ProbeAuto, nil
	case "always":
		return containment.ProbeAlways, nil
	case "never", "off":
		return containment.ProbeNever, nil
	default:
		return 0, fmt.Errorf("invalid probe mode: %s (expected auto, always or never)", s)
	}
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if c.IsSet("days") {
		cfg.History.Days = c.Int("days")
	}
	if base := c.String("base"); base != "" {
		cfg.History.Base = base
	}
	if author := c.String("author"); author != "" {
		cfg.History.Author = author
	}
	if backend := c.String("backend"); backend != "" {
		cfg.History.Backend = backend
	}
	if branches := c.StringSlice("branch"); len(branches) > 0 {
		cfg.Branches.Defaults = branches
	}
	if script := c.String("refscript"); script != "" {
		cfg.Branches.RefScript = script
	}
	if c.Bool("hide-empty") {
		cfg.Branches.HideEmpty = true
	}
	if c.IsSet("workers") {
		cfg.Containment.Workers = c.Int("workers")
	}
	if probe := c.String("probe"); probe != "" {
		cfg.Containment.Probe = probe
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the CLI application.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := App().RunContext(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
