package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file looked up in the working directory and $HOME.
const FileName = ".git-contains.json"

// Config is the root configuration structure.
type Config struct {
	History     HistoryConfig     `json:"history"`
	Branches    BranchesConfig    `json:"branches"`
	Containment ContainmentConfig `json:"containment"`
	Highlight   HighlightConfig   `json:"highlight"`
	Output      OutputConfig      `json:"output"`
}

// HistoryConfig selects the commits to report on.
type HistoryConfig struct {
	Days    int    `json:"days"`    // Default: 30; <= 0 disables the window
	Base    string `json:"base"`    // Default: "HEAD"
	Author  string `json:"author"`  // Default: git user.name
	Backend string `json:"backend"` // "native" or "gitcli"
}

// BranchesConfig holds branch column options.
type BranchesConfig struct {
	// Defaults are the branch specs used when none are given on the command line.
	// Empty means every local branch.
	Defaults  []string `json:"defaults"`
	RefScript string   `json:"refScript"` // overrides git config contains.refscript
	HideEmpty bool     `json:"hideEmpty"`
}

// ContainmentConfig tunes the containment evaluator.
type ContainmentConfig struct {
	Workers int    `json:"workers"` // 0 uses the number of CPUs
	Probe   string `json:"probe"`   // "auto", "always" or "never"
}

// HighlightConfig holds highlight patterns applied on top of --search.
type HighlightConfig struct {
	Patterns []string `json:"patterns"` // Regex patterns, case-insensitive
}

// OutputConfig holds report options.
type OutputConfig struct {
	Format string `json:"format"` // console, json, csv, markdown, ci
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			Days:    30,
			Base:    "HEAD",
			Backend: "native",
		},
		Branches: BranchesConfig{
			Defaults: []string{},
		},
		Containment: ContainmentConfig{
			Probe: "auto",
		},
		Highlight: HighlightConfig{
			Patterns: []string{},
		},
		Output: OutputConfig{
			Format: "console",
		},
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case "", "native", "gitcli":
	default:
		return fmt.Errorf("history.backend: unknown backend %q", c.History.Backend)
	}
	switch c.Containment.Probe {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("containment.probe: unknown mode %q", c.Containment.Probe)
	}
	if c.Containment.Workers < 0 {
		return fmt.Errorf("containment.workers: must not be negative, got %d", c.Containment.Workers)
	}
	return nil
}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := []string{FileName}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, FileName))
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			candidates = append(candidates, filepath.Join(envHome, FileName))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
