package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/masmgr/git-contains/internal/matrix"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleWriter)(nil)
	_ ReportWriter = (*JSONWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ ReportWriter = (*MarkdownWriter)(nil)
	_ ReportWriter = (*CIWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// Formats lists the supported output formats.
var Formats = []OutputFormat{FormatConsole, FormatJSON, FormatCSV, FormatMarkdown, FormatCI}

// ParseFormat validates a format name. The empty string selects console output.
func ParseFormat(name string) (OutputFormat, error) {
	if name == "" {
		return FormatConsole, nil
	}
	f := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (expected console, json, csv, markdown or ci)", name)
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	OutputPath string
}

// ContainsReport holds an assembled containment matrix and its context.
type ContainsReport struct {
	RepoPath    string
	Author      string
	Base        string
	Since       *time.Time
	GeneratedAt time.Time
	Variants    bool
	Reverse     bool
	Matrix      *matrix.Matrix
	// Warnings are the recoverable problems met while building the matrix.
	Warnings []string
}

// ReportWriter writes containment reports.
type ReportWriter interface {
	Write(report *ContainsReport, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONWriter{}
	case FormatCSV:
		return &CSVWriter{}
	case FormatMarkdown:
		return &MarkdownWriter{}
	case FormatCI:
		return &CIWriter{}
	default:
		return &ConsoleWriter{}
	}
}
