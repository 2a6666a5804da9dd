package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CIWriter writes containment reports as NDJSON (one JSON object per line) for CI pipelines.
type CIWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type        string `json:"type"`
	Commits     int    `json:"commits"`
	Branches    int    `json:"branches"`
	Uncontained int    `json:"uncontained"`
	Warnings    int    `json:"warnings"`
}

// CICommitEntry represents a single row in CI output.
type CICommitEntry struct {
	Type     string   `json:"type"`
	Hash     string   `json:"hash"`
	Subject  string   `json:"subject"`
	Branches []string `json:"branches"`
	Missing  []string `json:"missing"`
}

// CIWarningEntry carries one warning.
type CIWarningEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Write outputs the report as NDJSON: a summary line, one line per row, then
// one line per warning.
func (w *CIWriter) Write(report *ContainsReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	columns := columnsOf(report)
	rows := rowsOf(report)

	uncontained := 0
	entries := make([]CICommitEntry, len(rows))
	for i, row := range rows {
		in, missing := containedLabels(columns, row)
		if len(in) == 0 {
			uncontained++
		}
		entries[i] = CICommitEntry{
			Type:     "commit",
			Hash:     row.Commit.Hash,
			Subject:  row.Commit.Subject,
			Branches: in,
			Missing:  missing,
		}
	}

	if err := writeNDJSONLine(out, CISummary{
		Type:        "summary",
		Commits:     len(rows),
		Branches:    len(columns),
		Uncontained: uncontained,
		Warnings:    len(report.Warnings),
	}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}
	for _, msg := range report.Warnings {
		if err := writeNDJSONLine(out, CIWarningEntry{Type: "warning", Message: msg}); err != nil {
			return err
		}
	}
	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON line: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
