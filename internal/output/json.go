package output

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONWriter writes containment reports as JSON.
type JSONWriter struct{}

// JSONReport is the JSON output structure.
type JSONReport struct {
	RepoPath    string       `json:"repo"`
	Author      string       `json:"author"`
	Base        string       `json:"base"`
	Since       *string      `json:"since,omitempty"`
	GeneratedAt string       `json:"generatedAt"`
	Variants    bool         `json:"variants"`
	Columns     []JSONColumn `json:"columns"`
	Rows        []JSONRow    `json:"rows"`
	Warnings    []string     `json:"warnings"`
}

// JSONColumn describes one branch column.
type JSONColumn struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Tip    string `json:"tip"`
	Pinned bool   `json:"pinned,omitempty"`
}

// JSONRow is one matrix row.
type JSONRow struct {
	Hash      string   `json:"hash"`
	Date      string   `json:"date"`
	Author    string   `json:"author"`
	Subject   string   `json:"subject"`
	Highlight bool     `json:"highlight"`
	Group     int      `json:"group"`
	GroupSize int      `json:"groupSize"`
	DiffID    string   `json:"diffId,omitempty"`
	Contains  []bool   `json:"contains"`
	Branches  []string `json:"branches"`
}

// Write outputs the report as indented JSON.
func (w *JSONWriter) Write(report *ContainsReport, options OutputOptions) error {
	columns := columnsOf(report)
	rows := rowsOf(report)

	jsonReport := JSONReport{
		RepoPath:    report.RepoPath,
		Author:      report.Author,
		Base:        report.Base,
		Since:       formatSinceDate(report.Since),
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Variants:    report.Variants,
		Columns:     make([]JSONColumn, len(columns)),
		Rows:        make([]JSONRow, len(rows)),
		Warnings:    append([]string{}, report.Warnings...),
	}
	for j, col := range columns {
		jsonReport.Columns[j] = JSONColumn{
			Name:   col.Name,
			Label:  col.DisplayName(),
			Tip:    col.Tip,
			Pinned: col.Pinned,
		}
	}
	for i, row := range rows {
		in, _ := containedLabels(columns, row)
		jsonReport.Rows[i] = JSONRow{
			Hash:      row.Commit.Hash,
			Date:      row.Commit.When.Format(time.RFC3339),
			Author:    row.Commit.Author.Name,
			Subject:   row.Commit.Subject,
			Highlight: row.Highlight,
			Group:     row.Group,
			GroupSize: row.GroupSize,
			DiffID:    row.DiffID,
			Contains:  append([]bool{}, row.Contains...),
			Branches:  in,
		}
	}

	return writeJSON(jsonReport, options.OutputPath)
}

func writeJSON(v interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
