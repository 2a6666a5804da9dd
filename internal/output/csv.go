package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes the matrix as CSV, one column per branch.
type CSVWriter struct{}

// Write outputs the report as CSV. Branch cells hold "x" when contained.
func (w *CSVWriter) Write(report *ContainsReport, options OutputOptions) error {
	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	columns := columnsOf(report)
	headers := []string{"Date", "Hash", "Author", "Subject", "Group", "GroupSize", "Highlight"}
	if report.Variants {
		headers = append(headers, "DiffID")
	}
	for _, col := range columns {
		headers = append(headers, col.DisplayName())
	}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, row := range rowsOf(report) {
		record := []string{
			row.Commit.When.Format(reportDateTimeLayout),
			row.Commit.Hash,
			row.Commit.Author.Name,
			row.Commit.Subject,
			fmt.Sprintf("%d", row.Group),
			fmt.Sprintf("%d", row.GroupSize),
			fmt.Sprintf("%t", row.Highlight),
		}
		if report.Variants {
			record = append(record, row.DiffID)
		}
		for _, in := range row.Contains {
			if in {
				record = append(record, glyphContained)
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
