package output

import (
	"io"
	"os"
	"time"

	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/matrix"
)

const (
	reportDateLayout     = "2006-01-02"
	reportDateTimeLayout = "2006-01-02T15:04:05"
	rowTimeLayout        = "2006.01.02 15:04:05"
	diffIDLen            = 8
)

func formatSinceDate(since *time.Time) *string {
	if since == nil {
		return nil
	}
	formatted := since.Format(reportDateLayout)
	return &formatted
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

func columnsOf(report *ContainsReport) []git.BranchRef {
	if report.Matrix == nil {
		return nil
	}
	return report.Matrix.Columns
}

func rowsOf(report *ContainsReport) []matrix.Row {
	if report.Matrix == nil {
		return nil
	}
	return report.Matrix.Rows
}

// containedLabels splits the column labels by whether the row contains them.
func containedLabels(columns []git.BranchRef, row matrix.Row) (in, out []string) {
	in, out = []string{}, []string{}
	for j, col := range columns {
		if j < len(row.Contains) && row.Contains[j] {
			in = append(in, col.DisplayName())
		} else {
			out = append(out, col.DisplayName())
		}
	}
	return in, out
}

func shortDiffID(id string) string {
	if len(id) <= diffIDLen {
		return id
	}
	return id[:diffIDLen]
}
