package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/matrix"
)

var reportTime = time.Date(2025, 6, 3, 9, 30, 0, 0, time.UTC)

func testReport() *ContainsReport {
	a := &git.Commit{
		Hash:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		When:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Author:  git.AuthorInfo{Name: "Alice"},
		Subject: "feat: parser",
	}
	b := &git.Commit{
		Hash:    "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		When:    time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		Author:  git.AuthorInfo{Name: "Alice"},
		Subject: "fix: lexer | tokens",
	}
	since := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)
	return &ContainsReport{
		RepoPath:    "/test/repo",
		Author:      "Alice",
		Base:        "HEAD",
		Since:       &since,
		GeneratedAt: reportTime,
		Matrix: &matrix.Matrix{
			Columns: []git.BranchRef{
				{Name: "main", Label: "main", Tip: "c1"},
				{Name: "release/1.2", Label: "deploy 7", Tip: "c2", Pinned: true},
			},
			Rows: []matrix.Row{
				{Commit: a, Contains: []bool{true, true}, Group: 1, GroupSize: 2, DiffID: "0123456789abcdef"},
				{Commit: b, Contains: []bool{false, false}, Group: 0, GroupSize: 1, Highlight: true},
			},
		},
		Warnings: []string{"branch unresolvable: \"gone\""},
	}
}

// writeToTemp writes report with the given format and returns the output.
func writeToTemp(t *testing.T, report *ContainsReport, format OutputFormat) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.out")
	if err := NewReportWriter(format).Write(report, OutputOptions{Format: format, OutputPath: path}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	return string(data)
}

func readTestFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}
