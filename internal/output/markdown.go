package output

import (
	"fmt"
	"strings"
)

// MarkdownWriter writes containment reports as Markdown.
type MarkdownWriter struct{}

// Write outputs the report as a Markdown table.
func (w *MarkdownWriter) Write(report *ContainsReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	columns := columnsOf(report)
	rows := rowsOf(report)

	fmt.Fprintln(out, "# Branch Containment")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	if report.Author != "" {
		fmt.Fprintf(out, "**Author:** %s\n\n", escapeMarkdown(report.Author))
	}
	if report.Since != nil {
		fmt.Fprintf(out, "**Since:** %s\n\n", report.Since.Format(reportDateLayout))
	}
	fmt.Fprintf(out, "**Commits:** %d, **Branches:** %d\n\n", len(rows), len(columns))

	if len(rows) == 0 {
		fmt.Fprintln(out, "No matching commits found.")
	} else {
		header := []string{"Date", "Hash"}
		if report.Variants {
			header = append(header, "Diff")
		}
		for _, col := range columns {
			header = append(header, escapeMarkdown(col.DisplayName()))
		}
		header = append(header, "Subject")

		fmt.Fprintf(out, "| %s |\n", strings.Join(header, " | "))
		seps := make([]string, len(header))
		for i, h := range header {
			seps[i] = strings.Repeat("-", max(3, len(h)))
		}
		fmt.Fprintf(out, "|%s|\n", strings.Join(seps, "|"))

		for _, row := range rows {
			cells := []string{
				row.Commit.When.Format(reportDateLayout),
				"`" + row.Commit.ShortHash() + "`",
			}
			if report.Variants {
				if row.DiffID != "" {
					cells = append(cells, "`"+shortDiffID(row.DiffID)+"`")
				} else {
					cells = append(cells, "")
				}
			}
			for _, in := range row.Contains {
				if in {
					cells = append(cells, "✅")
				} else {
					cells = append(cells, "")
				}
			}
			subject := escapeMarkdown(row.Commit.Subject)
			if row.Highlight {
				subject = "**" + subject + "**"
			}
			cells = append(cells, subject)
			fmt.Fprintf(out, "| %s |\n", strings.Join(cells, " | "))
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Warnings")
		fmt.Fprintln(out)
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "- %s\n", escapeMarkdown(w))
		}
	}
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
