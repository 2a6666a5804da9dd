package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/matrix"
)

const (
	glyphContained = "x"
	glyphMissing   = "┊"
	glyphRail      = "│"
)

// legendIndent lines the legend up with the glyph columns.
var legendIndent = strings.Repeat(" ", len(rowTimeLayout)+len(" | "))

var columnPalette = []*color.Color{
	color.New(color.FgHiCyan),
	color.New(color.FgHiGreen),
	color.New(color.FgHiMagenta),
	color.New(color.FgHiYellow),
	color.New(color.FgHiBlue),
	color.New(color.FgHiRed),
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgMagenta),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgRed),
}

var (
	timeColors     = []*color.Color{color.New(color.FgHiYellow), color.New(color.FgYellow)}
	separatorColor = color.New(color.FgWhite, color.Bold)
	subjectColor   = color.New(color.FgWhite, color.Bold)
	highlightColor = color.New(color.FgBlack, color.BgYellow, color.Bold)
	diffIDColor    = color.New(color.FgHiBlack)
)

func columnColor(i int) *color.Color {
	return columnPalette[i%len(columnPalette)]
}

// ConsoleWriter renders the matrix as a coloured terminal table.
type ConsoleWriter struct{}

// Write outputs the report. The legend follows the rows, or precedes them
// when the rows are listed most recent first.
func (w *ConsoleWriter) Write(report *ContainsReport, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	columns := columnsOf(report)
	rows := rowsOf(report)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No matching commits found.")
		return nil
	}

	if report.Reverse {
		writeLegend(out, columns, true)
		writeSeparator(out, len(columns))
		writeRows(out, rows, report.Variants)
		return nil
	}
	writeRows(out, rows, report.Variants)
	writeSeparator(out, len(columns))
	writeLegend(out, columns, false)
	return nil
}

func writeRows(out io.Writer, rows []matrix.Row, variantsMode bool) {
	var b strings.Builder
	for i, row := range rows {
		b.Reset()
		b.WriteString(timeColors[i%len(timeColors)].Sprint(row.Commit.When.Format(rowTimeLayout)))
		b.WriteString(" ")
		b.WriteString(separatorColor.Sprint("| "))
		for j, in := range row.Contains {
			glyph := glyphMissing
			if in {
				glyph = glyphContained
			}
			b.WriteString(columnColor(j).Sprint(glyph))
		}
		b.WriteString(" ")
		b.WriteString(row.Commit.ShortHash())
		if variantsMode {
			b.WriteString(" ")
			if row.DiffID != "" {
				b.WriteString(diffIDColor.Sprint(shortDiffID(row.DiffID)))
			} else {
				b.WriteString(strings.Repeat(" ", diffIDLen))
			}
		}
		b.WriteString(" ")
		if row.Highlight {
			b.WriteString(highlightColor.Sprint(row.Commit.Subject))
		} else {
			b.WriteString(subjectColor.Sprint(row.Commit.Subject))
		}
		fmt.Fprintln(out, b.String())
	}
}

func writeSeparator(out io.Writer, n int) {
	var b strings.Builder
	b.WriteString(legendIndent)
	for c := 0; c < n; c++ {
		b.WriteString(columnColor(c).Sprint(glyphRail))
	}
	fmt.Fprintln(out, b.String())
}

// writeLegend prints one staircase line per column; the rails of the
// columns to the left lead down (or up) to each label.
func writeLegend(out io.Writer, columns []git.BranchRef, topDown bool) {
	line := func(i int) {
		var b strings.Builder
		b.WriteString(legendIndent)
		for c := 0; c < i; c++ {
			b.WriteString(columnColor(c).Sprint(glyphRail))
		}
		b.WriteString(columnColor(i).Sprint(columns[i].DisplayName()))
		fmt.Fprintln(out, b.String())
	}
	if topDown {
		for i := range columns {
			line(i)
		}
		return
	}
	for i := len(columns) - 1; i >= 0; i-- {
		line(i)
	}
}
