// Package matrix assembles grouped commits and containment answers into the
// rows and columns a report renders.
package matrix

import (
	"context"
	"fmt"

	"github.com/masmgr/git-contains/internal/containment"
	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/highlight"
	"github.com/masmgr/git-contains/internal/variants"
)

// Row is one displayed line of the matrix.
type Row struct {
	Commit *git.Commit
	// Contains is aligned with Matrix.Columns.
	Contains  []bool
	Highlight bool
	// Group is the index of the variant group, 0 being the most recent.
	Group     int
	GroupSize int
	// DiffID is set in variants mode for groups with more than one member.
	DiffID string
}

// Matrix is the assembled containment table.
type Matrix struct {
	Columns []git.BranchRef
	Rows    []Row
}

// DiffSource fingerprints commit patches.
type DiffSource interface {
	DiffID(ctx context.Context, hash string) (string, error)
}

// Options configures Assemble.
type Options struct {
	// Variants shows every group member on its own row. Otherwise one row
	// per group shows the union of its members' containment.
	Variants bool
	// Reverse lists the most recent commits first.
	Reverse bool
	// HideEmpty drops unpinned columns that contain none of the rows.
	HideEmpty bool
	Highlight *highlight.Matcher
	// Diffs computes DiffID in variants mode; nil disables it.
	Diffs DiffSource
	// Warn receives fingerprint failures. The row keeps an empty DiffID.
	Warn func(error)
}

// Assemble builds the matrix. groups must be ordered most recent first, as
// returned by variants.GroupBySubject, and result must cover every member.
func Assemble(ctx context.Context, groups []variants.Group, result *containment.Result, opts Options) (*Matrix, error) {
	width := len(result.Branches)
	m := &Matrix{Columns: append([]git.BranchRef(nil), result.Branches...)}

	for gi, g := range groups {
		if opts.Variants {
			for _, member := range g.Members {
				row := Row{
					Commit:    member,
					Contains:  make([]bool, width),
					Highlight: opts.Highlight.MatchCommit(member),
					Group:     gi,
					GroupSize: g.Size(),
				}
				for j := 0; j < width; j++ {
					row.Contains[j] = result.Contains(member.Hash, j)
				}
				if g.Size() > 1 && opts.Diffs != nil {
					id, err := opts.Diffs.DiffID(ctx, member.Hash)
					switch {
					case err == nil:
						row.DiffID = id
					case ctx.Err() != nil:
						return nil, ctx.Err()
					case opts.Warn != nil:
						opts.Warn(fmt.Errorf("failed to fingerprint %s: %w", member.ShortHash(), err))
					}
				}
				m.Rows = append(m.Rows, row)
			}
			continue
		}

		row := Row{
			Commit:    g.Representative(),
			Contains:  make([]bool, width),
			Highlight: opts.Highlight.MatchAny(g.Members),
			Group:     gi,
			GroupSize: g.Size(),
		}
		for _, member := range g.Members {
			for j := 0; j < width; j++ {
				row.Contains[j] = row.Contains[j] || result.Contains(member.Hash, j)
			}
		}
		m.Rows = append(m.Rows, row)
	}

	if !opts.Reverse {
		for i, j := 0, len(m.Rows)-1; i < j; i, j = i+1, j-1 {
			m.Rows[i], m.Rows[j] = m.Rows[j], m.Rows[i]
		}
	}
	if opts.HideEmpty {
		m.hideEmptyColumns()
	}
	return m, nil
}

func (m *Matrix) hideEmptyColumns() {
	keep := make([]int, 0, len(m.Columns))
	for j, col := range m.Columns {
		if col.Pinned {
			keep = append(keep, j)
			continue
		}
		for _, row := range m.Rows {
			if row.Contains[j] {
				keep = append(keep, j)
				break
			}
		}
	}
	if len(keep) == len(m.Columns) {
		return
	}

	columns := make([]git.BranchRef, len(keep))
	for k, j := range keep {
		columns[k] = m.Columns[j]
	}
	m.Columns = columns
	for i := range m.Rows {
		contains := make([]bool, len(keep))
		for k, j := range keep {
			contains[k] = m.Rows[i].Contains[j]
		}
		m.Rows[i].Contains = contains
	}
}

// ColumnCounts returns how many rows each column contains.
func (m *Matrix) ColumnCounts() []int {
	counts := make([]int, len(m.Columns))
	for _, row := range m.Rows {
		for j, in := range row.Contains {
			if in {
				counts[j]++
			}
		}
	}
	return counts
}
