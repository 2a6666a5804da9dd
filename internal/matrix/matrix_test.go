package matrix

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/masmgr/git-contains/internal/collect"
	"github.com/masmgr/git-contains/internal/containment"
	"github.com/masmgr/git-contains/internal/git"
	"github.com/masmgr/git-contains/internal/highlight"
	"github.com/masmgr/git-contains/internal/variants"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var alice = git.AuthorInfo{Name: "Alice", Email: "alice@example.com"}

// rebasedHistory: A landed on stable through someone else's merge S,
// B is a rebased copy of A on dev, L follows B on dev.
func rebasedHistory() *git.MockHistory {
	m := git.NewMockHistory()
	m.AddCommit(git.Commit{Hash: "root", When: t0, Subject: "init", Author: git.AuthorInfo{Name: "Bob"}})
	m.AddCommit(git.Commit{Hash: "A", When: t0.Add(1 * time.Hour), Subject: "feat: parser", Message: "feat: parser\n\nJIRA-12", Author: alice}, "root")
	m.AddCommit(git.Commit{Hash: "S", When: t0.Add(2 * time.Hour), Subject: "Merge A", Author: git.AuthorInfo{Name: "Bob"}}, "root", "A")
	m.AddCommit(git.Commit{Hash: "B", When: t0.Add(3 * time.Hour), Subject: "feat: parser", Author: alice}, "root")
	m.AddCommit(git.Commit{Hash: "L", When: t0.Add(4 * time.Hour), Subject: "fix: lexer", Author: alice}, "B")
	m.AddBranch("stable", "S", false)
	m.AddBranch("dev", "L", false)
	m.AddBranch("old", "root", false)
	return m
}

type fixture struct {
	history *git.MockHistory
	groups  []variants.Group
	result  *containment.Result
}

func newFixture(t *testing.T, branches ...git.BranchRef) fixture {
	t.Helper()
	ctx := context.Background()
	m := rebasedHistory()
	m.AddCommit(git.Commit{Hash: "head", When: t0.Add(5 * time.Hour), Subject: "tip", Author: git.AuthorInfo{Name: "Bob"}}, "L", "S")
	m.SetRef("HEAD", "head")

	commits, err := collect.NewCollector(m).Collect(ctx, collect.Options{Author: "Alice"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	result, err := containment.NewEvaluator(m, containment.Options{Workers: 2}).Evaluate(ctx, commits, branches)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return fixture{history: m, groups: variants.GroupBySubject(commits), result: result}
}

var (
	stable = git.BranchRef{Name: "stable", Label: "stable", Tip: "S"}
	dev    = git.BranchRef{Name: "dev", Label: "dev", Tip: "L"}
	old    = git.BranchRef{Name: "old", Label: "old", Tip: "root"}
)

func rowHashes(m *Matrix) []string {
	var out []string
	for _, r := range m.Rows {
		out = append(out, r.Commit.Hash)
	}
	return out
}

func assertRow(t *testing.T, row Row, hash string, contains ...bool) {
	t.Helper()
	if row.Commit.Hash != hash {
		t.Fatalf("expected row %s, got %s", hash, row.Commit.Hash)
	}
	if len(row.Contains) != len(contains) {
		t.Fatalf("row %s: expected %d columns, got %d", hash, len(contains), len(row.Contains))
	}
	for j := range contains {
		if row.Contains[j] != contains[j] {
			t.Errorf("row %s column %d: expected %v, got %v", hash, j, contains[j], row.Contains[j])
		}
	}
}

func TestAssemble_UnionPerGroup(t *testing.T) {
	f := newFixture(t, stable, dev)
	m, err := Assemble(context.Background(), f.groups, f.result, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rowHashes(m))
	}
	// Oldest group first; the representative of "feat: parser" is B.
	assertRow(t, m.Rows[0], "B", true, true)
	assertRow(t, m.Rows[1], "L", false, true)
	if m.Rows[0].GroupSize != 2 || m.Rows[1].GroupSize != 1 {
		t.Errorf("unexpected group sizes: %d, %d", m.Rows[0].GroupSize, m.Rows[1].GroupSize)
	}
	if m.Rows[0].DiffID != "" {
		t.Error("DiffID must only be set in variants mode")
	}
}

func TestAssemble_VariantsPerCommit(t *testing.T) {
	f := newFixture(t, stable, dev)
	m, err := Assemble(context.Background(), f.groups, f.result, Options{Variants: true, Diffs: f.history})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rowHashes(m))
	}
	assertRow(t, m.Rows[0], "A", true, false)
	assertRow(t, m.Rows[1], "B", false, true)
	assertRow(t, m.Rows[2], "L", false, true)

	if m.Rows[0].Group != m.Rows[1].Group {
		t.Error("variants of one subject must share a group")
	}
	if m.Rows[0].DiffID == "" || m.Rows[0].DiffID != m.Rows[1].DiffID {
		t.Errorf("expected equal diff ids for A and B, got %q and %q", m.Rows[0].DiffID, m.Rows[1].DiffID)
	}
	if m.Rows[2].DiffID != "" {
		t.Error("single-member groups carry no diff id")
	}
}

func TestAssemble_ReverseIsExactFlip(t *testing.T) {
	for _, variantsMode := range []bool{false, true} {
		f := newFixture(t, stable, dev)
		fwd, err := Assemble(context.Background(), f.groups, f.result, Options{Variants: variantsMode})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rev, err := Assemble(context.Background(), f.groups, f.result, Options{Variants: variantsMode, Reverse: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fwd.Rows) != len(rev.Rows) {
			t.Fatalf("row count differs: %d vs %d", len(fwd.Rows), len(rev.Rows))
		}
		n := len(fwd.Rows)
		for i := range fwd.Rows {
			a, b := fwd.Rows[i], rev.Rows[n-1-i]
			if a.Commit.Hash != b.Commit.Hash {
				t.Errorf("variants=%v row %d: %s vs %s", variantsMode, i, a.Commit.Hash, b.Commit.Hash)
			}
			for j := range a.Contains {
				if a.Contains[j] != b.Contains[j] {
					t.Errorf("variants=%v row %d column %d differs", variantsMode, i, j)
				}
			}
		}
	}
}

func TestAssemble_Highlight(t *testing.T) {
	f := newFixture(t, stable, dev)
	matcher, err := highlight.NewMatcher("", []string{`JIRA-\d+`})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	m, err := Assemble(context.Background(), f.groups, f.result, Options{Highlight: matcher})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The match is in A's body; B represents the group.
	if !m.Rows[0].Highlight || m.Rows[1].Highlight {
		t.Errorf("unexpected highlight flags: %v, %v", m.Rows[0].Highlight, m.Rows[1].Highlight)
	}

	m, err = Assemble(context.Background(), f.groups, f.result, Options{Highlight: matcher, Variants: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []bool{m.Rows[0].Highlight, m.Rows[1].Highlight, m.Rows[2].Highlight}
	want := []bool{true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected highlight %v, got %v", i, want[i], got[i])
		}
	}
	if len(m.Rows) != 3 {
		t.Errorf("highlighting must not filter rows")
	}
}

func TestAssemble_HideEmpty(t *testing.T) {
	pinnedOld := old
	pinnedOld.Pinned = true

	f := newFixture(t, old, stable, dev)
	m, err := Assemble(context.Background(), f.groups, f.result, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Columns) != 3 {
		t.Fatalf("empty columns are kept by default, got %d", len(m.Columns))
	}

	m, err = Assemble(context.Background(), f.groups, f.result, Options{HideEmpty: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Columns) != 2 || m.Columns[0].Name != "stable" {
		t.Fatalf("expected old to be hidden, got %+v", m.Columns)
	}
	assertRow(t, m.Rows[0], "B", true, true)

	f = newFixture(t, pinnedOld, stable, dev)
	m, err = Assemble(context.Background(), f.groups, f.result, Options{HideEmpty: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Columns) != 3 {
		t.Fatalf("pinned column must survive, got %+v", m.Columns)
	}
	assertRow(t, m.Rows[0], "B", false, true, true)
}

func TestAssemble_DroppedBranchesAreNotColumns(t *testing.T) {
	broken := git.BranchRef{Name: "gone", Label: "gone", Tip: "missing"}
	f := newFixture(t, stable, broken, dev)
	if len(f.result.Failed) != 1 {
		t.Fatalf("expected one failed branch, got %+v", f.result.Failed)
	}
	m, err := Assemble(context.Background(), f.groups, f.result, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Columns) != 2 || m.Columns[1].Name != "dev" {
		t.Fatalf("unexpected columns %+v", m.Columns)
	}
	assertRow(t, m.Rows[1], "L", false, true)
}

func TestAssemble_Empty(t *testing.T) {
	m, err := Assemble(context.Background(), nil, &containment.Result{Branches: []git.BranchRef{dev}}, Options{HideEmpty: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Rows) != 0 || len(m.Columns) != 0 {
		t.Errorf("expected empty matrix, got %+v", m)
	}
}

func TestColumnCounts(t *testing.T) {
	f := newFixture(t, stable, dev)
	m, err := Assemble(context.Background(), f.groups, f.result, Options{Variants: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := m.ColumnCounts()
	if counts[0] != 1 || counts[1] != 2 {
		t.Errorf("expected [1 2], got %v", counts)
	}
}

type failingDiffs struct {
	history *git.MockHistory
	fail    string
}

func (d *failingDiffs) DiffID(ctx context.Context, hash string) (string, error) {
	if hash == d.fail {
		return "", errors.New("object not found")
	}
	return d.history.DiffID(ctx, hash)
}

func TestAssemble_FingerprintFailureWarns(t *testing.T) {
	f := newFixture(t, stable, dev)
	diffs := &failingDiffs{history: f.history, fail: "A"}

	var warnings []error
	m, err := Assemble(context.Background(), f.groups, f.result, Options{
		Variants: true,
		Diffs:    diffs,
		Warn:     func(err error) { warnings = append(warnings, err) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rowHashes(m))
	}
	assertRow(t, m.Rows[0], "A", true, false)
	if m.Rows[0].DiffID != "" {
		t.Errorf("expected empty DiffID for A, got %q", m.Rows[0].DiffID)
	}
	if m.Rows[1].DiffID == "" {
		t.Error("expected DiffID for B")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}
