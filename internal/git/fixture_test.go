package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	alice = &object.Signature{Name: "Alice Example", Email: "alice@example.com"}
	bob   = &object.Signature{Name: "Bob Other", Email: "bob@example.com"}
)

// fixtureRepo is a small history:
//
//	initial (bob, 40 days ago)
//	  └─ A "feat: parser" (alice)       <- stable
//	       └─ B "feat: lexer" (alice)
//	            └─ C "chore: deps" (bob)
//	                 └─ M merge of A (alice)  <- base branch
type fixtureRepo struct {
	dir     string
	repo    *gogit.Repository
	base    string
	initial string
	a, b, c string
	merge   string
	// aWhen is A's commit time, recorded with a +09:00 offset.
	aWhen   time.Time
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	now := time.Now().In(time.FixedZone("JST", 9*60*60)).Truncate(time.Second)
	write := func(rel, content string) {
		t.Helper()
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := wt.Add(rel); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	commit := func(msg string, who *object.Signature, when time.Time, parents ...plumbing.Hash) string {
		t.Helper()
		sig := &object.Signature{Name: who.Name, Email: who.Email, When: when}
		hash, err := wt.Commit(msg, &gogit.CommitOptions{
			Author:            sig,
			Committer:         sig,
			Parents:           parents,
			AllowEmptyCommits: true,
		})
		if err != nil {
			t.Fatalf("Commit(%q): %v", msg, err)
		}
		return hash.String()
	}

	f := &fixtureRepo{dir: dir, repo: repo}

	write("README", "hello\n")
	f.initial = commit("initial", bob, now.AddDate(0, 0, -40))

	write("parser.go", "package parser\n")
	f.aWhen = now.Add(-4 * time.Hour)
	f.a = commit("feat: parser\n\nAdds the parser.", alice, f.aWhen)

	write("lexer.go", "package lexer\n")
	f.b = commit("feat: lexer", alice, now.Add(-3*time.Hour))

	write("go.mod", "module x\n")
	f.c = commit("chore: deps", bob, now.Add(-2*time.Hour))

	f.merge = commit("Merge branch 'stable'", alice, now.Add(-1*time.Hour),
		plumbing.NewHash(f.c), plumbing.NewHash(f.a))

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	f.base = head.Name().Short()

	stable := plumbing.NewHashReference(plumbing.NewBranchReferenceName("stable"), plumbing.NewHash(f.a))
	if err := repo.Storer.SetReference(stable); err != nil {
		t.Fatalf("SetReference(stable): %v", err)
	}
	remote := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "release"), plumbing.NewHash(f.b))
	if err := repo.Storer.SetReference(remote); err != nil {
		t.Fatalf("SetReference(origin/release): %v", err)
	}
	remoteHead := plumbing.NewSymbolicReference(plumbing.NewRemoteHEADReferenceName("origin"), plumbing.NewRemoteReferenceName("origin", "release"))
	if err := repo.Storer.SetReference(remoteHead); err != nil {
		t.Fatalf("SetReference(origin/HEAD): %v", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	cfg.User.Name = "Alice Example"
	cfg.Raw.Section("contains").SetOption("refscript", "/opt/resolve-ref")
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	return f
}
