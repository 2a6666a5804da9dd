package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// NativeRepository reads history through go-git.
// go-git object access is serialized with a mutex so the evaluator's workers
// can share one repository.
type NativeRepository struct {
	mu   sync.Mutex
	repo *gogit.Repository
	path string
}

// OpenNative opens the repository containing path.
func OpenNative(path string) (*NativeRepository, error) {
	if path == "" {
		path = "."
	}
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, historyError("open "+path, err)
	}
	return &NativeRepository{repo: repo, path: path}, nil
}

// Path returns the directory the repository was opened on.
func (r *NativeRepository) Path() string {
	return r.path
}

// ListCommitsByAuthor walks the base history in committer-time order.
func (r *NativeRepository) ListCommitsByAuthor(ctx context.Context, opts LogOptions) ([]Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := strings.TrimSpace(opts.Base)
	if base == "" {
		base = "HEAD"
	}
	from, err := r.repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return nil, historyError("resolve "+base, err)
	}

	logOpts := &gogit.LogOptions{From: *from, Order: gogit.LogOrderCommitterTime}
	if !opts.Since.IsZero() {
		since := opts.Since
		logOpts.Since = &since
	}

	cIter, err := r.repo.Log(logOpts)
	if err != nil {
		return nil, historyError("log "+base, err)
	}
	defer cIter.Close()

	var results []Commit
	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Merge commits are never collected.
		if c.NumParents() > 1 {
			return nil
		}
		if !opts.Since.IsZero() && c.Committer.When.Before(opts.Since) {
			return nil
		}
		author := AuthorInfo{Name: c.Author.Name, Email: c.Author.Email}
		if !author.Matches(opts.Author) {
			return nil
		}
		results = append(results, Commit{
			Hash:    c.Hash.String(),
			When:    c.Committer.When.UTC(),
			Author:  author,
			Subject: SubjectOf(c.Message),
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, historyError("walk "+base, err)
	}

	sortMostRecentFirst(results)
	return results, nil
}

// IsAncestor reports whether commit is reachable from tip.
func (r *NativeRepository) IsAncestor(ctx context.Context, commit, tip string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return false, historyError("commit "+commit, err)
	}
	t, err := r.repo.CommitObject(plumbing.NewHash(tip))
	if err != nil {
		return false, branchError(tip, err)
	}
	if c.Hash == t.Hash {
		return true, nil
	}
	ok, err := c.IsAncestor(t)
	if err != nil {
		return false, branchError(tip, err)
	}
	return ok, nil
}

// ResolveRef resolves a revision to a commit hash.
func (r *NativeRepository) ResolveRef(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return "", branchError(name, err)
	}
	// Annotated tags resolve to the tag object; peel to the commit.
	if tag, err := r.repo.TagObject(*hash); err == nil {
		c, err := tag.Commit()
		if err != nil {
			return "", branchError(name, err)
		}
		return c.Hash.String(), nil
	}
	if _, err := r.repo.CommitObject(*hash); err != nil {
		return "", branchError(name, err)
	}
	return hash.String(), nil
}

// ListBranches lists local branches and remote-tracking branches.
func (r *NativeRepository) ListBranches(ctx context.Context) ([]BranchName, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := r.repo.References()
	if err != nil {
		return nil, historyError("references", err)
	}
	defer refs.Close()

	var branches []BranchName
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		var b BranchName
		switch {
		case name.IsBranch():
			b = BranchName{Name: name.Short()}
		case name.IsRemote():
			b = BranchName{Name: name.Short(), Remote: true}
			if strings.HasSuffix(b.Name, "/HEAD") {
				return nil
			}
		default:
			return nil
		}
		if c, err := r.repo.CommitObject(ref.Hash()); err == nil {
			b.Updated = c.Committer.When.UTC()
		}
		branches = append(branches, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortBranchNames(branches)
	return branches, nil
}

// DefaultAuthor returns user.name from the local and global git config.
func (r *NativeRepository) DefaultAuthor(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("read git config: %w", err)
	}
	if cfg.User.Name == "" {
		return "", fmt.Errorf("user.name is not set")
	}
	return cfg.User.Name, nil
}

// ConfigValue returns section.key from the local and global git config.
func (r *NativeRepository) ConfigValue(_ context.Context, section, key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil || cfg.Raw == nil || !cfg.Raw.HasSection(section) {
		return "", false
	}
	s := cfg.Raw.Section(section)
	if !s.HasOption(key) {
		return "", false
	}
	return s.Option(key), true
}

// DiffID fingerprints the commit's patch against its first parent.
func (r *NativeRepository) DiffID(ctx context.Context, hash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return "", historyError("commit "+hash, err)
	}

	var patch *object.Patch
	if c.NumParents() == 0 {
		tree, err := c.Tree()
		if err != nil {
			return "", err
		}
		changes, err := object.DiffTreeWithOptions(ctx, nil, tree, object.DefaultDiffTreeOptions)
		if err != nil {
			return "", err
		}
		patch, err = changes.PatchContext(ctx)
		if err != nil {
			return "", err
		}
	} else {
		parent, err := c.Parent(0)
		if err != nil {
			return "", err
		}
		patch, err = parent.PatchContext(ctx, c)
		if err != nil {
			return "", err
		}
	}

	return Fingerprint(patch.String()), nil
}

func sortMostRecentFirst(commits []Commit) {
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].When.After(commits[j].When)
	})
}

func sortBranchNames(branches []BranchName) {
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].Remote != branches[j].Remote {
			return !branches[i].Remote
		}
		return branches[i].Name < branches[j].Name
	})
}
