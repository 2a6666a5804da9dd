package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CLIRepository reads history by running the git executable.
// Every call is a separate process, so it is safe for concurrent use.
type CLIRepository struct {
	path string
}

// OpenGitCLI checks that path is inside a git repository.
func OpenGitCLI(path string) (*CLIRepository, error) {
	if path == "" {
		path = "."
	}
	r := &CLIRepository{path: path}
	if _, err := r.run(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, historyError("open "+path, err)
	}
	return r, nil
}

// Path returns the directory the repository was opened on.
func (r *CLIRepository) Path() string {
	return r.path
}

// ListCommitsByAuthor runs git log on the base revision.
func (r *CLIRepository) ListCommitsByAuthor(ctx context.Context, opts LogOptions) ([]Commit, error) {
	// Each record starts with 0x1e and carries NUL-separated fields; the raw
	// body is last so it may contain anything but those two bytes.
	const format = "%x1e%H%x00%ct%x00%an%x00%ae%x00%B"

	base := strings.TrimSpace(opts.Base)
	if base == "" {
		base = "HEAD"
	}

	args := []string{
		"log",
		"--no-color",
		"--no-merges",
		"--date-order",
		"--pretty=format:" + format,
	}
	if !opts.Since.IsZero() {
		args = append(args, fmt.Sprintf("--since=@%d", opts.Since.Unix()))
	}
	args = append(args, base, "--")

	out, err := r.run(ctx, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, historyError("log "+base, err)
	}

	commits, err := parseLogRecords(out)
	if err != nil {
		return nil, historyError("log "+base, err)
	}

	results := commits[:0]
	for _, c := range commits {
		if !opts.Since.IsZero() && c.When.Before(opts.Since) {
			continue
		}
		if !c.Author.Matches(opts.Author) {
			continue
		}
		results = append(results, c)
	}

	sortMostRecentFirst(results)
	return results, nil
}

// IsAncestor runs git merge-base --is-ancestor.
func (r *CLIRepository) IsAncestor(ctx context.Context, commit, tip string) (bool, error) {
	if commit == tip {
		return true, nil
	}
	_, err := r.run(ctx, "merge-base", "--is-ancestor", commit, tip)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	return false, branchError(tip, err)
}

// ResolveRef resolves name to the commit it points at.
func (r *CLIRepository) ResolveRef(ctx context.Context, name string) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "--end-of-options", name+"^{commit}")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", branchError(name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListBranches runs git for-each-ref over local and remote-tracking branches.
func (r *CLIRepository) ListBranches(ctx context.Context) ([]BranchName, error) {
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname) %(committerdate:raw)", "refs/heads", "refs/remotes")
	if err != nil {
		return nil, historyError("for-each-ref", err)
	}

	var branches []BranchName
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var b BranchName
		switch refname := fields[0]; {
		case strings.HasPrefix(refname, "refs/heads/"):
			b = BranchName{Name: strings.TrimPrefix(refname, "refs/heads/")}
		case strings.HasPrefix(refname, "refs/remotes/"):
			b = BranchName{Name: strings.TrimPrefix(refname, "refs/remotes/"), Remote: true}
			if strings.HasSuffix(b.Name, "/HEAD") {
				continue
			}
		default:
			continue
		}
		// committerdate:raw is "<unix seconds> <offset>", empty for non-commits.
		if len(fields) > 1 {
			if secs, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				b.Updated = time.Unix(secs, 0).UTC()
			}
		}
		branches = append(branches, b)
	}

	sortBranchNames(branches)
	return branches, nil
}

// DefaultAuthor returns git config user.name.
func (r *CLIRepository) DefaultAuthor(ctx context.Context) (string, error) {
	name, ok := r.ConfigValue(ctx, "user", "name")
	if !ok || name == "" {
		return "", fmt.Errorf("user.name is not set")
	}
	return name, nil
}

// ConfigValue returns git config section.key.
func (r *CLIRepository) ConfigValue(ctx context.Context, section, key string) (string, bool) {
	out, err := r.run(ctx, "config", "--get", section+"."+key)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// DiffID fingerprints the output of git show.
func (r *CLIRepository) DiffID(ctx context.Context, hash string) (string, error) {
	out, err := r.run(ctx, "show", "--no-color", "--format=", hash)
	if err != nil {
		return "", historyError("show "+hash, err)
	}
	return Fingerprint(string(out)), nil
}

func (r *CLIRepository) run(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-C", r.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

func parseLogRecords(out []byte) ([]Commit, error) {
	records := bytes.Split(out, []byte{0x1e})
	commits := make([]Commit, 0, len(records))
	for _, rec := range records {
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}
		fields := bytes.SplitN(rec, []byte{0x00}, 5)
		if len(fields) < 5 {
			return nil, fmt.Errorf("unexpected git log record format")
		}
		secs, err := strconv.ParseInt(string(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse committer date: %w", err)
		}
		message := strings.TrimRight(string(fields[4]), "\n")
		commits = append(commits, Commit{
			Hash:    string(fields[0]),
			When:    time.Unix(secs, 0).UTC(),
			Author:  AuthorInfo{Name: string(fields[2]), Email: string(fields[3])},
			Subject: SubjectOf(message),
			Message: message,
		})
	}
	return commits, nil
}
