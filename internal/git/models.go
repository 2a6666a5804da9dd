package git

import (
	"strings"
	"time"
)

// ShortHashLen is the number of hash characters shown in reports.
const ShortHashLen = 12

// Commit represents a commit collected from the base history.
type Commit struct {
	Hash    string
	When    time.Time // committer date
	Author  AuthorInfo
	Subject string
	Message string
}

// ShortHash returns the abbreviated commit hash.
func (c Commit) ShortHash() string {
	return abbrev(c.Hash, ShortHashLen)
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// Matches reports whether pattern is a substring of the author name or e-mail.
// An empty pattern matches every author.
func (a AuthorInfo) Matches(pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(a.Name, pattern) || strings.Contains(a.Email, pattern)
}

// BranchRef is a resolved containment target.
type BranchRef struct {
	Name   string // resolvable ref or revision
	Label  string // display label
	Tip    string // commit hash the ref points to
	Pinned bool   // keep the column even if it contains nothing
}

// DisplayName returns the label, falling back to the ref name.
func (b BranchRef) DisplayName() string {
	if b.Label != "" {
		return b.Label
	}
	return b.Name
}

// BranchName is a branch reported by a RefLister.
type BranchName struct {
	Name    string // short name, e.g. "main" or "origin/main"
	Remote  bool
	Updated time.Time // committer time of the tip in UTC, zero when unknown
}

// LogOptions configures ListCommitsByAuthor.
type LogOptions struct {
	Base   string    // revision to walk from, HEAD when empty
	Author string    // substring of author name or e-mail
	Since  time.Time // zero disables the window
}

// Backend selects a Repository implementation.
type Backend string

const (
	BackendNative Backend = "native"
	BackendGitCLI Backend = "gitcli"
)

// SubjectOf returns the first line of a commit message.
func SubjectOf(message string) string {
	message = strings.TrimLeft(message, "\r\n")
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		message = message[:idx]
	}
	return strings.TrimRight(message, "\r")
}

func abbrev(hash string, n int) string {
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
