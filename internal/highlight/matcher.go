// Package highlight marks commits whose messages match a search term or
// configured patterns. Highlighting never filters or reorders rows.
package highlight

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/masmgr/git-contains/internal/git"
)

// Matcher decides whether a commit message is highlighted.
type Matcher struct {
	term     string // lower-cased search term
	patterns []*regexp.Regexp
}

// NewMatcher creates a Matcher from a plain search term and a list of regex
// patterns. Both are case-insensitive; blank entries are ignored.
func NewMatcher(search string, patterns []string) (*Matcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid highlight pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Matcher{term: strings.ToLower(search), patterns: compiled}, nil
}

// Enabled reports whether the matcher can highlight anything.
func (m *Matcher) Enabled() bool {
	return m != nil && (m.term != "" || len(m.patterns) > 0)
}

// Match reports whether text contains the search term or matches a pattern.
func (m *Matcher) Match(text string) bool {
	if !m.Enabled() {
		return false
	}
	if m.term != "" && strings.Contains(strings.ToLower(text), m.term) {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchCommit checks the subject and the full message.
func (m *Matcher) MatchCommit(c *git.Commit) bool {
	return m.Match(c.Subject) || m.Match(c.Message)
}

// MatchAny reports whether any of the commits is highlighted.
func (m *Matcher) MatchAny(commits []*git.Commit) bool {
	for _, c := range commits {
		if m.MatchCommit(c) {
			return true
		}
	}
	return false
}
