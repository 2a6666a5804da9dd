// Package variants groups commits that carry the same subject line, such as
// a change and its rebased or cherry-picked copies.
package variants

import (
	"sort"

	"github.com/masmgr/git-contains/internal/git"
)

// Group is a set of commits sharing one subject line.
type Group struct {
	Subject string
	// Members are ordered most recent first; Members[0] is the representative.
	Members []*git.Commit
}

// Representative returns the most recent member.
func (g Group) Representative() *git.Commit {
	return g.Members[0]
}

// Size returns the number of members.
func (g Group) Size() int {
	return len(g.Members)
}

// GroupBySubject partitions commits by exact subject equality.
// Members and groups are ordered by timestamp descending; ties keep the
// order of the input slice. Members point into commits.
func GroupBySubject(commits []git.Commit) []Group {
	type pending struct {
		subject string
		members []int // indexes into commits
	}

	bySubject := make(map[string]*pending, len(commits))
	var order []*pending
	for i := range commits {
		p, ok := bySubject[commits[i].Subject]
		if !ok {
			p = &pending{subject: commits[i].Subject}
			bySubject[p.subject] = p
			order = append(order, p)
		}
		p.members = append(p.members, i)
	}

	newer := func(a, b int) bool {
		if !commits[a].When.Equal(commits[b].When) {
			return commits[a].When.After(commits[b].When)
		}
		return a < b
	}

	for _, p := range order {
		sort.Slice(p.members, func(i, j int) bool {
			return newer(p.members[i], p.members[j])
		})
	}
	sort.Slice(order, func(i, j int) bool {
		return newer(order[i].members[0], order[j].members[0])
	})

	groups := make([]Group, len(order))
	for i, p := range order {
		members := make([]*git.Commit, len(p.members))
		for j, idx := range p.members {
			members[j] = &commits[idx]
		}
		groups[i] = Group{Subject: p.subject, Members: members}
	}
	return groups
}
