package git

import "context"

// HistorySource exposes commit metadata and ancestor containment.
type HistorySource interface {
	// ListCommitsByAuthor returns non-merge commits reachable from opts.Base
	// authored by opts.Author, most recent first.
	ListCommitsByAuthor(ctx context.Context, opts LogOptions) ([]Commit, error)
	// IsAncestor reports whether commit is tip or an ancestor of tip.
	IsAncestor(ctx context.Context, commit, tip string) (bool, error)
	// ResolveRef resolves a revision to a commit hash.
	ResolveRef(ctx context.Context, name string) (string, error)
}

// RefLister lists local and remote-tracking branches.
type RefLister interface {
	ListBranches(ctx context.Context) ([]BranchName, error)
}

// Repository is the full surface the CLI needs from a repository backend.
type Repository interface {
	HistorySource
	RefLister
	// Path returns the repository directory the backend was opened on.
	Path() string
	// DefaultAuthor returns the configured user.name.
	DefaultAuthor(ctx context.Context) (string, error)
	// ConfigValue returns a git config option, e.g. ("contains", "refscript").
	ConfigValue(ctx context.Context, section, key string) (string, bool)
	// DiffID fingerprints a commit's patch independent of its hash.
	DiffID(ctx context.Context, hash string) (string, error)
}

// Open opens the repository at path with the requested backend.
func Open(path string, backend Backend) (Repository, error) {
	switch backend {
	case BackendGitCLI:
		return OpenGitCLI(path)
	default:
		return OpenNative(path)
	}
}

// Compile-time interface conformance checks.
var (
	_ Repository = (*NativeRepository)(nil)
	_ Repository = (*CLIRepository)(nil)
	_ Repository = (*MockHistory)(nil)
)
