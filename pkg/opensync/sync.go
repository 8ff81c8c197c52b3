// Package opensync decides when the community open-skills repository is due
// for a refresh and drives the git collaborators that materialize it on
// disk. Sync is best-effort: a failed clone or pull never prevents the skill
// loader from scanning whatever is already there.
package opensync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	// MarkerName is the file whose modification time stamps the last
	// successful sync. Its content is informational only.
	MarkerName = ".last-sync"

	// DefaultInterval is how long a synced repository stays fresh.
	DefaultInterval = 7 * 24 * time.Hour

	// DefaultRepoURL is the community open-skills repository.
	DefaultRepoURL = "https://github.com/clawkit/open-skills.git"

	defaultGitTimeout = 2 * time.Minute

	envDirOverride = "CLAWKIT_OPEN_SKILLS_DIR"
	defaultDir     = ".clawkit/open-skills"
)

// DefaultDir returns the directory the open-skills repository is synced
// into: $CLAWKIT_OPEN_SKILLS_DIR when set, otherwise a workspace-local
// default.
func DefaultDir() string {
	if dir := os.Getenv(envDirOverride); dir != "" {
		return dir
	}
	return defaultDir
}

// Policy is the staleness gate over the sync marker file.
type Policy struct {
	interval time.Duration
	now      func() time.Time
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithInterval overrides the staleness interval.
func WithInterval(interval time.Duration) PolicyOption {
	return func(p *Policy) {
		p.interval = interval
	}
}

// WithNow overrides the policy clock, mainly for tests.
func WithNow(now func() time.Time) PolicyOption {
	return func(p *Policy) {
		p.now = now
	}
}

// NewPolicy creates a staleness policy with the default 7-day interval.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldSync reports whether the repository is due for a refresh: true when
// the marker file is absent or unreadable, or when more than the configured
// interval has passed since its modification time.
func (p *Policy) ShouldSync(repoDir string) bool {
	info, err := os.Stat(filepath.Join(repoDir, MarkerName))
	if err != nil {
		return true
	}
	return p.now().Sub(info.ModTime()) > p.interval
}

// MarkSynced records a successful sync by rewriting the marker file. The
// mtime is the authoritative signal; the content is a human-readable note.
func (p *Policy) MarkSynced(repoDir string) error {
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create repo directory %q", repoDir)
	}
	content := fmt.Sprintf("Last sync: %d\n", p.now().Unix())
	markerPath := filepath.Join(repoDir, MarkerName)
	if err := os.WriteFile(markerPath, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write sync marker %q", markerPath)
	}
	return nil
}

// GitRunner is the git collaborator contract: clone a repository into a
// directory, or pull an existing checkout. Failures propagate to the Syncer,
// which treats them as best-effort.
type GitRunner interface {
	Clone(ctx context.Context, url, dir string) error
	Pull(ctx context.Context, dir string) error
}

// execGit shells out to the git binary with a bounded timeout.
type execGit struct {
	timeout time.Duration
}

func (g *execGit) Clone(ctx context.Context, url, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "failed to clone %s: %s", url, string(output))
	}
	return nil
}

func (g *execGit) Pull(ctx context.Context, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", dir, "pull", "--ff-only")
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "failed to pull %s: %s", dir, string(output))
	}
	return nil
}

// Syncer refreshes the open-skills repository when the policy says it is
// stale.
type Syncer struct {
	policy  *Policy
	repoURL string
	git     GitRunner
	force   bool
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithRepoURL overrides the community repository URL.
func WithRepoURL(url string) SyncerOption {
	return func(s *Syncer) {
		s.repoURL = url
	}
}

// WithGit substitutes the git collaborator, mainly for tests.
func WithGit(git GitRunner) SyncerOption {
	return func(s *Syncer) {
		s.git = git
	}
}

// WithForce makes the next Sync ignore the staleness gate.
func WithForce(force bool) SyncerOption {
	return func(s *Syncer) {
		s.force = force
	}
}

// NewSyncer creates a syncer over the given policy.
func NewSyncer(policy *Policy, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		policy:  policy,
		repoURL: DefaultRepoURL,
		git:     &execGit{timeout: defaultGitTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync refreshes repoDir when it is due: a clone when no checkout exists
// yet, a pull otherwise. The marker is rewritten only after the git
// collaborator succeeds. Returns false when the gate decided no sync was
// needed.
func (s *Syncer) Sync(ctx context.Context, repoDir string) (bool, error) {
	if !s.force && !s.policy.ShouldSync(repoDir) {
		return false, nil
	}

	var err error
	if _, statErr := os.Stat(filepath.Join(repoDir, ".git")); os.IsNotExist(statErr) {
		err = s.git.Clone(ctx, s.repoURL, repoDir)
	} else {
		err = s.git.Pull(ctx, repoDir)
	}
	if err != nil {
		return true, err
	}

	if err := s.policy.MarkSynced(repoDir); err != nil {
		return true, err
	}
	return true, nil
}
