package skills

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/clawkit/clawkit/pkg/logger"
	"github.com/clawkit/clawkit/pkg/opensync"
)

// DefaultDirs returns the workspace skill directories scanned by default:
// the repo-local directory (highest precedence) and the user-global one.
func DefaultDirs() []string {
	dirs := []string{"./.clawkit/skills"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(homeDir, ".clawkit", "skills"))
	}
	return dirs
}

// Dirs returns the configured skill directories (skills.dirs), falling back
// to the defaults.
func Dirs() []string {
	if dirs := viper.GetStringSlice("skills.dirs"); len(dirs) > 0 {
		return dirs
	}
	return DefaultDirs()
}

// OpenSkillsDir returns the configured open-skills checkout directory
// (skills.sync.dir), falling back to the environment/workspace default.
func OpenSkillsDir() string {
	if dir := viper.GetString("skills.sync.dir"); dir != "" {
		return dir
	}
	return opensync.DefaultDir()
}

// Initialize assembles a registry from configuration: it runs the
// open-skills staleness gate (best-effort — a failed sync never blocks the
// scan of what is already on disk), then loads the open-skills checkout and
// the workspace skill directories. Per-entry load failures are logged and
// skipped. Configuration keys: skills.enabled, skills.dirs,
// skills.sync.enabled, skills.sync.repo, skills.sync.interval,
// skills.sync.dir.
func Initialize(ctx context.Context) (*Registry, error) {
	registry := NewRegistry()

	enabled := true
	if viper.IsSet("skills.enabled") {
		enabled = viper.GetBool("skills.enabled")
	}
	if !enabled {
		return registry, nil
	}

	loader := NewLoader(registry)

	syncEnabled := true
	if viper.IsSet("skills.sync.enabled") {
		syncEnabled = viper.GetBool("skills.sync.enabled")
	}
	openDir := OpenSkillsDir()
	if syncEnabled {
		syncOpenSkills(ctx, openDir)
	}

	dirs := append([]string{openDir}, Dirs()...)
	for _, dir := range dirs {
		result, err := loader.LoadDirectory(dir)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Warn("failed to scan skill directory")
			continue
		}
		for _, skipped := range result.Skipped {
			logger.G(ctx).WithError(skipped.Err).WithField("path", skipped.Path).Warn("skipped skill")
		}
		logger.G(ctx).WithField("dir", dir).WithField("count", len(result.Loaded)).Debug("loaded skills")
	}

	return registry, nil
}

func syncOpenSkills(ctx context.Context, openDir string) {
	policyOpts := []opensync.PolicyOption{}
	if interval := viper.GetDuration("skills.sync.interval"); interval > 0 {
		policyOpts = append(policyOpts, opensync.WithInterval(interval))
	}

	syncerOpts := []opensync.SyncerOption{}
	if repo := viper.GetString("skills.sync.repo"); repo != "" {
		syncerOpts = append(syncerOpts, opensync.WithRepoURL(repo))
	}

	syncer := opensync.NewSyncer(opensync.NewPolicy(policyOpts...), syncerOpts...)
	synced, err := syncer.Sync(ctx, openDir)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("dir", openDir).Warn("open-skills sync failed, using existing checkout")
		return
	}
	if synced {
		logger.G(ctx).WithField("dir", openDir).Info("synced open-skills repository")
	}
}
