package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clawkit/clawkit/pkg/opensync"
	"github.com/clawkit/clawkit/pkg/presenter"
	"github.com/clawkit/clawkit/pkg/skills"
	"github.com/clawkit/clawkit/pkg/tools"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage clawkit skills",
	Long:  `List, inspect, run, and sync skills from the workspace and the open-skills repository.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all loaded skills",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := skills.Initialize(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Shutdown()

		loaded := registry.List()
		if len(loaded) == 0 {
			presenter.Info("No skills found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tTOOLS\tDESCRIPTION\tLOCATION")
		for _, skill := range loaded {
			m := skill.Manifest
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", m.Name, m.Version, len(m.Tools), truncate(m.Description, 60), m.Location)
		}
		return w.Flush()
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Show a skill manifest as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := skills.Initialize(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Shutdown()

		skill, err := registry.Find(args[0])
		if err != nil {
			return err
		}
		out, err := skill.Manifest.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var skillRunCmd = &cobra.Command{
	Use:   "run <skill-name> <tool-name> [args...]",
	Short: "Run a tool declared by a skill",
	Long: `Run a tool declared by a skill. Extra arguments are passed through to the
tool verbatim, space-joined.

Examples:
  clawkit skill run weather fetch
  clawkit skill run git-tools status --porcelain`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := skills.Initialize(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Shutdown()

		skill, err := registry.Find(args[0])
		if err != nil {
			return err
		}

		executor := tools.NewExecutor(executorOptions()...)
		result, err := executor.Execute(cmd.Context(), skill, args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}

		fmt.Print(result.Output)
		if !strings.HasSuffix(result.Output, "\n") {
			fmt.Println()
		}
		if !result.Success {
			return errors.Errorf("tool %q failed with exit code %d", args[1], result.ExitCode)
		}
		return nil
	},
}

var skillPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the assembled skills system prompt",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry, err := skills.Initialize(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Shutdown()

		fmt.Print(skills.SystemPrompt(registry.List()))
		return nil
	},
}

var skillSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the open-skills repository",
	Long:  `Refresh the community open-skills checkout when it is stale, or immediately with --force.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		syncerOpts := []opensync.SyncerOption{opensync.WithForce(force)}
		if repo := viper.GetString("skills.sync.repo"); repo != "" {
			syncerOpts = append(syncerOpts, opensync.WithRepoURL(repo))
		}

		syncer := opensync.NewSyncer(opensync.NewPolicy(), syncerOpts...)
		dir := skills.OpenSkillsDir()
		synced, err := syncer.Sync(cmd.Context(), dir)
		if err != nil {
			return errors.Wrap(err, "sync failed")
		}
		if synced {
			presenter.Success(fmt.Sprintf("Synced open-skills into %s", dir))
		} else {
			presenter.Info("Open-skills checkout is fresh; nothing to do.")
		}
		return nil
	},
}

var skillWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch skill directories and reload changes",
	Long: `Continuously watches the workspace skill directories and keeps the
registry in step: new or edited manifests are reloaded, removed ones are
unregistered. Stops on interrupt.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		registry, err := skills.Initialize(ctx)
		if err != nil {
			return err
		}
		defer registry.Shutdown()

		presenter.Info(fmt.Sprintf("Watching %s (ctrl-c to stop)", strings.Join(skills.Dirs(), ", ")))
		watcher := skills.NewWatcher(registry, skills.Dirs())
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}

func executorOptions() []tools.ExecutorOption {
	var opts []tools.ExecutorOption
	if timeout := viper.GetDuration("tools.timeout"); timeout > 0 {
		opts = append(opts, tools.WithTimeout(timeout))
	}
	if allowed := viper.GetStringSlice("tools.allowed_commands"); len(allowed) > 0 {
		opts = append(opts, tools.WithAllowedCommands(allowed))
	}
	return opts
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	skillSyncCmd.Flags().Bool("force", false, "Sync even when the checkout is fresh")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillRunCmd)
	skillCmd.AddCommand(skillPromptCmd)
	skillCmd.AddCommand(skillSyncCmd)
	skillCmd.AddCommand(skillWatchCmd)
}
