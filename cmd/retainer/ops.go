package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/policy"
	"github.com/raoulx24/retainer/internal/retention"
)

// opFlags are shared by the ad-hoc commands.
type opFlags struct {
	age            string
	scope          string
	prune          bool
	include        []string
	followSymlinks bool
	overwrite      bool
	seed           bool
	maxSize        string
}

var (
	deleteFlags  opFlags
	migrateFlags opFlags
	evictFlags   opFlags
	listFlags    opFlags
)

var deleteCmd = &cobra.Command{
	Use:   "delete <root>",
	Short: "Delete files older than --age",
	Example: `  retainer delete /var/tmp/app --age 7d --prune
  retainer delete /var/log/app --age 30d --include '**/*.log'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, p, scope, err := deleteFlags.engine(cmd)
		if err != nil {
			return err
		}
		r, err := e.DeleteExpired(cmd.Context(), args[0], p, scope, deleteFlags.prune)
		printReport(cmd.OutOrStdout(), r)
		return firstErr(err, r)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <source> <target>",
	Short: "Move files older than --age into a mirrored target tree",
	Example: `  retainer migrate /srv/spool /mnt/archive --age 6mo
  retainer migrate /srv/inbox /srv/processed --age 0s --overwrite=false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, p, scope, err := migrateFlags.engine(cmd)
		if err != nil {
			return err
		}
		r, err := e.Migrate(cmd.Context(), args[0], args[1], scope, p)
		printReport(cmd.OutOrStdout(), r)
		return firstErr(err, r)
	},
}

var evictCmd = &cobra.Command{
	Use:     "evict <root>",
	Short:   "Delete the oldest files until root fits in --max-size",
	Example: `  retainer evict /var/cache/app --max-size 10GB --prune`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxBytes, err := config.ParseSize(evictFlags.maxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		e, _, scope, err := evictFlags.engine(cmd)
		if err != nil {
			return err
		}
		r, err := e.Evict(cmd.Context(), args[0], maxBytes, scope, evictFlags.prune)
		printReport(cmd.OutOrStdout(), r)
		return firstErr(err, r)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <root>",
	Short: "List files oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, p, scope, err := listFlags.engine(cmd)
		if err != nil {
			return err
		}
		files, err := e.List(cmd.Context(), args[0], scope)
		if err != nil {
			return err
		}

		now := time.Now()
		out := cmd.OutOrStdout()
		var total uint64
		for _, f := range files {
			mark := " "
			if listFlags.age != "" && p.IsExpired(f.Created, now) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s  %8s  %s\n", mark, f.Created.Format("2006-01-02 15:04:05"), humanize.Bytes(uint64(f.Size)), f.Path)
			total += uint64(f.Size)
		}
		fmt.Fprintf(out, "%d files, %s\n", len(files), humanize.Bytes(total))
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteFlags.age, "age", "", "retention age, e.g. 30d, 6mo, 0s (required)")
	deleteCmd.Flags().BoolVar(&deleteFlags.prune, "prune", false, "remove directories left empty")
	_ = deleteCmd.MarkFlagRequired("age")
	deleteFlags.register(deleteCmd)

	migrateCmd.Flags().StringVar(&migrateFlags.age, "age", "0s", "retention age; 0s moves everything")
	migrateCmd.Flags().BoolVar(&migrateFlags.overwrite, "overwrite", true, "replace existing files in the target")
	migrateCmd.Flags().BoolVar(&migrateFlags.seed, "seed", false, "create a missing source directory")
	migrateFlags.register(migrateCmd)

	evictCmd.Flags().StringVar(&evictFlags.maxSize, "max-size", "", "size limit, e.g. 10GB, 512MiB (required)")
	evictCmd.Flags().BoolVar(&evictFlags.prune, "prune", false, "remove directories left empty")
	_ = evictCmd.MarkFlagRequired("max-size")
	evictFlags.register(evictCmd)

	listCmd.Flags().StringVar(&listFlags.age, "age", "", "mark files older than this age with *")
	listFlags.register(listCmd)

	rootCmd.AddCommand(deleteCmd, migrateCmd, evictCmd, listCmd)
}

func (f *opFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scope, "scope", "all", "all (recurse) or this (top level only)")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "only consider files matching these globs (repeatable)")
	cmd.Flags().BoolVar(&f.followSymlinks, "follow-symlinks", false, "treat symlinks as their targets")
}

// engine builds the engine, policy and scope the flags describe.
func (f *opFlags) engine(cmd *cobra.Command) (*retention.Engine, policy.Policy, retention.Scope, error) {
	var p policy.Policy
	if f.age != "" {
		parsed, err := policy.Parse(f.age)
		if err != nil {
			return nil, p, 0, err
		}
		p = parsed
	}

	scope, err := retention.ParseScope(f.scope)
	if err != nil {
		return nil, p, 0, err
	}

	e, err := retention.New(nil, cliLogger(cmd)).WithOptions(retention.Options{
		Include:        f.include,
		FollowSymlinks: f.followSymlinks,
		Overwrite:      f.overwrite,
		SeedSource:     f.seed,
	})
	if err != nil {
		return nil, p, 0, err
	}
	return e, p, scope, nil
}

func printReport(out io.Writer, r *retention.Report) {
	if r == nil {
		return
	}
	if r.FilesDeleted > 0 || r.BytesDeleted > 0 {
		fmt.Fprintf(out, "deleted %d files (%s)\n", r.FilesDeleted, humanize.Bytes(uint64(r.BytesDeleted)))
	}
	if r.FilesMoved > 0 || r.DirsCreated > 0 {
		fmt.Fprintf(out, "moved %d files (%s), created %d directories\n", r.FilesMoved, humanize.Bytes(uint64(r.BytesMoved)), r.DirsCreated)
	}
	if r.DirsPruned > 0 {
		fmt.Fprintf(out, "pruned %d empty directories\n", r.DirsPruned)
	}
	if n := r.SkippedLocked + r.SkippedYoung + r.SkippedOther; n > 0 {
		fmt.Fprintf(out, "skipped %d (%d locked, %d too young, %d other)\n", n, r.SkippedLocked, r.SkippedYoung, r.SkippedOther)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(out, "failed: %v\n", f)
	}
	if !r.Changed() && len(r.Failures) == 0 {
		fmt.Fprintln(out, "nothing to do")
	}
}

func firstErr(err error, r *retention.Report) error {
	if err != nil {
		return err
	}
	return r.Err()
}
