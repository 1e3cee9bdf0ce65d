package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raoulx24/retainer/internal/journal"
	"github.com/raoulx24/retainer/internal/mailbox"
	"github.com/raoulx24/retainer/internal/worker"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [task...]",
	Short: "Run configured tasks once",
	Long: `Run the named tasks from the config file once, in order, and exit.
Without arguments every configured task runs. Runs are journaled when the
journal is enabled.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var opts []worker.Option
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path, cfg.Journal.Keep)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, worker.WithJournal(store))
	}

	w := worker.New(cfg.Tasks, log, mailbox.New[string, worker.Job](), nil, opts...)

	names := args
	if len(names) == 0 {
		for _, t := range cfg.Tasks {
			names = append(names, t.Name)
		}
	}

	out := cmd.OutOrStdout()
	var errs []error
	for _, name := range names {
		res, err := w.RunTask(cmd.Context(), name, worker.TriggerManual)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r := res.Report
		if r == nil {
			fmt.Fprintf(out, "%s: %s: %v\n", name, res.Status, res.Err)
		} else {
			fmt.Fprintf(out, "%s: %s, %d deleted, %d moved (%s), %d dirs pruned, %d locked, %d failures\n",
				name, res.Status, r.FilesDeleted, r.FilesMoved,
				humanize.Bytes(uint64(r.BytesDeleted+r.BytesMoved)),
				r.DirsPruned, r.SkippedLocked, len(r.Failures))
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("task %q: %w", name, res.Err))
		}
	}
	return errors.Join(errs...)
}
