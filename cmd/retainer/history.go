package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raoulx24/retainer/internal/journal"
)

var historyLimit int
var historyFailures bool

var historyCmd = &cobra.Command{
	Use:   "history [task]",
	Short: "Show recent runs from the journal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyFailures, "failures", false, "list per-file failures under each run")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return errors.New("journal is disabled in the config")
	}

	store, err := journal.Open(cfg.Journal.Path, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	task := ""
	if len(args) == 1 {
		task = args[0]
	}
	runs, err := store.Recent(cmd.Context(), task, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTASK\tTRIGGER\tSTATUS\tDURATION\tDELETED\tMOVED\tBYTES\tPRUNED\tFAILURES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%d\t%d\n",
			humanize.Time(r.Started),
			r.Task,
			r.Trigger,
			r.Status,
			r.Finished.Sub(r.Started).Round(time.Millisecond),
			r.FilesDeleted,
			r.FilesMoved,
			humanize.Bytes(uint64(r.BytesDeleted+r.BytesMoved)),
			r.DirsPruned,
			len(r.Failures),
		)
		if r.Error != "" {
			fmt.Fprintf(tw, "\terror: %s\n", r.Error)
		}
		if historyFailures {
			for _, f := range r.Failures {
				fmt.Fprintf(tw, "\t%s %s: %s\n", f.Op, f.Path, f.Error)
			}
		}
	}
	return tw.Flush()
}
