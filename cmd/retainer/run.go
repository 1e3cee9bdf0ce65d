package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/journal"
	"github.com/raoulx24/retainer/internal/logging"
	"github.com/raoulx24/retainer/internal/mailbox"
	"github.com/raoulx24/retainer/internal/metrics"
	"github.com/raoulx24/retainer/internal/scheduler"
	"github.com/raoulx24/retainer/internal/watcher"
	"github.com/raoulx24/retainer/internal/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the retention daemon",
	Long: `Run the retention daemon.

Scheduled tasks are fired by cron and executed one at a time. The config file
is reloaded on SIGHUP and, when configReload is enabled, whenever it changes
on disk. Metrics and journal settings take effect on restart.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mailbox for task runs, one slot per task
	mb := mailbox.New[string, worker.Job]()

	var opts []worker.Option
	var wg sync.WaitGroup

	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(cfg.Metrics.Namespace, nil)
		opts = append(opts, worker.WithMetrics(collector))

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("serving metrics", "listen", cfg.Metrics.Listen)
			if err := collector.Serve(ctx, cfg.Metrics.Listen); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path, cfg.Journal.Keep)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, worker.WithJournal(store))
	}

	// Worker (executes tasks pulled from the mailbox)
	w := worker.New(cfg.Tasks, log, mb, nil, opts...)

	// Scheduler (fires tasks into the mailbox)
	sched := scheduler.New(func(task string) {
		if err := w.Submit(task, worker.TriggerCron); err != nil {
			log.Warn("cannot queue scheduled task", "task", task, "error", err)
		}
	}, log)
	if err := sched.Update(cfg.Tasks); err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()
	sched.Start(ctx)

	d := &daemon{log: log, worker: w, sched: sched}

	// Watcher (reloads config when the file changes)
	if cfg.ConfigReload.Enabled {
		d.watch = watcher.New(cfgFile, cfg.ConfigReload, log, func() { d.reload(ctx) })
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.watch.Start(ctx); err != nil {
				log.Error("config watcher failed", "error", err)
			}
		}()
	}

	// Hot reload on SIGHUP
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				d.reload(ctx)
			}
		}
	}()

	log.Info("retainer started", "tasks", len(cfg.Tasks), "scheduled", sched.Len())

	<-ctx.Done()
	log.Info("shutting down...")
	sched.Stop()
	wg.Wait()
	log.Info("exit complete")
	return nil
}

// daemon holds what a config reload touches.
type daemon struct {
	mu     sync.Mutex
	log    *logging.SlogLogger
	worker *worker.Worker
	sched  *scheduler.Scheduler
	watch  *watcher.Watcher
}

func (d *daemon) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		d.log.Error("config reload failed, keeping current config", "error", err)
		return
	}
	d.apply(cfg)
}

func (d *daemon) apply(cfg *config.Config) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := d.log.SetLevel(level); err != nil {
		d.log.Warn("invalid log level", "level", level, "error", err)
	}

	d.worker.UpdateConfig(cfg.Tasks)
	if err := d.sched.Update(cfg.Tasks); err != nil {
		d.log.Error("rescheduling failed", "error", err)
	}
	if d.watch != nil {
		d.watch.UpdateConfig(cfg.ConfigReload)
	}

	d.log.Info("config reloaded", "tasks", len(cfg.Tasks), "scheduled", d.sched.Len())
}
