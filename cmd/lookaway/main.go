// Package main provides the CLI entrypoint for lookaway.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/drneuraldog/lookaway/internal/app"
	"github.com/drneuraldog/lookaway/internal/core/schedule"
	"github.com/drneuraldog/lookaway/internal/monitor/useractivity"
	"github.com/drneuraldog/lookaway/internal/notify"
	"github.com/drneuraldog/lookaway/internal/platform"
	"github.com/drneuraldog/lookaway/internal/storage"
)

var (
	flagVerbose       bool
	flagNoNotify      bool
	flagIdleThreshold time.Duration
	flagHistoryLast   int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lookaway",
		Short:         "Break reminder daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the break scheduling daemon",
		RunE:  runDaemonCmd,
	}
	runCmd.Flags().BoolVar(&flagNoNotify, "no-notify", false, "disable desktop notifications")
	runCmd.Flags().DurationVar(&flagIdleThreshold, "idle-after", 5*time.Minute,
		"restart the work countdown after this much user inactivity")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect the configured schedule",
	}
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective work/break cycles",
		RunE:  showScheduleCmd,
	})

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent breaks",
		RunE:  showHistoryCmd,
	}
	historyCmd.Flags().IntVar(&flagHistoryLast, "last", 20, "number of breaks to print")

	rootCmd.AddCommand(runCmd, scheduleCmd, historyCmd)
	return rootCmd
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func runDaemonCmd(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	guard, err := platform.AcquireSingleInstance(app.AppName)
	if err != nil {
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	schedulePath, err := storage.SchedulePath(app.AppName)
	if err != nil {
		return err
	}

	history, err := openHistory()
	if err != nil {
		logger.Warn().Err(err).Msg("break history unavailable")
		history = nil
	} else {
		defer func() {
			_ = history.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("schedule", schedulePath).Msg("starting lookaway")
	return app.Run(ctx, app.Options{
		TickInterval: time.Second,
		SchedulePath: schedulePath,
		Thresholds: []useractivity.Threshold{
			{Kind: useractivity.KindKeyUp, Idle: flagIdleThreshold},
			{Kind: useractivity.KindLeftMouseUp, Idle: flagIdleThreshold},
		},
		IdleSampler: platform.IdleSampler(),
		Notifier:    notify.New(!flagNoNotify, logger),
		History:     history,
		Log:         logger,
	})
}

func showScheduleCmd(*cobra.Command, []string) error {
	logger := newLogger()
	cycles := storage.LoadSchedule(app.AppName, logger)
	for index, cycle := range cycles {
		fmt.Printf("%d. work %s  break %s\n", index+1,
			schedule.FormatClock(cycle.Work.Seconds()),
			schedule.FormatClock(cycle.Break.Seconds()))
	}
	return nil
}

func showHistoryCmd(cmd *cobra.Command, _ []string) error {
	history, err := openHistory()
	if err != nil {
		return err
	}
	defer func() {
		_ = history.Close()
	}()

	records, err := history.Recent(cmd.Context(), flagHistoryLast)
	if err != nil {
		return err
	}
	totals, err := history.AggregateTotals(cmd.Context())
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Printf("%s  %-9s  %s\n",
			record.EndedAt.Local().Format("2006-01-02 15:04"),
			record.Outcome,
			record.CycleID)
	}
	fmt.Printf("\ncompleted %d  skipped %d\n", totals.Completed, totals.Skipped)
	return nil
}

func openHistory() (*storage.History, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}
	return storage.OpenHistory(filepath.Join(configDir, app.AppName, "history.db"))
}
