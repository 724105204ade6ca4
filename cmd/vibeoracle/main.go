package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeoracle/internal/config"
	applog "github.com/sawpanic/vibeoracle/internal/log"
)

const (
	appName = "vibeoracle"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	err := newRootCmd().Execute()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// logFile is the rotating log opened by setupLogging, if any.
var logFile io.Closer

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Rank AI model vendors by the vibe of the moment",
		Version: version,
		Long: `vibeoracle ranks a fixed roster of AI model vendors using ten whimsical
sub-scores drawn from the calendar, the requester's device and a random seed.
Standard passes are unlimited; rerolls are limited per hour label.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (trace|debug|info|warn|error)")

	rankCmd := &cobra.Command{
		Use:   "rank",
		Short: "Run one ranking pass",
		Long:  "Assemble a context bundle from flags and the clock, score every candidate and print the ranking",
		RunE:  runRank,
	}
	rankCmd.Flags().AddFlagSet(bundleFlags())
	rankCmd.Flags().Bool("reroll", false, "Consume one reroll for the current hour label")
	rankCmd.Flags().String("session", "cli", "Session scope the reroll quota is charged to")
	rankCmd.Flags().Bool("json", false, "Print JSON instead of a table (default when stdout is not a terminal)")
	rankCmd.Flags().Int("top", 0, "Only print the first N results")
	rankCmd.Flags().Bool("explain", false, "Show per-slot raw scores")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serve the session API, hover websocket, /health and /metrics until interrupted",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "", "Override server.host")
	serveCmd.Flags().Int("port", 0, "Override server.port")

	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Show remaining rerolls",
		RunE:  runQuota,
	}
	quotaCmd.Flags().String("label", "", "Hour label (defaults to the current one)")
	quotaCmd.Flags().String("session", "cli", "Session scope")
	quotaCmd.Flags().String("tz", "", "Time zone used to derive the current label")

	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show solar term, lunar date, hour label and moon phase",
		RunE:  runCalendar,
	}
	calendarCmd.Flags().String("at", "", "RFC 3339 instant (defaults to now)")
	calendarCmd.Flags().String("tz", "", "IANA time zone (defaults to UTC)")

	candidatesCmd := &cobra.Command{
		Use:   "candidates",
		Short: "List the candidate registry",
		RunE:  runCandidates,
	}
	candidatesCmd.Flags().Bool("json", false, "Print JSON")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recently recorded passes",
		Long:  "Read the pass history database (requires history.enabled)",
		RunE:  runHistory,
	}
	historyCmd.Flags().Int("limit", 10, "Number of passes to list")

	rootCmd.AddCommand(rankCmd, serveCmd, quotaCmd, calendarCmd, candidatesCmd, historyCmd)
	return rootCmd
}

// setupLogging replaces the bootstrap console logger with the configured one.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logFile, err = applog.Setup(cfg.Logging, os.Stderr)
	return err
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}
