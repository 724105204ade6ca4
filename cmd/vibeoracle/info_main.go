package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeoracle/internal/app"
	"github.com/sawpanic/vibeoracle/internal/calendar"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	httpapi "github.com/sawpanic/vibeoracle/internal/interfaces/http"
)

func runQuota(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	label, _ := cmd.Flags().GetString("label")
	if label == "" {
		tz, _ := cmd.Flags().GetString("tz")
		loc := time.UTC
		if tz != "" {
			if loc, err = time.LoadLocation(tz); err != nil {
				return fmt.Errorf("unknown time zone %q", tz)
			}
		}
		label = calendar.HourLabel(time.Now().In(loc).Hour())
	}
	if !calendar.IsHourLabel(label) {
		return fmt.Errorf("%q is not an hour label", label)
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	q := a.Quota(sessionID)
	remaining, err := q.Remaining(cmd.Context(), label)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %d/%d rerolls left  (key %s)\n", label, remaining, q.Limit(), q.Key(label))
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	at, _ := cmd.Flags().GetString("at")
	tz, _ := cmd.Flags().GetString("tz")

	resp, err := httpapi.CalendarAt(at, tz, time.Now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instant     %s (%s)\n", resp.At.Format(time.RFC3339), resp.Timezone)
	fmt.Fprintf(out, "Solar term  %s (%s)\n", resp.SolarTerm, resp.Season)
	fmt.Fprintf(out, "Lunar date  %s\n", resp.Lunar)
	fmt.Fprintf(out, "Hour label  %s\n", resp.HourLabel)
	fmt.Fprintf(out, "Weekday     %s\n", time.Weekday(resp.Weekday))
	fmt.Fprintf(out, "Moon phase  %.3f\n", resp.MoonPhase)
	return nil
}

func runCandidates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry := candidate.DefaultRegistry()
	if cfg.Scoring.RegistryFile != "" {
		if registry, _, err = candidate.LoadFile(cfg.Scoring.RegistryFile); err != nil {
			return err
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON || !isTerminal(os.Stdout) {
		return writeJSON(cmd.OutOrStdout(), registry.All())
	}
	renderCandidates(cmd.OutOrStdout(), registry.All())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled; set history.enabled or VIBEORACLE_HISTORY_ENABLED")
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	passes, err := a.History.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if !isTerminal(os.Stdout) {
		return writeJSON(cmd.OutOrStdout(), passes)
	}
	renderHistory(cmd.OutOrStdout(), passes)
	return nil
}
