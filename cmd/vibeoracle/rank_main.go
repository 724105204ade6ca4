package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeoracle/internal/app"
)

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	b, err := buildBundle(cmd.Flags(), time.Now)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	reroll, _ := cmd.Flags().GetBool("reroll")
	sessionID, _ := cmd.Flags().GetString("session")
	s := a.NewSession(sessionID)

	pass, err := s.Rank(ctx, b, reroll)
	if err != nil {
		return err
	}
	remaining, err := s.RemainingRerolls(ctx, pass.HourLabel)
	if err != nil {
		return err
	}
	log.Debug().Str("pass", pass.ID).Int("remaining_rerolls", remaining).Msg("Pass complete")

	asJSON, _ := cmd.Flags().GetBool("json")
	top, _ := cmd.Flags().GetInt("top")
	explain, _ := cmd.Flags().GetBool("explain")

	out := cmd.OutOrStdout()
	if asJSON || !isTerminal(os.Stdout) {
		return writeJSON(out, rankOutput{Pass: pass, RemainingRerolls: remaining})
	}
	renderPass(out, pass, remaining, a.Config.Quota.Limit, top, explain)
	return nil
}
