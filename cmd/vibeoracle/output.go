package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/persistence"
	"github.com/sawpanic/vibeoracle/internal/ranking"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

var (
	podium = []*color.Color{
		color.New(color.FgYellow, color.Bold),
		color.New(color.FgWhite, color.Bold),
		color.New(color.FgRed),
	}
	dim = color.New(color.Faint)
)

type rankOutput struct {
	RemainingRerolls int           `json:"remaining_rerolls"`
	Pass             *ranking.Pass `json:"pass"`
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderPass(w io.Writer, pass *ranking.Pass, remaining, limit, top int, explain bool) {
	mode := "standard"
	if pass.Reroll {
		mode = "reroll"
	}
	fmt.Fprintf(w, "%s pass %s  %s hour, %s  (%s)\n",
		mode, shortID(pass.ID), pass.HourLabel, pass.SolarTerm, pass.Duration.Round(time.Microsecond))

	results := pass.Results
	if top > 0 {
		results = pass.Top(top)
	}

	// Aligned first, colored after, so escape codes do not skew the columns.
	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	header := "#\tCANDIDATE\tMODEL\tSCORE\tBONUS\tRESONANCE"
	if explain {
		header += "\t" + strings.Join(slotNames(), "\t")
	}
	fmt.Fprintln(tw, header)

	for _, r := range results {
		line := fmt.Sprintf("%d\t%s\t%s\t%.2f\t%+.0f\t×%.3f",
			r.Rank, r.Candidate, r.Model, r.Score, r.Breakdown.Bonus.Total(), r.Breakdown.Multiplier)
		if explain {
			for _, s := range slot.All() {
				line += fmt.Sprintf("\t%.1f", r.Breakdown.Raw[s])
			}
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	for i, line := range lines {
		if i > 0 && i <= len(podium) {
			line = podium[i-1].Sprint(line)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, dim.Sprintf("%d/%d rerolls left for %s", remaining, limit, pass.HourLabel))
}

func slotNames() []string {
	names := make([]string, 0, slot.Count)
	for _, s := range slot.All() {
		names = append(names, strings.ToUpper(s.Name()))
	}
	return names
}

func renderCandidates(w io.Writer, profiles []candidate.Profile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tMODEL\tFOUNDED\tHEADQUARTERS\tFOUNDERS")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%04d-%02d-%02d\t%s, %s\t%s\n",
			p.Name, p.Model, p.FoundedYear, p.Month(), p.Day(),
			p.Headquarters.City, p.Headquarters.Country, strings.Join(p.Founders, ", "))
	}
	tw.Flush()
}

func renderHistory(w io.Writer, passes []persistence.PassRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATED\tPASS\tSESSION\tMODE\tLABEL\tWINNER\tSCORE")
	for _, p := range passes {
		mode := "standard"
		if p.Reroll {
			mode = "reroll"
		}
		winner, score := "-", 0.0
		if len(p.Results) > 0 {
			winner, score = p.Results[0].Candidate, p.Results[0].Score
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\n",
			p.GeneratedAt().Format(time.RFC3339), shortID(p.ID), p.SessionID, mode, p.HourLabel, winner, score)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
