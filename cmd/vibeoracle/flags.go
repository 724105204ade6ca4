package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/sawpanic/vibeoracle/internal/collector"
	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
)

// bundleFlags are the context overrides shared by commands that build a
// bundle.
func bundleFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bundle", pflag.ContinueOnError)
	fs.String("at", "", "RFC 3339 instant of the pass (defaults to now)")
	fs.String("tz", "", "IANA time zone of the requester (defaults to UTC)")
	fs.String("seed", "", "64 hex character random seed (defaults to a fresh crypto-random seed)")
	fs.Float64("lat", collector.DefaultLatitude, "Latitude of the requester")
	fs.Float64("lon", collector.DefaultLongitude, "Longitude of the requester")
	fs.String("os", "", "Operating system (macOS|Windows|Linux|iOS|Android)")
	fs.String("browser", "", "Browser name")
	fs.String("device", "", "Device type (desktop|mobile|tablet)")
	fs.String("user-agent", "", "User agent to derive os, browser and device from")
	fs.Float64("mouse-entropy", 0.5, "Pointer entropy in [0,1]")
	fs.Float64("click-cadence", 1, "Clicks per second of the last burst")
	fs.StringToInt64("hover", nil, "Hover milliseconds per candidate, e.g. OpenAI=3000,Anthropic=1000")
	return fs
}

// buildBundle assembles a bundle from the bundle flags on fs. now supplies
// the instant when --at is not given.
func buildBundle(fs *pflag.FlagSet, now func() time.Time) (*bundle.Bundle, error) {
	at := now()
	if v, _ := fs.GetString("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("--at must be RFC 3339: %w", err)
		}
		at = parsed
	}

	tz, _ := fs.GetString("tz")
	ua, _ := fs.GetString("user-agent")
	lat, _ := fs.GetFloat64("lat")
	lon, _ := fs.GetFloat64("lon")

	c := collector.New(collector.WithClock(func() time.Time { return at }))
	b, err := c.Collect(collector.ClientSignals{
		Latitude:  &lat,
		Longitude: &lon,
		Timezone:  tz,
		UserAgent: ua,
	})
	if err != nil {
		return nil, err
	}

	if v, _ := fs.GetString("seed"); v != "" {
		b.RandomSeed = v
	}
	if v, _ := fs.GetString("os"); v != "" {
		b.OS = v
	}
	if v, _ := fs.GetString("browser"); v != "" {
		b.Browser = v
	}
	if v, _ := fs.GetString("device"); v != "" {
		b.DeviceType = v
	}
	b.MouseEntropy, _ = fs.GetFloat64("mouse-entropy")
	b.ClickCadence, _ = fs.GetFloat64("click-cadence")
	if hover, _ := fs.GetStringToInt64("hover"); len(hover) > 0 {
		b.HoverHistory = hover
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
