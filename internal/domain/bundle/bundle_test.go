package bundle

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBundle() *Bundle {
	return &Bundle{
		Timestamp:      time.Date(2025, time.March, 20, 10, 30, 0, 0, time.UTC).UnixMilli(),
		SolarTerm:      "春分",
		HourLabel:      "巳",
		Weekday:        4,
		MoonPhase:      0.6464,
		Longitude:      -74.0060,
		Latitude:       40.7128,
		Timezone:       "UTC",
		OS:             "macOS",
		ConnectionType: "unknown",
		RandomSeed:     strings.Repeat("0", SeedLength),
		MouseEntropy:   0.5,
		ClickCadence:   1,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validBundle().Validate())

	tests := []struct {
		field  string
		mutate func(b *Bundle)
	}{
		{"timestamp", func(b *Bundle) { b.Timestamp = 0 }},
		{"hour_label", func(b *Bundle) { b.HourLabel = "noon" }},
		{"solar_term", func(b *Bundle) { b.SolarTerm = "" }},
		{"weekday", func(b *Bundle) { b.Weekday = 7 }},
		{"moon_phase", func(b *Bundle) { b.MoonPhase = 1 }},
		{"latitude", func(b *Bundle) { b.Latitude = 91 }},
		{"longitude", func(b *Bundle) { b.Longitude = -181 }},
		{"mouse_entropy", func(b *Bundle) { b.MouseEntropy = 1.5 }},
		{"click_cadence", func(b *Bundle) { b.ClickCadence = -1 }},
		{"random_seed", func(b *Bundle) { b.RandomSeed = "abc" }},
		{"random_seed", func(b *Bundle) { b.RandomSeed = strings.Repeat("g", SeedLength) }},
		{"hover_history", func(b *Bundle) { b.HoverHistory = map[string]int64{"OpenAI": -5} }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			b := validBundle()
			tt.mutate(b)

			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBundle))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	var nilBundle *Bundle
	assert.ErrorIs(t, nilBundle.Validate(), ErrInvalidBundle)
}

func TestLocalTime(t *testing.T) {
	b := validBundle()
	assert.Equal(t, 10, b.LocalTime().Hour())

	b.Timezone = "Asia/Shanghai"
	assert.Equal(t, 18, b.LocalTime().Hour())
	assert.Equal(t, "Asia/Shanghai", b.Location().String())

	b.Timezone = "Mars/Olympus_Mons"
	assert.Equal(t, time.UTC, b.Location())
}

func TestWithHoverHistoryCopies(t *testing.T) {
	b := validBundle()
	withHover := b.WithHoverHistory(map[string]int64{"OpenAI": 1200})

	assert.Nil(t, b.HoverHistory)
	assert.Equal(t, int64(1200), withHover.HoverHistory["OpenAI"])
	assert.Equal(t, b.RandomSeed, withHover.RandomSeed)
}

func TestUnknownZonesAreNotCached(t *testing.T) {
	b := validBundle()
	for _, name := range []string{"Nowhere/One", "Nowhere/Two", "Nowhere/Three"} {
		b.Timezone = name
		assert.Equal(t, time.UTC, b.Location())
		_, cached := locations.Load(name)
		assert.False(t, cached, name)
	}

	b.Timezone = "Europe/Paris"
	require.Equal(t, "Europe/Paris", b.Location().String())
	_, cached := locations.Load("Europe/Paris")
	assert.True(t, cached)
}
