// Package candidate holds the static reference data that every pass ranks:
// the candidate registry and the founder lookup table.
package candidate

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownCandidate is returned when a name is not in the registry.
var ErrUnknownCandidate = errors.New("unknown candidate")

// Headquarters locates a candidate on the globe.
type Headquarters struct {
	City      string  `json:"city" yaml:"city"`
	Country   string  `json:"country" yaml:"country"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
}

// Profile describes one ranked candidate.
type Profile struct {
	Name         string       `json:"name" yaml:"name"`
	Model        string       `json:"model" yaml:"model"`
	FoundedYear  int          `json:"founded_year" yaml:"founded_year"`
	FoundedMonth int          `json:"founded_month,omitempty" yaml:"founded_month"`
	FoundedDay   int          `json:"founded_day,omitempty" yaml:"founded_day"`
	Founders     []string     `json:"founders" yaml:"founders"`
	Headquarters Headquarters `json:"headquarters" yaml:"headquarters"`
}

// Month returns the founding month, defaulting to January.
func (p *Profile) Month() int {
	if p.FoundedMonth == 0 {
		return 1
	}
	return p.FoundedMonth
}

// Day returns the founding day, defaulting to the first.
func (p *Profile) Day() int {
	if p.FoundedDay == 0 {
		return 1
	}
	return p.FoundedDay
}

// Founded is local midnight of the founding date in loc.
func (p *Profile) Founded(loc *time.Location) time.Time {
	return time.Date(p.FoundedYear, time.Month(p.Month()), p.Day(), 0, 0, 0, 0, loc)
}

// Validate rejects profiles the scoring algorithms cannot work with.
func (p *Profile) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("candidate name is required")
	case p.FoundedYear <= 0:
		return fmt.Errorf("candidate %s: founded year is required", p.Name)
	case p.FoundedMonth < 0 || p.FoundedMonth > 12:
		return fmt.Errorf("candidate %s: founded month %d out of range", p.Name, p.FoundedMonth)
	case p.FoundedDay < 0 || p.FoundedDay > 31:
		return fmt.Errorf("candidate %s: founded day %d out of range", p.Name, p.FoundedDay)
	case p.Headquarters.Latitude < -90 || p.Headquarters.Latitude > 90:
		return fmt.Errorf("candidate %s: headquarters latitude out of range", p.Name)
	case p.Headquarters.Longitude < -180 || p.Headquarters.Longitude > 180:
		return fmt.Errorf("candidate %s: headquarters longitude out of range", p.Name)
	}
	return nil
}

// Founder is the static profile of a person listed as a candidate founder.
type Founder struct {
	Name       string  `json:"name" yaml:"name"`
	LifePath   int     `json:"life_path" yaml:"life_path"`
	Element    string  `json:"element" yaml:"element"`
	Zodiac     string  `json:"zodiac,omitempty" yaml:"zodiac"`
	Charisma   float64 `json:"charisma" yaml:"charisma"`
	Innovation float64 `json:"innovation" yaml:"innovation"`
}
