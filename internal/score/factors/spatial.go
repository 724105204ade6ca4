package factors

import (
	"math"

	"github.com/sawpanic/vibeoracle/internal/domain/bundle"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/score/slot"
)

const earthRadiusKm = 6371

// mountains are the 24 compass sectors of 15 degrees starting at north.
var mountains = [24]string{
	"子", "癸", "丑", "艮", "寅", "甲", "卯", "乙", "辰", "巽", "巳", "丙",
	"午", "丁", "未", "坤", "申", "庚", "酉", "辛", "戌", "乾", "亥", "壬",
}

var mountainScores = [24]float64{
	0.9, 0.8, 0.7, 0.8, 0.9, 1.0, 0.9, 0.8, 0.7, 0.8, 0.9, 1.0,
	0.9, 0.8, 0.7, 0.8, 0.9, 1.0, 0.9, 0.8, 0.7, 0.8, 0.9, 1.0,
}

func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := (lon2 - lon1) * math.Pi / 180
	y := math.Sin(dLon) * math.Cos(lat2*math.Pi/180)
	x := math.Cos(lat1*math.Pi/180)*math.Sin(lat2*math.Pi/180) -
		math.Sin(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Cos(dLon)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func mountainIndex(deg float64) int {
	return int(math.Floor((deg+7.5)/15)) % len(mountains)
}

// Spatial scores the direction and distance from the requester to the
// candidate's headquarters together with a flying-star year match.
type Spatial struct{}

func (Spatial) Slot() slot.Slot { return slot.Spatial }

func (Spatial) Score(b *bundle.Bundle, c *candidate.Profile) (float64, error) {
	if err := requireFounded(c); err != nil {
		return 0, err
	}
	hq := c.Headquarters

	sector := mountainScores[mountainIndex(bearing(b.Latitude, b.Longitude, hq.Latitude, hq.Longitude))]

	currentStar := (b.LocalTime().Year()-2020)%9 + 5
	companyStar := (c.FoundedYear-1984)%9 + 1
	star := 1 - math.Abs(float64(currentStar-companyStar))/8

	distance := math.Exp(-haversineKm(b.Latitude, b.Longitude, hq.Latitude, hq.Longitude) / 10000)

	final := star*0.5 + sector*0.3 + distance*0.2
	return slot.Normalize(final, 0.2, 1, 0, 20), nil
}
