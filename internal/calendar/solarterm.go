package calendar

import "time"

type marker struct {
	month time.Month
	day   int
	name  string
}

// markers lists the 24 solar terms in calendar order within a year. The dates
// are fixed approximations and do not move between years.
var markers = [24]marker{
	{time.January, 5, "小寒"}, {time.January, 20, "大寒"},
	{time.February, 4, "立春"}, {time.February, 19, "雨水"},
	{time.March, 5, "惊蛰"}, {time.March, 20, "春分"},
	{time.April, 4, "清明"}, {time.April, 20, "谷雨"},
	{time.May, 5, "立夏"}, {time.May, 21, "小满"},
	{time.June, 5, "芒种"}, {time.June, 21, "夏至"},
	{time.July, 7, "小暑"}, {time.July, 23, "大暑"},
	{time.August, 7, "立秋"}, {time.August, 23, "处暑"},
	{time.September, 7, "白露"}, {time.September, 23, "秋分"},
	{time.October, 8, "寒露"}, {time.October, 23, "霜降"},
	{time.November, 7, "立冬"}, {time.November, 22, "小雪"},
	{time.December, 7, "大雪"}, {time.December, 21, "冬至"},
}

// termOrder is the traditional ordering that starts the year at 立春.
var termOrder = [24]string{
	"立春", "雨水", "惊蛰", "春分", "清明", "谷雨",
	"立夏", "小满", "芒种", "夏至", "小暑", "大暑",
	"立秋", "处暑", "白露", "秋分", "寒露", "霜降",
	"立冬", "小雪", "大雪", "冬至", "小寒", "大寒",
}

// Season groups six consecutive solar terms.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

func (s Season) String() string {
	switch s {
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	case Winter:
		return "winter"
	}
	return "unknown"
}

// SolarTerm returns the most recent solar term on or before the date of t,
// evaluated in t's location. Dates before 小寒 fall in the previous year's 冬至.
func SolarTerm(t time.Time) string {
	_, month, day := t.Date()
	name := markers[len(markers)-1].name
	for _, m := range markers {
		if month < m.month || (month == m.month && day < m.day) {
			break
		}
		name = m.name
	}
	return name
}

// SolarTerms returns the 24 term names starting at 立春.
func SolarTerms() []string {
	out := make([]string, len(termOrder))
	copy(out, termOrder[:])
	return out
}

// TermIndex returns the position of term in the 立春-based order, or -1.
func TermIndex(term string) int {
	for i, name := range termOrder {
		if name == term {
			return i
		}
	}
	return -1
}

// IsSolarTerm reports whether term names one of the 24 solar terms.
func IsSolarTerm(term string) bool {
	return TermIndex(term) >= 0
}

// SeasonOf buckets a solar term into its season.
func SeasonOf(term string) (Season, bool) {
	idx := TermIndex(term)
	if idx < 0 {
		return 0, false
	}
	return Season(idx / 6), true
}
