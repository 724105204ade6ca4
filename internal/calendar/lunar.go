package calendar

import (
	"math"
	"time"
)

// LunarDate carries display strings for the approximate lunar calendar date.
type LunarDate struct {
	Year  string `json:"year" yaml:"year"`
	Month string `json:"month" yaml:"month"`
	Day   string `json:"day" yaml:"day"`
}

var lunarMonths = [12]string{"正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "腊月"}

var lunarDays = [30]string{
	"初一", "初二", "初三", "初四", "初五", "初六", "初七", "初八", "初九", "初十",
	"十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八", "十九", "二十",
	"廿一", "廿二", "廿三", "廿四", "廿五", "廿六", "廿七", "廿八", "廿九", "三十",
}

// Lunar approximates the lunar date of t. The sexagenary year turns over at
// 立春, the month follows the solar-term month and the day is the moon's age.
// It is a display approximation, not an astronomical conversion.
func Lunar(t time.Time) LunarDate {
	year := t.Year()
	if _, month, day := t.Date(); month < time.February || (month == time.February && day < 4) {
		year--
	}
	cycle := ((year-4)%60 + 60) % 60

	month := TermIndex(SolarTerm(t)) / 2

	age := int(math.Floor(MoonPhase(t) * synodicMonth))
	if age > len(lunarDays)-1 {
		age = len(lunarDays) - 1
	}

	return LunarDate{
		Year:  Stems[cycle%10] + Branches[cycle%12] + "年",
		Month: lunarMonths[month],
		Day:   lunarDays[age],
	}
}

// String renders the date the way it is shown to users.
func (d LunarDate) String() string {
	return d.Year + d.Month + d.Day
}
