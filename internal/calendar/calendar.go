// Package calendar maps instants onto the traditional time markers used by
// the scoring pipeline: hour labels, solar terms, approximate lunar dates and
// the moon phase.
package calendar

// Stems are the ten heavenly stems in cycle order.
var Stems = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

// Branches are the twelve earthly branches in cycle order. They double as the
// hour labels.
var Branches = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

// HourIndex returns the branch index of the two-hour window containing hour.
// 23:00 starts the 子 window.
func HourIndex(hour int) int {
	return ((hour + 1) % 24) / 2
}

// HourLabel returns the label of the two-hour window containing hour (0-23).
func HourLabel(hour int) string {
	return Branches[HourIndex(hour)]
}

// IsHourLabel reports whether s is one of the twelve hour labels.
func IsHourLabel(s string) bool {
	return BranchIndex(s) >= 0
}

// BranchIndex returns the position of branch in Branches, or -1.
func BranchIndex(branch string) int {
	for i, b := range Branches {
		if b == branch {
			return i
		}
	}
	return -1
}
