package collector

import (
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	tabletUA = regexp.MustCompile(`(?i)tablet|ipad|playbook|silk`)
	mobileUA = regexp.MustCompile(`Mobile|iP(hone|od)|Android|BlackBerry|IEMobile|Kindle|Silk-Accelerated|(hpw|web)OS|Opera M(obi|ini)`)
)

// DeviceType classifies a user agent as tablet, mobile or desktop. Android
// without a "mobi" token counts as a tablet.
func DeviceType(ua string) string {
	lower := strings.ToLower(ua)
	if tabletUA.MatchString(ua) || (strings.Contains(lower, "android") && !strings.Contains(lower, "mobi")) {
		return "tablet"
	}
	if mobileUA.MatchString(ua) {
		return "mobile"
	}
	return "desktop"
}

// OS prefers the reported platform and falls back to the user agent.
func OS(platform, ua string) string {
	p := strings.ToLower(platform)
	switch {
	case strings.Contains(p, "mac"):
		return "macOS"
	case strings.Contains(p, "win"):
		return "Windows"
	case strings.Contains(p, "linux"):
		return "Linux"
	}

	switch {
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"), strings.Contains(ua, "iPod"):
		return "iOS"
	case strings.Contains(ua, "Android"):
		return "Android"
	case platform == "" && strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case platform == "" && strings.Contains(ua, "Windows"):
		return "Windows"
	case platform == "" && strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return "Unknown"
}

// Browser checks tokens in precedence order; Chrome user agents also carry
// "Safari" and Opera ones carry "Chrome".
func Browser(ua string) string {
	switch {
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "SamsungBrowser"):
		return "Samsung Browser"
	case strings.Contains(ua, "Opera"), strings.Contains(ua, "OPR"):
		return "Opera"
	case strings.Contains(ua, "Edge"), strings.Contains(ua, "Edg/"):
		return "Edge"
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	}
	return "Unknown"
}

const (
	minPointerSamples = 20
	maxPointerSamples = 100
	neutralEntropy    = 0.5
)

// MouseEntropy is the variance of the turning angle at each interior pointer
// sample divided by 5, capped at 1. Only the last 100 samples count; fewer
// than 20 give the neutral 0.5.
func MouseEntropy(points []Point) float64 {
	if len(points) > maxPointerSamples {
		points = points[len(points)-maxPointerSamples:]
	}
	if len(points) < minPointerSamples {
		return neutralEntropy
	}

	angles := make([]float64, 0, len(points)-2)
	for i := 1; i < len(points)-1; i++ {
		p1, p2, p3 := points[i-1], points[i], points[i+1]
		angles = append(angles, math.Atan2(p3.Y-p2.Y, p3.X-p2.X)-math.Atan2(p1.Y-p2.Y, p1.X-p2.X))
	}

	var mean float64
	for _, a := range angles {
		mean += a
	}
	mean /= float64(len(angles))

	var variance float64
	for _, a := range angles {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(angles))

	return math.Min(1, variance/5)
}

const burstGap = 2 * time.Second

// ClickCadence is clicks per second over the most recent burst, where a burst
// is a run of clicks less than two seconds apart. It is 1 when there were no
// clicks or the last one is two seconds old or more.
func ClickCadence(clicks []int64, now time.Time) float64 {
	if len(clicks) == 0 {
		return 1
	}
	last := clicks[len(clicks)-1]
	count := 1
	for i := len(clicks) - 1; i > 0; i-- {
		if clicks[i]-clicks[i-1] >= burstGap.Milliseconds() {
			break
		}
		count++
	}

	elapsed := now.UnixMilli() - last
	if elapsed >= burstGap.Milliseconds() {
		return 1
	}
	if elapsed < 1 {
		elapsed = 1
	}
	return float64(count) / (float64(elapsed) / 1000)
}
