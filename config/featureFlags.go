package config

import (
	"os"
	"strings"
	"time"
)

// TimeZone is the timezone check dates are anchored to. Hosts report in UTC;
// the morning checklist is read in office time.
//
// Set via env:
// - TIME_ZONE=Asia/Yangon
func TimeZone() string {
	v := strings.TrimSpace(os.Getenv("TIME_ZONE"))
	if v == "" {
		return "Asia/Yangon"
	}
	return v
}

// DiffCalcDisabled is an ops kill switch for the background diff calculator.
// The rest of the service keeps working; diff_status simply stays unresolved.
//
// Set via env:
// - DIFF_CALC_DISABLED=true
func DiffCalcDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DIFF_CALC_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DiffCalcInterval is how often the diff calculator wakes up.
//
// Set via env:
// - DIFF_CALC_INTERVAL_MINUTES=30
func DiffCalcInterval() time.Duration {
	minutes := intFromEnv("DIFF_CALC_INTERVAL_MINUTES", 30)
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// DiffCalcPageSize bounds how many unresolved rows one transaction touches.
//
// Set via env:
// - DIFF_CALC_PAGE_SIZE=200
func DiffCalcPageSize() int {
	size := intFromEnv("DIFF_CALC_PAGE_SIZE", 200)
	if size <= 0 {
		size = 200
	}
	return size
}
