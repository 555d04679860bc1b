package config

import (
	"fmt"
	"strings"
	"time"
)

// parseInterval parses interval notation (e.g., "2m", "3h", "7d") into time.Duration
func parseInterval(interval string) (time.Duration, error) {
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid interval format: %s", interval)
	}

	unit := interval[len(interval)-1]
	valueStr := interval[:len(interval)-1]

	// Parse the numeric value
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid interval value: %s", interval)
	}

	if value <= 0 {
		return 0, fmt.Errorf("interval value must be positive: %s", interval)
	}

	switch unit {
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid interval unit (must be m, h, or d): %s", interval)
	}
}

// parseOptionalInterval treats "" and "0" as disabled and otherwise accepts
// a Go duration ("90s", "1h30m") or interval notation ("1d").
func parseOptionalInterval(interval string) (time.Duration, error) {
	interval = strings.TrimSpace(interval)
	if interval == "" || interval == "0" {
		return 0, nil
	}
	if d, err := time.ParseDuration(interval); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("interval must be positive: %s", interval)
		}
		return d, nil
	}
	d, err := parseInterval(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q (use e.g. 30m, 6h, 1d): %w", interval, err)
	}
	return d, nil
}
