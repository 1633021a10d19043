package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses a "HH:MM" exchange clock into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q: bad minute", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ParseClockDefault parses a clock string or returns the default offset.
func ParseClockDefault(s string, def time.Duration) time.Duration {
	if d, err := ParseClock(s); err == nil {
		return d
	}
	return def
}
