package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var dayWeekDuration = regexp.MustCompile(`^(\d+)([dw])$`)

// ParseSessionTTL parses how long a login session stays valid.
// Supported formats:
//   - "never" or "" - sessions last until logout (returns 0)
//   - "7d", "2w" - days or weeks
//   - any Go duration such as "30m" or "12h"
func ParseSessionTTL(s string) (time.Duration, error) {
	if s == "" || s == "never" {
		return 0, nil
	}

	if dur, err := time.ParseDuration(s); err == nil {
		if dur < 0 {
			return 0, fmt.Errorf("session ttl must not be negative: %s", s)
		}
		return dur, nil
	}

	matches := dayWeekDuration.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid session ttl: %s (use 'never', '7d', '2w', or a Go duration like '12h')", s)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number in session ttl: %s", s)
	}

	switch matches[2] {
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	default:
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	}
}
