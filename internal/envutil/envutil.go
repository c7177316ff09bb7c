package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func Bool(key string) bool {
	return ParseBool(os.Getenv(key))
}

func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// String returns the trimmed value of key, or def when it is unset or blank.
func String(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

// Duration reads key as a Go duration ("45s") or a bare number of seconds.
// Unparseable or non-positive values yield def.
func Duration(key string, def time.Duration) time.Duration {
	return ParseDuration(os.Getenv(key), def)
}

func ParseDuration(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return def
		}
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
