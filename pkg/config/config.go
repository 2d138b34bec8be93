package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// MustNonEmpty aborts startup when a required env var resolved to nothing.
// Services call it after Load so every missing variable is reported against
// its env name rather than surfacing later as a nil secret or a dead DSN.
func MustNonEmpty(v, envName string) {
	if v == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustNonEmptyBytes is MustNonEmpty for secrets kept as byte slices.
func MustNonEmptyBytes(v []byte, envName string) {
	if len(v) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
