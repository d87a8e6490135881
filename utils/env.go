package utils

import (
	"os"
	"strconv"
	"strings"
)

// EnvString reads a string env var with a default fallback.
func EnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt reads a non-negative int env var with a default fallback.
func EnvInt(key string, def int) int {
	return ParseIntDefault(os.Getenv(key), def)
}

// ParseIntDefault parses a non-negative int, returning def for anything else.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}
