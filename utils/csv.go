package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitCSV splits a comma-separated list, trims every token and drops empty ones.
// A nil slice is never returned so the result always serializes as a JSON array.
func SplitCSV(s string) []string {
	out := make([]string, 0)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// ParseIDList parses a comma-separated list of integer ids ("1, 2,7").
func ParseIDList(s string) ([]int32, error) {
	toks := SplitCSV(s)
	ids := make([]int32, 0, len(toks))
	for _, tok := range toks {
		n, err := strconv.ParseInt(tok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", tok, err)
		}
		ids = append(ids, int32(n))
	}
	return ids, nil
}
