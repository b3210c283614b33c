package server

import (
	"strconv"
	"strings"
)

func parseOptionalInt64(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parsePathID parses a positive integer path parameter.
func parsePathID(value string) (int64, bool) {
	parsed, err := parseOptionalInt64(value)
	if err != nil || parsed == nil || *parsed <= 0 {
		return 0, false
	}
	return *parsed, true
}
