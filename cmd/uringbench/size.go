package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSize parses a size string like "64M", "1G", "512K" or "2T"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "IB")
	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	numStr := s

	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
		numStr = strings.TrimSuffix(s, "G")
	case strings.HasSuffix(s, "T"):
		multiplier = 1 << 40
		numStr = strings.TrimSuffix(s, "T")
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	if num < 0 {
		return 0, fmt.Errorf("negative size %d", num)
	}
	if num > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size %s overflows", s)
	}

	return num * multiplier, nil
}

// formatSize formats a byte count as a short size string that parseSize accepts
// when the count is a whole number of units
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T"}
	if bytes%div == 0 {
		return fmt.Sprintf("%d%s", bytes/div, units[exp])
	}
	return fmt.Sprintf("%.1f%s", float64(bytes)/float64(div), units[exp])
}
