package dupefind

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseHumanSize parses human-readable size strings (e.g., "4096", "4K", "1.5M", "4G").
// Suffixes are binary multiples. Zero is accepted so it can be used as an exclusive lower bound.
func ParseHumanSize(sizeStr string) (int64, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("empty size string")
	}

	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	// Extract numeric part and suffix
	var numPart string
	var suffix string
	for i, char := range sizeStr {
		if char >= '0' && char <= '9' || char == '.' {
			numPart += string(char)
		} else {
			suffix = strings.TrimSpace(sizeStr[i:])
			break
		}
	}

	if numPart == "" {
		return 0, fmt.Errorf("no numeric part in size string: %s", sizeStr)
	}

	num, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part in size string %s: %w", sizeStr, err)
	}

	var multiplier float64 = 1
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB", "KI", "KIB":
		multiplier = 1 << 10
	case "M", "MB", "MI", "MIB":
		multiplier = 1 << 20
	case "G", "GB", "GI", "GIB":
		multiplier = 1 << 30
	case "T", "TB", "TI", "TIB":
		multiplier = 1 << 40
	default:
		return 0, fmt.Errorf("unknown size suffix: %s", suffix)
	}

	result := num * multiplier
	if result >= math.MaxInt64 {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}

	return int64(result), nil
}

// FormatHumanSize renders a byte count with binary units, e.g. "4.0 KiB"
func FormatHumanSize(size int64) string {
	num := float64(size)
	for _, unit := range []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi"} {
		if math.Abs(num) < 1024.0 {
			return fmt.Sprintf("%3.1f %sB", num, unit)
		}
		num /= 1024.0
	}
	return fmt.Sprintf("%.1f YiB", num)
}
