package build

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrNoResults is returned when a vendor reports no builds at all.
	ErrNoResults = errors.New("no builds found")
	// ErrNetwork wraps transport failures and unexpected vendor responses.
	ErrNetwork = errors.New("vendor request failed")
	// ErrAuth wraps rejected credentials.
	ErrAuth = errors.New("vendor authentication failed")
)

// Latest returns the highest build number.
func Latest(numbers []int64) (int64, error) {
	if len(numbers) == 0 {
		return 0, ErrNoResults
	}

	return slices.Max(numbers), nil
}

// Next returns latest, or latest+1 when increment is set.
func Next(latest int64, increment bool) int64 {
	if increment {
		return latest + 1
	}

	return latest
}

// ParseNumber parses a vendor build version such as "12".
// Dotted versions like "1.2.3" are not build numbers and report false.
func ParseNumber(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}
