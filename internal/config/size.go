package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadSizeToken is returned when a size token does not match the
// <digits>[K|M|G] grammar.
var ErrBadSizeToken = errors.New("malformed size token")

// sizeTokenPattern accepts bare digits or digits with a single unit suffix.
var sizeTokenPattern = regexp.MustCompile(`^([0-9]+)([KMG]?)$`)

// ParseSize converts a human-readable size token into an exact byte count.
// The suffix is case-insensitive and binary: K is 1024, M is 1024^2,
// G is 1024^3. Bare digits mean bytes.
func ParseSize(token string) (int64, error) {
	matches := sizeTokenPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(token)))
	if matches == nil {
		return 0, fmt.Errorf("%q: %w", token, ErrBadSizeToken)
	}

	value, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", token, ErrBadSizeToken)
	}

	switch matches[2] {
	case "K":
		value <<= 10
	case "M":
		value <<= 20
	case "G":
		value <<= 30
	}

	return value, nil
}
