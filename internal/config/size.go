package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSize is returned (wrapped) by ParseSize for unparseable input.
var ErrInvalidSize = errors.New("invalid size")

// sizeUnits maps a trailing unit letter to its binary multiplier.
var sizeUnits = map[byte]int64{
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
}

// ParseSize converts a human-readable size such as "500M" or "10g" into a
// byte count. "0" means no limit. A trailing K, M, G or T (any case)
// multiplies the integer prefix by 1024^1..4; anything else is parsed as a
// plain integer byte count.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "0" {
		return 0, nil
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidSize)
	}

	unit := s[len(s)-1]
	if unit >= 'a' && unit <= 'z' {
		unit -= 'a' - 'A'
	}
	if mult, ok := sizeUnits[unit]; ok {
		n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		if n < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
		}
		if n > (1<<63-1)/mult {
			return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
		}
		return n * mult, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q (use e.g. 500M, 10G or a byte count)", ErrInvalidSize, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, s)
	}
	return n, nil
}
