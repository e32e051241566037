package parse

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// Duration parses the grammar from spec §6: decimal integer or fraction,
// optional suffix us/µs/ms/s/m/h/d (case-insensitive, default seconds).
// "0" disables a timeout, returned as a zero Duration. Fixed-point integer
// math only -- no float parsing -- mirrors the original implementation's
// nanosecond fixed-point approach, extended with the us/ms suffixes the
// specification adds on top of it.
func Duration(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("parse: empty duration")
	}

	numPart, suffix := splitNumberSuffix(s)
	if numPart == "" {
		return 0, fmt.Errorf("parse: no numeric value in %q", input)
	}

	nanosFixed, err := parseDecimalToNanos(numPart)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}

	var multiplier uint64
	switch strings.ToLower(suffix) {
	case "", "s":
		multiplier = uint64(time.Second)
	case "us", "µs", "μs": // "us", "µs" (micro sign), "μs" (Greek mu)
		multiplier = uint64(time.Microsecond)
	case "ms":
		multiplier = uint64(time.Millisecond)
	case "m":
		multiplier = uint64(time.Minute)
	case "h":
		multiplier = uint64(time.Hour)
	case "d":
		multiplier = 24 * uint64(time.Hour)
	default:
		return 0, fmt.Errorf("parse: invalid duration suffix %q", suffix)
	}

	total, err := mulDivNanos(nanosFixed, multiplier)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if total > math.MaxInt64 {
		return 0, fmt.Errorf("parse: duration %q overflows", input)
	}
	return time.Duration(total), nil
}

// parseDecimalToNanos renders a decimal string (integer or fraction) as
// fixed-point nanoseconds: "1.5" -> 1_500_000_000.
func parseDecimalToNanos(s string) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative duration %q", s)
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	_ = hasFrac

	var intVal uint64
	if intPart != "" {
		v, err := strconv.ParseUint(intPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		intVal = v
	}

	var fracVal uint64
	if fracPart != "" {
		buf := []byte("000000000")
		n := len(fracPart)
		if n > 9 {
			n = 9
		}
		for i := 0; i < n; i++ {
			c := fracPart[i]
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid number %q", s)
			}
			buf[i] = c
		}
		v, err := strconv.ParseUint(string(buf), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", s)
		}
		fracVal = v
	}

	const scale = 1_000_000_000
	hi, lo := bits.Mul64(intVal, scale)
	if hi != 0 {
		return 0, fmt.Errorf("duration %q overflows", s)
	}
	sum := lo + fracVal
	if sum < lo {
		return 0, fmt.Errorf("duration %q overflows", s)
	}
	return sum, nil
}

// mulDivNanos computes nanosFixed*multiplier/1e9 without overflowing a
// uint64 intermediate, using a 128-bit multiply/divide.
func mulDivNanos(nanosFixed, multiplier uint64) (uint64, error) {
	hi, lo := bits.Mul64(nanosFixed, multiplier)
	const divisor = 1_000_000_000
	if hi >= divisor {
		return 0, fmt.Errorf("duration overflows")
	}
	q, _ := bits.Div64(hi, lo, divisor)
	return q, nil
}

func splitNumberSuffix(s string) (numPart, suffix string) {
	runes := []rune(s)
	i := len(runes)
	for i > 0 {
		r := runes[i-1]
		if (r >= '0' && r <= '9') || r == '.' {
			break
		}
		i--
	}
	return string(runes[:i]), string(runes[i:])
}
