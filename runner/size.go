package runner

import (
	"fmt"
	"strconv"
	"strings"
)

// Size stores a byte count, e.g. a memory limit or an observed footprint.
// The underlying uint64 is effective up to EiB.
type Size uint64

// String renders the size at the largest binary unit that keeps the
// mantissa >= 1.
func (s Size) String() string {
	t := uint64(s)
	switch {
	case t < 1<<10:
		return fmt.Sprintf("%d B", t)
	case t < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(t)/float64(1<<10))
	case t < 1<<30:
		return fmt.Sprintf("%.1f MiB", float64(t)/float64(1<<20))
	case t < 1<<40:
		return fmt.Sprintf("%.1f GiB", float64(t)/float64(1<<30))
	default:
		return fmt.Sprintf("%.1f TiB", float64(t)/float64(1<<40))
	}
}

// Set parses the memory-size grammar from spec §6: decimal with binary
// suffix K/M/G/T (optional trailing B), case-insensitive, 1K = 1024.
func (s *Size) Set(str string) error {
	if str == "" {
		return fmt.Errorf("runner: empty size")
	}
	upper := strings.ToUpper(str)
	if strings.HasSuffix(upper, "B") {
		upper = upper[:len(upper)-1]
	}
	if upper == "" {
		return fmt.Errorf("runner: invalid size %q", str)
	}

	factor := 0
	switch upper[len(upper)-1] {
	case 'K':
		factor = 10
		upper = upper[:len(upper)-1]
	case 'M':
		factor = 20
		upper = upper[:len(upper)-1]
	case 'G':
		factor = 30
		upper = upper[:len(upper)-1]
	case 'T':
		factor = 40
		upper = upper[:len(upper)-1]
	}

	t, err := strconv.ParseUint(upper, 10, 64)
	if err != nil {
		return fmt.Errorf("runner: invalid size %q: %w", str, err)
	}
	*s = Size(t << uint(factor))
	return nil
}

// Byte returns size in bytes.
func (s Size) Byte() uint64 { return uint64(s) }

// KiB returns size in KiB.
func (s Size) KiB() uint64 { return uint64(s) >> 10 }

// MiB returns size in MiB.
func (s Size) MiB() uint64 { return uint64(s) >> 20 }

// GiB returns size in GiB.
func (s Size) GiB() uint64 { return uint64(s) >> 30 }

// TiB returns size in TiB.
func (s Size) TiB() uint64 { return uint64(s) >> 40 }
