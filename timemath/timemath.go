package timemath

import "math"

// Elapsed returns now-start in nanoseconds. ok is false if now < start,
// which signals a clock anomaly (backwards observation), not a timeout
// overshoot -- callers must treat that as a bug, not clamp to zero.
func Elapsed(start, now uint64) (ns uint64, ok bool) {
	if now < start {
		return 0, false
	}
	return now - start, true
}

// Remaining returns max(0, deadline-now). Overshooting a deadline is
// expected and is not an error, unlike Elapsed's backwards-clock case.
func Remaining(now, deadline uint64) uint64 {
	if now >= deadline {
		return 0
	}
	return deadline - now
}

// DeadlineReached reports whether now has reached or passed deadline.
func DeadlineReached(now, deadline uint64) bool {
	return now >= deadline
}

// Advance adds d to base, saturating at math.MaxUint64 instead of
// wrapping. An overflowing deadline is treated as "never", which is the
// safe direction for a timeout to fail in.
func Advance(base, d uint64) uint64 {
	if base > math.MaxUint64-d {
		return math.MaxUint64
	}
	return base + d
}

// AdjustBack subtracts d from base. ok is false if d > base.
func AdjustBack(base, d uint64) (ns uint64, ok bool) {
	if d > base {
		return 0, false
	}
	return base - d, true
}

// IdleExceeded reports whether now-lastActivity has reached timeout.
// ok is false under the same backwards-clock condition as Elapsed.
func IdleExceeded(lastActivity, now, timeout uint64) (exceeded bool, ok bool) {
	idle, ok := Elapsed(lastActivity, now)
	if !ok {
		return false, false
	}
	return idle >= timeout, true
}

// RemainingIdle returns the nanoseconds left before the idle timeout
// fires, 0 if already exceeded. ok mirrors IdleExceeded's clock check.
func RemainingIdle(lastActivity, now, timeout uint64) (ns uint64, ok bool) {
	idle, ok := Elapsed(lastActivity, now)
	if !ok {
		return 0, false
	}
	if idle >= timeout {
		return 0, true
	}
	return timeout - idle, true
}
