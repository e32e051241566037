// Package clock exposes the two monotonic nanosecond clocks the supervisor
// measures deadlines against: wall, which keeps advancing while the machine
// sleeps, and active, which does not.
package clock
