// Package rlimit applies the kernel resource limits the launcher enforces
// on the child before exec: RLIMIT_CPU from the configured CPU-time cap,
// and a best-effort RLIMIT_AS from the configured memory ceiling.
package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Limits mirrors the subset of setrlimit resources this supervisor cares
// about. AddressSpace is advisory: the kernel may reject or silently ignore
// RLIMIT_AS on some configurations, so memmonitor enforces the memory
// ceiling independently.
type Limits struct {
	CPUSeconds   uint64 // RLIMIT_CPU soft == hard, 0 disables
	AddressSpace uint64 // RLIMIT_AS soft == hard, 0 disables
}

// Entry is one resource/limit pair ready to pass to Setrlimit.
type Entry struct {
	Resource int
	Rlimit   unix.Rlimit
}

// Prepare builds the list of rlimit entries to apply. Order matches the
// order callers should apply them in: CPU before address space.
func (l Limits) Prepare() []Entry {
	var entries []Entry
	if l.CPUSeconds > 0 {
		entries = append(entries, Entry{
			Resource: unix.RLIMIT_CPU,
			Rlimit:   unix.Rlimit{Cur: l.CPUSeconds, Max: l.CPUSeconds},
		})
	}
	if l.AddressSpace > 0 {
		entries = append(entries, Entry{
			Resource: unix.RLIMIT_AS,
			Rlimit:   unix.Rlimit{Cur: l.AddressSpace, Max: l.AddressSpace},
		})
	}
	return entries
}

// Apply calls setrlimit for every prepared entry. AddressSpace failures are
// swallowed (the kernel is free to reject RLIMIT_AS); CPU failures are
// returned since the caller configured it explicitly and expects it to
// take effect.
func Apply(l Limits) error {
	for _, e := range l.Prepare() {
		if err := unix.Setrlimit(e.Resource, &e.Rlimit); err != nil {
			if e.Resource == unix.RLIMIT_AS {
				continue
			}
			return fmt.Errorf("rlimit: setrlimit(%v): %w", e.String(), err)
		}
	}
	return nil
}

func (e Entry) String() string {
	switch e.Resource {
	case unix.RLIMIT_CPU:
		return fmt.Sprintf("CPU[%ds]", e.Rlimit.Cur)
	case unix.RLIMIT_AS:
		return fmt.Sprintf("AddressSpace[%d bytes]", e.Rlimit.Cur)
	default:
		return fmt.Sprintf("Resource(%d)[%d]", e.Resource, e.Rlimit.Cur)
	}
}

func (l Limits) String() string {
	entries := l.Prepare()
	if len(entries) == 0 {
		return "Limits[]"
	}
	s := "Limits["
	for i, e := range entries {
		if i > 0 {
			s += ","
		}
		s += e.String()
	}
	return s + "]"
}
