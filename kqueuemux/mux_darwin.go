//go:build darwin

package kqueuemux

import (
	"fmt"
	"sort"

	"golang.org/x/sys/unix"
)

// Mux owns one kqueue fd for the duration of a single attempt.
type Mux struct {
	kq       int
	identTag map[uintptr]Tag
	nextIdent uintptr
}

// New creates and registers nothing yet; call Register for each event
// source before the first Wait.
func New() (*Mux, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueuemux: kqueue: %w", err)
	}
	return &Mux{kq: kq, identTag: make(map[uintptr]Tag)}, nil
}

// Close releases the kqueue fd.
func (m *Mux) Close() error {
	return unix.Close(m.kq)
}

// RegisterExit arms an EVFILT_PROC/NOTE_EXIT watch on pid.
func (m *Mux) RegisterExit(pid int) error {
	return m.register(uintptr(pid), TagChildExit, unix.Kevent_t{
		Ident:  uint64(pid),
		Filter: unix.EVFILT_PROC,
		Flags:  unix.EV_ADD | unix.EV_ONESHOT,
		Fflags: unix.NOTE_EXIT,
	})
}

// RegisterTimer arms a one-shot nanosecond timer under tag and the
// caller-chosen ident. Calling it again with the same ident re-arms the
// timer (e.g. stdin-idle re-arming on each activity byte); the same ident
// is what Unregister takes to disarm it.
func (m *Mux) RegisterTimer(tag Tag, ident uintptr, durationNs uint64) error {
	return m.register(ident, tag, unix.Kevent_t{
		Ident:  uint64(ident),
		Filter: unix.EVFILT_TIMER,
		Flags:  unix.EV_ADD | unix.EV_ONESHOT,
		Fflags: unix.NOTE_NSECONDS,
		Data:   int64(durationNs),
	})
}

// RegisterRead arms an EVFILT_READ watch on fd under tag.
func (m *Mux) RegisterRead(tag Tag, fd uintptr) error {
	return m.register(fd, tag, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD,
	})
}

// Unregister removes a previously registered read or timer watch. Exit and
// one-shot timer registrations disarm themselves once fired and need no
// explicit unregister.
func (m *Mux) Unregister(tag Tag, ident uintptr, filter int16) error {
	delete(m.identTag, ident)
	kev := unix.Kevent_t{Ident: uint64(ident), Filter: filter, Flags: unix.EV_DELETE}
	_, err := unix.Kevent(m.kq, []unix.Kevent_t{kev}, nil, nil)
	if err != nil {
		return fmt.Errorf("kqueuemux: unregister: %w", err)
	}
	return nil
}

// UnregisterRead removes a read watch registered by RegisterRead, e.g. once
// stdin reports EOF and must stop being polled permanently.
func (m *Mux) UnregisterRead(fd uintptr) error {
	return m.Unregister(TagStdinRead, fd, unix.EVFILT_READ)
}

func (m *Mux) register(ident uintptr, tag Tag, kev unix.Kevent_t) error {
	_, err := unix.Kevent(m.kq, []unix.Kevent_t{kev}, nil, nil)
	if err != nil {
		return fmt.Errorf("kqueuemux: register %v: %w", tag, err)
	}
	m.identTag[ident] = tag
	return nil
}

// Wait blocks until one or more events fire, with zero CPU consumption
// between wake-ups, and returns them sorted by dispatch priority (ascending
// Tag, per spec §5). A nil timeoutNs blocks indefinitely.
func (m *Mux) Wait(timeoutNs *int64) ([]Event, error) {
	var ts *unix.Timespec
	if timeoutNs != nil {
		spec := unix.NsecToTimespec(*timeoutNs)
		ts = &spec
	}

	buf := make([]unix.Kevent_t, 16)
	n, err := unix.Kevent(m.kq, nil, buf, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("kqueuemux: wait: %w", err)
	}

	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		kev := buf[i]
		tag, ok := m.identTag[uintptr(kev.Ident)]
		if !ok {
			continue
		}
		events = append(events, Event{Tag: tag, Ident: uintptr(kev.Ident)})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Tag < events[j].Tag })
	return events, nil
}
