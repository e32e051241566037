package sigforward

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Forwarded are the signals the supervisor watches for and relays to the
// child's process group.
var Forwarded = []os.Signal{
	syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGUSR1, syscall.SIGUSR2,
}

// Hub funnels the fixed signal set into a single channel for the
// supervision loop to select on. A signal arriving before the loop drains
// the previous one is coalesced -- last-write-wins, same as the
// specification's one-byte self-pipe.
type Hub struct {
	raw chan os.Signal
	ch  chan unix.Signal

	once sync.Once
	done chan struct{}
}

// New installs the handler and starts funneling into ch. Installation is
// idempotent per Hub; callers wanting a process-wide singleton should keep
// one Hub for the process lifetime, matching the specification's one-shot
// initializer.
func New() *Hub {
	h := &Hub{
		raw:  make(chan os.Signal, 8),
		ch:   make(chan unix.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(h.raw, Forwarded...)
	go h.pump()
	return h
}

func (h *Hub) pump() {
	for {
		select {
		case sig, ok := <-h.raw:
			if !ok {
				return
			}
			n := signalNumber(sig)
			select {
			case h.ch <- n:
			default:
				select {
				case <-h.ch:
				default:
				}
				h.ch <- n
			}
		case <-h.done:
			return
		}
	}
}

// C returns the channel the supervision loop selects on. Values are the
// most recently received forwarded signal; reads drain it like the
// specification's self-pipe byte.
func (h *Hub) C() <-chan unix.Signal {
	return h.ch
}

// Stop restores default disposition for the forwarded set and tears down
// the pump goroutine.
func (h *Hub) Stop() {
	h.once.Do(func() {
		signal.Stop(h.raw)
		close(h.done)
	})
}

func signalNumber(sig os.Signal) unix.Signal {
	if s, ok := sig.(syscall.Signal); ok {
		return unix.Signal(s)
	}
	return 0
}
