package memmonitor

// Interval is the fixed polling cadence from spec §4.7.
const Interval = 100_000_000 // 100ms in nanoseconds

// FootprintReader abstracts the phys_footprint read so tests can supply a
// fake without touching procinfo/cgo.
type FootprintReader func(pid int) (uint64, error)

// Monitor checks one child's footprint against a fixed byte ceiling.
type Monitor struct {
	pid    int
	limit  uint64
	read   FootprintReader
}

// New creates a Monitor for pid with the given byte ceiling. limit == 0
// means monitoring is a no-op (Check never exceeds).
func New(pid int, limitBytes uint64, read FootprintReader) *Monitor {
	return &Monitor{pid: pid, limit: limitBytes, read: read}
}

// Check reads the current footprint and reports whether it exceeds the
// configured limit, along with the observed value for the outcome report.
func (m *Monitor) Check() (exceeded bool, observed uint64, err error) {
	if m.limit == 0 {
		return false, 0, nil
	}
	observed, err = m.read(m.pid)
	if err != nil {
		return false, 0, err
	}
	return observed > m.limit, observed, nil
}

// Limit returns the configured ceiling in bytes.
func (m *Monitor) Limit() uint64 { return m.limit }
