//go:build darwin

package procinfo

/*
#include <libproc.h>
#include <stdint.h>

static int call_proc_pid_rusage(int pid, void *buf) {
	return proc_pid_rusage(pid, RUSAGE_INFO_V4, buf);
}
*/
import "C"

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// rusageBufferSize is oversized relative to rusage_info_v4's ~304 bytes
// (16-byte uuid + 36 uint64 fields) to tolerate newer macOS SDKs writing a
// larger v5/v6 struct into the same call.
const rusageBufferSize = 512

const (
	offsetUserTime      = 16
	offsetSystemTime    = 24
	offsetPhysFootprint = 72
)

// Stats is a single proc_pid_rusage snapshot.
type Stats struct {
	PhysFootprintBytes uint64
	CPUTimeNs          uint64 // user + system
}

// Read fetches both the memory footprint and cumulative CPU time for pid in
// one syscall.
func Read(pid int) (Stats, error) {
	buf, err := rusage(pid)
	if err != nil {
		return Stats{}, err
	}
	user := readU64(buf, offsetUserTime)
	sys := readU64(buf, offsetSystemTime)
	return Stats{
		PhysFootprintBytes: readU64(buf, offsetPhysFootprint),
		CPUTimeNs:          saturatingAdd(user, sys),
	}, nil
}

// PhysFootprint returns the child's physical footprint in bytes.
func PhysFootprint(pid int) (uint64, error) {
	s, err := Read(pid)
	if err != nil {
		return 0, err
	}
	return s.PhysFootprintBytes, nil
}

// CPUTimeNs returns cumulative user+system CPU time in nanoseconds.
func CPUTimeNs(pid int) (uint64, error) {
	s, err := Read(pid)
	if err != nil {
		return 0, err
	}
	return s.CPUTimeNs, nil
}

func rusage(pid int) ([rusageBufferSize]byte, error) {
	// 8-byte aligned via the uint64 array backing; the kernel writes the
	// struct as a sequence of u64 fields and expects matching alignment.
	var aligned struct {
		_ [0]uint64
		b [rusageBufferSize]byte
	}
	ret := C.call_proc_pid_rusage(C.int(pid), unsafe.Pointer(&aligned.b[0]))
	if ret < 0 {
		return aligned.b, fmt.Errorf("procinfo: proc_pid_rusage failed for pid %d", pid)
	}
	return aligned.b, nil
}

func readU64(buf [rusageBufferSize]byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(buf[offset : offset+8])
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
