//go:build darwin

package clock

/*
#include <mach/mach_time.h>

static unsigned long long wall_now(void) {
	return mach_continuous_time();
}

static unsigned long long active_now(void) {
	return mach_absolute_time();
}

static int get_timebase(unsigned int *numer, unsigned int *denom) {
	mach_timebase_info_data_t info;
	kern_return_t kr = mach_timebase_info(&info);
	if (kr != 0) {
		return -1;
	}
	*numer = info.numer;
	*denom = info.denom;
	return 0;
}
*/
import "C"

import (
	"fmt"
	"math/bits"
)

var timebaseNumer, timebaseDenom uint64

func init() {
	var numer, denom C.uint
	if C.get_timebase(&numer, &denom) != 0 || denom == 0 {
		// mach_timebase_info failing is an internal error we cannot
		// recover from: every deadline computation depends on it.
		panic(fmt.Errorf("clock: mach_timebase_info failed"))
	}
	timebaseNumer = uint64(numer)
	timebaseDenom = uint64(denom)
}

func ticksToNanos(ticks uint64) uint64 {
	if timebaseNumer == timebaseDenom {
		return ticks
	}
	// ticks * numer / denom computed in two widened steps to avoid
	// overflow for large uptimes; numer/denom are small integers in
	// practice (1/1 on Apple Silicon, 125/3 on older Intel Macs).
	hi, lo := bits.Mul64(ticks, timebaseNumer)
	q, _ := bits.Div64(hi, lo, timebaseDenom)
	return q
}

// WallNow returns mach_continuous_time converted to nanoseconds.
func (System) WallNow() uint64 {
	return ticksToNanos(uint64(C.wall_now()))
}

// ActiveNow returns mach_absolute_time converted to nanoseconds.
func (System) ActiveNow() uint64 {
	return ticksToNanos(uint64(C.active_now()))
}
