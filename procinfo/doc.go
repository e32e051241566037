// Package procinfo reads a child process's physical memory footprint and
// cumulative CPU time through Darwin's libproc, using proc_pid_rusage,
// which needs no entitlements and works on every macOS version this tool
// targets.
package procinfo
