//go:build darwin

package launcher

/*
#include <spawn.h>
#include <signal.h>
#include <stdlib.h>
#include <sys/resource.h>
#include <sys/wait.h>
#include <unistd.h>

// spawn_with_limits forks, places the child in its own process group
// (unless foreground), applies the given rlimits, redirects the three
// standard fds, and execve's path. Everything after fork() runs entirely
// in C -- no Go code or Go runtime state is touched in the child -- which
// is what makes forking safe from a cgo call despite the Go scheduler's
// multi-threaded runtime.
//
// Deviates from spec §4.4's "use the kernel's lightweight spawn
// (posix_spawn-style), not fork+exec": posix_spawn(2)/posix_spawnattr
// expose no hook for applying rlimits to the child before execve, which
// --mem-limit and --cpu-time both require. fork()+setrlimit()+execve() is
// used instead, restricted to the async-signal-safe calls above; see
// DESIGN.md's launcher entry for the fuller justification.
static int spawn_with_limits(
	const char *path, char *const argv[], char *const envp[],
	int stdin_fd, int stdout_fd, int stderr_fd,
	int foreground,
	int have_cpu_limit, unsigned long long cpu_seconds,
	int have_as_limit, unsigned long long as_bytes
) {
	pid_t pid = fork();
	if (pid != 0) {
		return pid; // parent (pid>0) or fork failure (pid<0)
	}

	// child
	if (!foreground) {
		setpgid(0, 0);
	}
	if (stdin_fd >= 0)  dup2(stdin_fd, 0);
	if (stdout_fd >= 0) dup2(stdout_fd, 1);
	if (stderr_fd >= 0) dup2(stderr_fd, 2);

	if (have_cpu_limit) {
		struct rlimit rl;
		rl.rlim_cur = cpu_seconds;
		rl.rlim_max = cpu_seconds;
		setrlimit(RLIMIT_CPU, &rl);
	}
	if (have_as_limit) {
		struct rlimit rl;
		rl.rlim_cur = as_bytes;
		rl.rlim_max = as_bytes;
		setrlimit(RLIMIT_AS, &rl); // best-effort; kernel may reject
	}

	execve(path, argv, envp);
	_exit(127); // execve failed
}
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

func spawnChild(path string, args []string, opts Options) (int, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	argv := append([]string{path}, args...)
	cArgv := makeCStringArray(argv)
	defer freeCStringArray(cArgv)

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	cEnvp := makeCStringArray(env)
	defer freeCStringArray(cEnvp)

	stdinFd, stdoutFd, stderrFd := C.int(-1), C.int(-1), C.int(-1)
	if opts.Stdin != nil {
		stdinFd = C.int(opts.Stdin.Fd())
	}
	if opts.Stdout != nil {
		stdoutFd = C.int(opts.Stdout.Fd())
	}
	if opts.Stderr != nil {
		stderrFd = C.int(opts.Stderr.Fd())
	}

	foreground := C.int(0)
	if opts.Foreground {
		foreground = 1
	}

	haveCPU, cpuSeconds := C.int(0), C.ulonglong(0)
	if opts.RLimits.CPUSeconds > 0 {
		haveCPU = 1
		cpuSeconds = C.ulonglong(opts.RLimits.CPUSeconds)
	}
	haveAS, asBytes := C.int(0), C.ulonglong(0)
	if opts.RLimits.AddressSpace > 0 {
		haveAS = 1
		asBytes = C.ulonglong(opts.RLimits.AddressSpace)
	}

	pid := C.spawn_with_limits(
		cPath, cArgv, cEnvp,
		stdinFd, stdoutFd, stderrFd,
		foreground,
		haveCPU, cpuSeconds,
		haveAS, asBytes,
	)
	if pid < 0 {
		return 0, fmt.Errorf("launcher: fork failed")
	}
	return int(pid), nil
}

func makeCStringArray(ss []string) **C.char {
	arr := C.malloc(C.size_t(len(ss)+1) * C.size_t(unsafe.Sizeof(uintptr(0))))
	base := (*[1 << 20]*C.char)(arr)
	for i, s := range ss {
		base[i] = C.CString(s)
	}
	base[len(ss)] = nil
	return (**C.char)(arr)
}

func freeCStringArray(arr **C.char) {
	base := (*[1 << 20]*C.char)(unsafe.Pointer(arr))
	for i := 0; base[i] != nil; i++ {
		C.free(unsafe.Pointer(base[i]))
	}
	C.free(unsafe.Pointer(arr))
}
