// Package pollfd is the lowest-level primitive the transmission core is
// built on: a readiness check over a small, heterogeneous set of raw OS
// descriptors, used by both abortsignal (to drain its own read end) and
// multiwait (to wait over every destination socket plus the abort
// descriptor at once).
package pollfd

import "syscall"

// Entry is one descriptor to watch for readability, along with the
// readiness result filled in by Poll.
type Entry struct {
	FD    uintptr
	Ready bool
}

// FD extracts the raw descriptor behind anything that exposes a
// syscall.Conn (every *net.TCPConn, *net.UnixConn, and *os.File all do).
// It never detaches the descriptor from the Go runtime's own poller: the
// original value remains usable for ordinary Read/Write calls afterwards,
// since Poll below only ever queries readiness, never consumes it.
func FD(c syscall.Conn) (uintptr, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	ctrlErr := raw.Control(func(f uintptr) { fd = f })
	if ctrlErr != nil {
		return 0, ctrlErr
	}
	return fd, nil
}
