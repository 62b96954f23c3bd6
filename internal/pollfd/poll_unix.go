//go:build !windows

package pollfd

import (
	"time"

	"golang.org/x/sys/unix"
)

// Poll waits up to timeout for any of entries to become readable, filling
// in Ready on each entry in place. A timeout of zero performs a pure,
// non-blocking poll. A negative timeout blocks indefinitely.
func Poll(entries []Entry, timeout time.Duration) (ready int, err error) {
	fds := make([]unix.PollFd, len(entries))
	for i, e := range entries {
		fds[i] = unix.PollFd{Fd: int32(e.FD), Events: unix.POLLIN}
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	n, perr := unix.Poll(fds, ms)
	if perr != nil {
		if perr == unix.EINTR {
			return 0, nil
		}
		return 0, perr
	}

	for i := range fds {
		entries[i].Ready = fds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
	}
	return n, nil
}

// Available returns the number of bytes immediately readable on fd without
// consuming them, via the FIONREAD ioctl. Used to bound how much
// framing.Reassembler.ProcessReadable is allowed to read in one pass.
func Available(fd uintptr) (int, error) {
	return unix.IoctlGetInt(int(fd), unix.TIOCINQ)
}

// Validate is the benign sockopt query AddDestination uses to reject a
// bad handle before it's ever wired into a destinationSet: a plain
// SO_TYPE getsockopt, which fails cleanly on a closed or never-valid
// descriptor without touching any buffered data.
func Validate(fd uintptr) error {
	_, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_TYPE)
	return err
}
