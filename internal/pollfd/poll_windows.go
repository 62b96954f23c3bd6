//go:build windows

package pollfd

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Poll is the Windows counterpart of poll_unix.go's Poll, built on
// WSAPoll: Windows sockets need a distinct readiness-wait primitive from
// Unix fds.
func Poll(entries []Entry, timeout time.Duration) (ready int, err error) {
	fds := make([]windows.WSAPollFd, len(entries))
	for i, e := range entries {
		fds[i] = windows.WSAPollFd{Fd: windows.Handle(e.FD), Events: windows.POLLIN}
	}

	ms := int32(-1)
	if timeout >= 0 {
		ms = int32(timeout / time.Millisecond)
	}

	n, perr := windows.WSAPoll(fds, ms)
	if perr != nil {
		return 0, perr
	}

	for i := range fds {
		entries[i].Ready = fds[i].REvents&(windows.POLLIN|windows.POLLHUP|windows.POLLERR) != 0
	}
	return int(n), nil
}

// Available mirrors poll_unix.go's Available using the FIONREAD ioctl on a
// Windows socket handle.
func Available(fd uintptr) (int, error) {
	var n uint32
	var bytesReturned uint32
	err := windows.WSAIoctl(windows.Handle(fd), windows.FIONREAD, nil, 0,
		(*byte)(unsafe.Pointer(&n)), 4, &bytesReturned, nil, 0)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Validate mirrors poll_unix.go's Validate using a SO_TYPE getsockopt.
func Validate(fd uintptr) error {
	_, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_TYPE)
	return err
}
