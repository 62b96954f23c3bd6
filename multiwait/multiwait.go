// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package multiwait is a thin select/poll wrapper returning a readiness
// bitmap over a heterogeneous descriptor set that always includes an
// abort descriptor. It underlies TCPTransmitter.Poll/WaitForIncomingData.
package multiwait

import (
	"time"

	"github.com/zhiwei1988/JRTPLIB/internal/pollfd"
)

// Result is the outcome of a single Wait call.
type Result struct {
	// Ready holds one bool per watched descriptor (excluding the abort
	// descriptor), in the order the descriptors were passed in.
	Ready []bool
	// AbortReady reports whether the abort descriptor was readable. If a
	// wake-up was caused solely by the abort descriptor, Ready is all
	// false and AbortReady is true.
	AbortReady bool
}

// Wait watches descs (in order) plus abortFD for readability, for up to
// timeout. A timeout of zero performs a pure poll; a negative timeout
// blocks indefinitely. EINTR and similar transient failures are folded
// into "nothing ready yet" rather than surfaced as an error; the caller
// simply re-arms the wait on its next call.
func Wait(descs []uintptr, abortFD uintptr, timeout time.Duration) (Result, error) {
	entries := make([]pollfd.Entry, len(descs)+1)
	for i, fd := range descs {
		entries[i] = pollfd.Entry{FD: fd}
	}
	entries[len(descs)] = pollfd.Entry{FD: abortFD}

	if _, err := pollfd.Poll(entries, timeout); err != nil {
		return Result{}, err
	}

	res := Result{Ready: make([]bool, len(descs))}
	for i := range descs {
		res.Ready[i] = entries[i].Ready
	}
	res.AbortReady = entries[len(descs)].Ready
	return res, nil
}

// Available returns how many bytes are immediately readable on fd without
// consuming them, bounding how much framing.Reassembler.ProcessReadable may
// read in a single pass.
func Available(fd uintptr) (int, error) {
	return pollfd.Available(fd)
}
