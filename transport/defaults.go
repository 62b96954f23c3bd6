// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

// Operational tunables, kept as package-level functions rather than an
// exported struct. None of these are exposed through a CLI flag,
// environment variable, or config file: the transmitter itself has no
// persisted/external configuration surface, only these fixed defaults.

// DefaultReadBufferSize is the most bytes read off one ready destination
// socket in one multiwait wake-up.
func DefaultReadBufferSize() int {
	return 64 * 1024
}

// DefaultWriteFlushRate is the per-destination write-flush rate, in
// flushes per second, applied by the rate-limited buffered writer (see
// writer.go).
func DefaultWriteFlushRate() int {
	return 50
}

// DefaultWriteBufferSize is the per-destination write buffer's capacity.
func DefaultWriteBufferSize() int {
	return 64 * 1024
}

// headerOverheadIPv4 is 20 bytes of IP header, 20 of TCP header, and 2 for
// the RFC 4571 length prefix.
const headerOverheadIPv4 = 20 + 20 + 2
