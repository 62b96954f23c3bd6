// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "errors"

// Sentinel errors compared with errors.Is, grouped by the failure
// category they report: configuration, resource, destination, send, and
// capability errors.
var (
	// Configuration errors.
	ErrAlreadyInitialized = errors.New("transport: already initialized")
	ErrNotInitialized     = errors.New("transport: not initialized")
	ErrNotCreated         = errors.New("transport: not created")

	// Resource errors.
	ErrCantCreateAbortChannel = errors.New("transport: cannot create abort channel")

	// Destination errors.
	ErrBadSocket      = errors.New("transport: bad socket")
	ErrAlreadyPresent = errors.New("transport: destination already present")
	ErrNotFound       = errors.New("transport: destination not found")

	// Send errors.
	ErrTooLong    = errors.New("transport: payload exceeds 65535 bytes")
	ErrOversized  = errors.New("transport: payload exceeds maximum packet size")
	ErrSendFailed = errors.New("transport: send failed on all destinations")

	// Capability errors.
	ErrNotSupported = errors.New("transport: not supported by the TCP transmitter")
)
