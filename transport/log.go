// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net"

	"github.com/cnotch/xlog"
)

// xFields builds the structured fields attached to an error hook's log
// line via logger.With(xlog.Fields(...)), rather than interpolating the
// address into the message string.
func xFields(conn net.Conn) xlog.Option {
	addr := "unknown"
	if conn != nil && conn.RemoteAddr() != nil {
		addr = conn.RemoteAddr().String()
	}
	return xlog.Fields(xlog.F("destination", addr))
}
