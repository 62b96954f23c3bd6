// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"os"

	"github.com/emitter-io/address"
)

// localHostName backs GetLocalHostName. It tries the OS hostname first
// and falls back to the first non-loopback public address, using
// github.com/emitter-io/address rather than hand-rolling interface
// enumeration, to get a consistent answer across platforms.
func localHostName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	addrs, err := address.GetPublic()
	if err != nil || len(addrs) == 0 {
		return "unknown"
	}
	return addrs[0].IP.String()
}
