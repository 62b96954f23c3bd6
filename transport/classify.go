// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"github.com/pion/rtp"

	"github.com/zhiwei1988/JRTPLIB/framing"
)

// classify is the fallback discriminator for a destination that wasn't
// tagged RTP/RTCP by the caller at AddDestination time: peek the
// packet's version bits. An empty payload is tagged Unknown, a payload
// that parses as a version-2 RTP header RTP, and anything else RTCP.
func classify(payload []byte) framing.Kind {
	if len(payload) == 0 {
		return framing.Unknown
	}

	var hdr rtp.Header
	if err := hdr.Unmarshal(payload); err == nil && hdr.Version == 2 {
		return framing.RTP
	}

	// Not a well-formed RTP header; without payload-type help from the
	// session layer there's no stronger signal available, so anything
	// that isn't recognizably RTP is treated as an RTCP candidate.
	return framing.RTCP
}
