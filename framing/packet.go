// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package framing implements RFC 4571 length-prefixed framing over a
// stream transport (u16 big-endian length || payload) and the streaming
// reassembler that turns arbitrary TCP segmentation back into whole
// packets.
package framing

import (
	"encoding/binary"
	"io"

	"github.com/zhiwei1988/JRTPLIB/clock"
)

// Kind tags a RawPacket as RTP, RTCP, or, absent a per-connection tag from
// the session layer, Unknown.
type Kind int

// Predefined packet kinds. A TCP destination is usually dedicated to one
// kind by the session layer; Unknown covers the case where no such tag
// was supplied, leaving per-packet classification as the fallback.
const (
	Unknown Kind = iota
	RTP
	RTCP
)

func (k Kind) String() string {
	switch k {
	case RTP:
		return "rtp"
	case RTCP:
		return "rtcp"
	default:
		return "unknown"
	}
}

// RawPacket is an immutable (payload, source, receive time, kind) tuple.
// Source is whatever opaque handle produced the packet; for this
// transport that's the destination's net.Conn, matched to origins by
// handle equality, not address.
type RawPacket struct {
	Payload     []byte
	Source      interface{}
	ReceiveTime clock.Time
	Kind        Kind
}

// WriteFrame writes length-prefixed payload to w: a u16 big-endian length
// followed by the payload bytes, per RFC 4571. len(payload) must fit in a
// uint16; callers enforce the 65535-byte ceiling before calling.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}
