// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net"

	"github.com/zhiwei1988/JRTPLIB/framing"
)

// destEntry is everything TCPTransmitter keeps per destination: the
// borrowed connection, the caller's kind tag (RTP/RTCP/Unknown), its
// reassembly state and its rate-limited writer.
type destEntry struct {
	conn   net.Conn
	kind   framing.Kind
	reasm  *framing.Reassembler
	writer *destWriter
}

// destinationSet is the ordered socket-to-entry mapping: a map for O(1)
// lookup/delete-by-key plus a parallel slice that preserves insertion
// order for deterministic iteration.
type destinationSet struct {
	order []net.Conn
	byKey map[net.Conn]*destEntry
}

func newDestinationSet() *destinationSet {
	return &destinationSet{byKey: make(map[net.Conn]*destEntry)}
}

func (s *destinationSet) has(conn net.Conn) bool {
	_, ok := s.byKey[conn]
	return ok
}

func (s *destinationSet) get(conn net.Conn) *destEntry {
	return s.byKey[conn]
}

func (s *destinationSet) add(conn net.Conn, kind framing.Kind, reasm *framing.Reassembler, w *destWriter) {
	e := &destEntry{conn: conn, kind: kind, reasm: reasm, writer: w}
	s.byKey[conn] = e
	s.order = append(s.order, conn)
}

// remove drops conn in O(n); n is the destination count, bounded by the
// number of session participants rather than by packet rate, so the
// linear shift is not on any hot path.
func (s *destinationSet) remove(conn net.Conn) {
	if _, ok := s.byKey[conn]; !ok {
		return
	}
	delete(s.byKey, conn)
	for i, c := range s.order {
		if c == conn {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *destinationSet) clear() {
	s.order = nil
	s.byKey = make(map[net.Conn]*destEntry)
}

func (s *destinationSet) len() int {
	return len(s.order)
}

// conns returns the destinations in insertion order. The returned slice
// is a fresh copy, safe to use after mainMutex is released.
func (s *destinationSet) conns() []net.Conn {
	out := make([]net.Conn, len(s.order))
	copy(out, s.order)
	return out
}

// entries returns a snapshot of the destination entries in insertion
// order, for use by the send path after releasing mainMutex: each
// destWriter serializes its own writes, so the lock need not be held
// across the actual socket I/O.
func (s *destinationSet) entries() []*destEntry {
	out := make([]*destEntry, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, s.byKey[c])
	}
	return out
}
