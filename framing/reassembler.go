// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package framing

import (
	"encoding/binary"
	"errors"
	"io"
)

// Errors surfaced by ProcessReadable. Both are protocol-level: the caller
// is expected to drop the destination, not retry.
var (
	// ErrConnectionClosed means the peer closed the stream (a zero-byte
	// read), whether mid-length or mid-payload.
	ErrConnectionClosed = errors.New("framing: connection closed")
	// ErrOversizedFrame means the decoded length prefix exceeds the
	// reassembler's configured maximum packet size.
	ErrOversizedFrame = errors.New("framing: oversized frame")
)

// Reassembler is the per-socket state machine that turns a stream of
// arbitrary-sized reads into whole RFC 4571 frames. Its invariants:
//
//	lenOff < 2  => dataBuf == nil && dataOff == 0
//	lenOff == 2 => dataLen is decoded and 0 <= dataOff <= dataLen
//
// A frame is complete iff lenOff == 2 && dataOff == dataLen; Take then
// resets the machine back to lenOff == 0.
type Reassembler struct {
	maxPackSize int

	lenBuf [2]byte
	lenOff int

	dataLen int
	dataOff int
	dataBuf []byte
}

// NewReassembler returns a Reassembler that rejects frames longer than
// maxPackSize.
func NewReassembler(maxPackSize int) *Reassembler {
	return &Reassembler{maxPackSize: maxPackSize}
}

// ProcessReadable drives the state machine using up to available bytes
// read from r. It stops as soon as one frame completes, returning
// complete == true and the number of bytes actually consumed from the
// available budget -- it does not eagerly start the next frame, so the
// caller can call it again with the remaining budget to harvest
// back-to-back frames delivered in the same readable wake-up (the "two
// frames in one buffer" case).
//
// ProcessReadable must only be called with available > 0.
func (s *Reassembler) ProcessReadable(r io.Reader, available int) (complete bool, consumed int, err error) {
	for consumed < available {
		if s.lenOff < 2 {
			toRead := 2 - s.lenOff
			if budget := available - consumed; toRead > budget {
				toRead = budget
			}
			n, rerr := r.Read(s.lenBuf[s.lenOff : s.lenOff+toRead])
			consumed += n
			if n == 0 {
				return false, consumed, readErr(rerr)
			}
			s.lenOff += n
			if s.lenOff == 2 {
				dataLen := int(binary.BigEndian.Uint16(s.lenBuf[:]))
				if dataLen > s.maxPackSize {
					return false, consumed, ErrOversizedFrame
				}
				s.dataLen = dataLen
				s.dataOff = 0
				s.dataBuf = make([]byte, dataLen)
			}
			continue
		}

		if s.dataOff == s.dataLen {
			return true, consumed, nil
		}

		toRead := s.dataLen - s.dataOff
		if budget := available - consumed; toRead > budget {
			toRead = budget
		}
		n, rerr := r.Read(s.dataBuf[s.dataOff : s.dataOff+toRead])
		consumed += n
		if n == 0 {
			return false, consumed, readErr(rerr)
		}
		s.dataOff += n
	}

	if s.lenOff == 2 && s.dataOff == s.dataLen {
		return true, consumed, nil
	}
	return false, consumed, nil
}

func readErr(rerr error) error {
	if rerr == nil || rerr == io.EOF {
		return ErrConnectionClosed
	}
	return rerr
}

// Take returns the payload of a completed frame and resets the machine.
// Calling it when no frame is complete returns nil.
func (s *Reassembler) Take() []byte {
	if !(s.lenOff == 2 && s.dataOff == s.dataLen) {
		return nil
	}
	buf := s.dataBuf
	s.Reset()
	return buf
}

// Reset zeroes the machine's state, discarding any partially assembled
// frame. dataBuf, if any, is dropped for GC rather than harvested.
func (s *Reassembler) Reset() {
	s.lenOff = 0
	s.dataLen = 0
	s.dataOff = 0
	s.dataBuf = nil
}
