// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/kelindar/rate"

	"github.com/zhiwei1988/JRTPLIB/framing"
)

// destWriter is a per-destination rate-limited buffered writer. It only
// ever writes whole RFC 4571 frames, and serializes the
// length-prefix-then-payload pair under its own mutex so concurrent
// SendRTPData/SendRTCPData calls on the same destination can never
// interleave their frames.
type destWriter struct {
	mu     sync.Mutex
	conn   net.Conn
	buf    *bytes.Buffer
	limit  *rate.Limiter
	maxBuf int
}

func newDestWriter(conn net.Conn) *destWriter {
	return &destWriter{
		conn:   conn,
		buf:    bytes.NewBuffer(make([]byte, 0, DefaultWriteBufferSize())),
		limit:  rate.New(DefaultWriteFlushRate(), time.Second),
		maxBuf: DefaultWriteBufferSize(),
	}
}

// WriteFrame buffers payload as one RFC 4571 frame and flushes it. A send
// with no backlog already waiting always flushes immediately, and every
// call leaves the buffer empty (flushLocked resets it even when the write
// fails), so in practice every call takes that path: frames are never
// held back or coalesced, and the limiter and size checks below are not
// reached.
func (w *destWriter) WriteFrame(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hadBacklog := w.buf.Len() > 0

	if err := framing.WriteFrame(w.buf, payload); err != nil {
		return err
	}

	if !hadBacklog || w.buf.Len() >= w.maxBuf || !w.limit.Limit() {
		return w.flushLocked()
	}
	return nil
}

func (w *destWriter) flushLocked() error {
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := writeFull(w.conn, w.buf.Bytes())
	w.buf.Reset()
	return err
}

func writeFull(w io.Writer, p []byte) (int, error) {
	var nn int
	for len(p) > 0 {
		n, err := w.Write(p)
		nn += n
		if err != nil {
			return nn, err
		}
		p = p[n:]
	}
	return nn, nil
}
