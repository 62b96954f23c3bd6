// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command jrtplib-tcp-demo is a minimal standalone driver for the
// TCP-framed transmission core: it accepts RFC 4571-framed connections on
// a listen address, registers each as a destination, and logs every
// RawPacket the transmitter hands back. It exists to exercise
// transport.TCPTransmitter end to end; a real session layer would call
// the same methods from its own accept loop instead of running this.
package main

import (
	"flag"
	"net"
	"time"

	"github.com/cnotch/xlog"

	"github.com/zhiwei1988/JRTPLIB/diag"
	"github.com/zhiwei1988/JRTPLIB/framing"
	"github.com/zhiwei1988/JRTPLIB/transport"
)

func main() {
	addr := flag.String("listen", ":8554", "address to accept RFC 4571-framed TCP connections on")
	maxPackSize := flag.Int("max-packet-size", 1500, "maximum accepted frame payload size")
	flag.Parse()

	logger := diag.L()

	tr := transport.New()
	if err := tr.Init(true); err != nil {
		logger.Panic(err.Error())
	}
	if err := tr.Create(*maxPackSize, transport.Params{}); err != nil {
		logger.Panic(err.Error())
	}
	defer tr.Destroy()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Panic(err.Error())
	}
	defer ln.Close()

	go acceptLoop(ln, tr, logger)

	logger.With(xlog.Fields(xlog.F("addr", *addr))).Infof("jrtplib-tcp-demo: listening")
	for {
		available, err := tr.WaitForIncomingData(time.Second)
		if err != nil {
			logger.Errorf("wait for incoming data: %v", err)
			continue
		}
		if !available {
			continue
		}
		for {
			pkt, ok := tr.GetNextPacket()
			if !ok {
				break
			}
			logger.With(xlog.Fields(
				xlog.F("kind", pkt.Kind.String()),
				xlog.F("bytes", len(pkt.Payload)),
			)).Infof("jrtplib-tcp-demo: received packet")
		}
	}
}

func acceptLoop(ln net.Listener, tr *transport.TCPTransmitter, logger *xlog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Errorf("accept: %v", err)
			return
		}
		if err := tr.AddDestination(conn, framing.Unknown); err != nil {
			logger.Errorf("add destination: %v", err)
			conn.Close()
			continue
		}
		if err := tr.AbortWait(); err != nil {
			logger.Errorf("abort wait: %v", err)
		}
	}
}
