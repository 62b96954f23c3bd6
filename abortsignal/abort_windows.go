//go:build windows

package abortsignal

import "net"

// osSignal is the Windows abort-descriptor pair: a loopback TCP
// connection synthesized by listen/connect/accept on 127.0.0.1, since
// anonymous pipes aren't selectable alongside sockets with WSAPoll. An
// ephemeral listener is bound, the write side connects to it, the read
// side accepts the resulting connection, and the listener is dropped.
type osSignal struct {
	write net.Conn // connect side: Signal writes here
	read  net.Conn // accept side: Drain reads from here
}

func newOSSignal() (platformSignal, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, ErrCantCreate
	}
	defer ln.Close()

	writeSide, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		return nil, ErrCantCreate
	}

	readSide, err := ln.Accept()
	if err != nil {
		writeSide.Close()
		return nil, ErrCantCreate
	}

	return &osSignal{write: writeSide, read: readSide}, nil
}

func (s *osSignal) signal() {
	_, _ = s.write.Write([]byte{'*'})
}

func (s *osSignal) readFD() (uintptr, error) {
	tc, ok := s.read.(*net.TCPConn)
	if !ok {
		return 0, ErrCantCreate
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, err
	}
	return fd, nil
}

func (s *osSignal) readOneByte() error {
	var buf [1]byte
	_, err := s.read.Read(buf[:])
	return err
}

func (s *osSignal) close() error {
	err1 := s.read.Close()
	err2 := s.write.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
