// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package abortsignal implements a selectable descriptor pair that lets a
// blocking multi-socket wait be interrupted by another thread. On
// POSIX-style systems it's a pipe; on Windows it's a loopback TCP pair,
// since anonymous pipes there aren't selectable alongside sockets. See
// abort_unix.go / abort_windows.go.
package abortsignal

import (
	"errors"
	"sync"
	"time"

	"github.com/zhiwei1988/JRTPLIB/internal/pollfd"
)

// Errors returned by Init and Signal/Drain when used out of order.
var (
	ErrAlreadyInitialized = errors.New("abortsignal: already initialized")
	ErrNotInitialized     = errors.New("abortsignal: not initialized")
	ErrCantCreate         = errors.New("abortsignal: cannot create abort descriptors")
)

// Signal is an abort-descriptor pair: writing to the write side makes the
// read side readable, waking up anything waiting on it.
type Signal struct {
	mu   sync.Mutex
	init bool
	impl platformSignal
}

// New returns an unitialized Signal; call Init before use.
func New() *Signal {
	return &Signal{}
}

// Init creates the underlying kernel objects. Calling Init twice without
// an intervening Destroy is an error.
func (s *Signal) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.init {
		return ErrAlreadyInitialized
	}
	impl, err := newPlatformSignal()
	if err != nil {
		return err
	}
	s.impl = impl
	s.init = true
	return nil
}

// Signal writes one byte to the write side. Failures (would-block,
// already-signalled) are silently ignored: the invariant is "at least one
// byte will be in-flight when Signal returns, or was already in-flight."
func (s *Signal) Signal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return ErrNotInitialized
	}
	s.impl.signal()
	return nil
}

// ReadFD returns the raw descriptor for the read side, for use with
// multiwait.Wait.
func (s *Signal) ReadFD() (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return 0, ErrNotInitialized
	}
	return s.impl.readFD()
}

// Drain reads one byte at a time off the read side, using a zero-timeout
// poll between reads, until the read side is no longer ready. It is
// idempotent and never blocks, mirroring the reference implementation's
// ClearAbortSignal.
func (s *Signal) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return ErrNotInitialized
	}

	for {
		fd, err := s.impl.readFD()
		if err != nil {
			return err
		}
		entries := []pollfd.Entry{{FD: fd}}
		if _, err := pollfd.Poll(entries, 0); err != nil {
			return err
		}
		if !entries[0].Ready {
			return nil
		}
		if err := s.impl.readOneByte(); err != nil {
			return nil
		}
	}
}

// Destroy closes both descriptors. Double-destroy is a no-op.
func (s *Signal) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return nil
	}
	err := s.impl.close()
	s.init = false
	s.impl = nil
	return err
}

// platformSignal is implemented by abort_unix.go (a pipe) and
// abort_windows.go (a loopback TCP pair).
type platformSignal interface {
	signal()
	readFD() (uintptr, error)
	readOneByte() error
	close() error
}

func newPlatformSignal() (platformSignal, error) {
	return newOSSignal()
}

// waitReadable blocks up to timeout waiting for fd to become readable; used
// only by tests that want to assert on Drain's effect without depending on
// multiwait (whose own tests use this package).
func waitReadable(fd uintptr, timeout time.Duration) (bool, error) {
	entries := []pollfd.Entry{{FD: fd}}
	_, err := pollfd.Poll(entries, timeout)
	if err != nil {
		return false, err
	}
	return entries[0].Ready, nil
}
