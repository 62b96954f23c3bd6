// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package transport implements the TCP-framed transmission core: a
// transmitter that multiplexes RTP and RTCP traffic over a set of
// pre-established stream connections, frames packets per RFC 4571, and
// delivers whole packets up to the session layer.
package transport

import (
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/eapache/queue"

	"github.com/zhiwei1988/JRTPLIB/abortsignal"
	"github.com/zhiwei1988/JRTPLIB/clock"
	"github.com/zhiwei1988/JRTPLIB/diag"
	"github.com/zhiwei1988/JRTPLIB/framing"
	"github.com/zhiwei1988/JRTPLIB/internal/pollfd"
	"github.com/zhiwei1988/JRTPLIB/multiwait"
)

// Protocol identifies the wire transport a transmitter speaks. This
// package implements exactly one: TCP.
type Protocol int

// ProtocolTCP is the only Protocol this package's TCPTransmitter reports.
const ProtocolTCP Protocol = iota

// TransmissionInfo summarizes a transmitter's current configuration: its
// protocol, how many destinations it holds, and the maximum packet size
// it will accept.
type TransmissionInfo struct {
	Protocol         Protocol
	DestinationCount int
	MaxPacketSize    int
}

// ErrorHooks lets a caller observe per-destination send/receive failures
// without the transmitter having to know what to do about them: realized
// as a small capability interface rather than inheritance, so a variant
// can auto-remove destinations, tear down a session, or whatever policy
// it needs. A zero-value TCPTransmitter's hooks are a no-op; install
// LoggingHooks (or a custom implementation) via SetErrorHooks to observe
// these failures.
type ErrorHooks interface {
	OnSendError(conn net.Conn, err error)
	OnReceiveError(conn net.Conn, err error)
}

// noopHooks does nothing. It is the default until SetErrorHooks is
// called.
type noopHooks struct{}

func (noopHooks) OnSendError(conn net.Conn, err error)    {}
func (noopHooks) OnReceiveError(conn net.Conn, err error) {}

// LoggingHooks logs send/receive failures through diag and otherwise
// does nothing. It is not installed by default; callers that want this
// behavior opt in with SetErrorHooks(LoggingHooks{}).
type LoggingHooks struct{}

func (LoggingHooks) OnSendError(conn net.Conn, err error) {
	diag.L().With(xFields(conn)).Errorf("transport: send error: %v", err)
}

func (LoggingHooks) OnReceiveError(conn net.Conn, err error) {
	diag.L().With(xFields(conn)).Errorf("transport: receive error: %v", err)
}

// Params configures Create. AbortDescriptors, if supplied, is an
// externally-owned abortsignal.Signal the transmitter waits on instead of
// constructing its own, letting one thread wake several transmitters at
// once. The transmitter never destroys an injected signal.
type Params struct {
	AbortDescriptors *abortsignal.Signal
}

// TCPTransmitter is the orchestrator: it owns the destination set, the
// inbound packet queue, and the mutex discipline that lets
// AddDestination/AbortWait/peer threads progress while one thread is
// blocked in a multi-socket wait.
type TCPTransmitter struct {
	// mainMutex protects every field below except waitMutex itself:
	// destSockets, maxPackSize, the inbound queue, waitingForData.
	mainMutex sync.Mutex
	// waitMutex serializes the wait itself, letting at most one thread be
	// blocked in multiwait.Wait at a time.
	waitMutex sync.Mutex

	initialized bool
	created     bool

	maxPackSize int
	dests       *destinationSet
	inbound     *queue.Queue

	waitingForData bool

	ownAbort   *abortsignal.Signal
	extAbort   *abortsignal.Signal
	abortOwned bool

	hostname     string
	hostnameOnce sync.Once

	hooks ErrorHooks
}

// New returns an uninitialized TCPTransmitter; call Init then Create
// before using it.
func New() *TCPTransmitter {
	return &TCPTransmitter{
		dests:   newDestinationSet(),
		inbound: queue.New(),
		hooks:   noopHooks{},
	}
}

// SetErrorHooks installs h as the OnSendError/OnReceiveError
// implementation, replacing whatever was installed before (a fresh
// TCPTransmitter starts with a silent no-op). Passing nil restores
// silence.
func (t *TCPTransmitter) SetErrorHooks(h ErrorHooks) {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	t.hooks = h
}

// Init prepares the transmitter for Create. Calling Init a second time is
// an error, even after Destroy: Destroy undoes Create, not Init.
func (t *TCPTransmitter) Init(threadsafe bool) error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if t.initialized {
		return ErrAlreadyInitialized
	}
	// threadsafe is accepted for API symmetry with single-threaded
	// transmitter variants; this implementation always serializes through
	// mainMutex/waitMutex regardless of its value, since conditionally
	// skipping a mutex has no benefit in Go and would reintroduce races.
	t.initialized = true
	return nil
}

// Create finishes setup: stores maxPackSize and adopts or creates the
// abort channel. Requires a prior Init. Failure to initialize the owned
// abort channel is fatal to Create and leaves the transmitter in the
// pre-Create state.
func (t *TCPTransmitter) Create(maxPackSize int, params Params) error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}

	if params.AbortDescriptors != nil {
		t.extAbort = params.AbortDescriptors
		t.abortOwned = false
	} else {
		own := abortsignal.New()
		if err := own.Init(); err != nil {
			return ErrCantCreateAbortChannel
		}
		t.ownAbort = own
		t.abortOwned = true
	}

	t.maxPackSize = maxPackSize
	t.created = true
	return nil
}

// Destroy flushes the inbound queue, drops all destinations (releasing
// any partial reassembly buffers) and destroys the owned abort channel,
// leaving an injected one untouched. Idempotent.
func (t *TCPTransmitter) Destroy() error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if !t.created {
		return nil
	}

	t.dests.clear()
	t.inbound = queue.New()

	if t.abortOwned && t.ownAbort != nil {
		t.ownAbort.Destroy()
	}
	t.ownAbort = nil
	t.extAbort = nil
	t.abortOwned = false
	t.created = false
	return nil
}

func (t *TCPTransmitter) activeAbortLocked() *abortsignal.Signal {
	if t.extAbort != nil {
		return t.extAbort
	}
	return t.ownAbort
}

// AddDestination registers conn's reassembly state. kind tags every
// frame completed on this connection RTP or RTCP directly; pass
// framing.Unknown to fall back to per-packet classification. conn is
// validated with a benign sockopt query and rejected if already present;
// the transmitter never closes conn itself.
func (t *TCPTransmitter) AddDestination(conn net.Conn, kind framing.Kind) error {
	if err := validateSocket(conn); err != nil {
		return err
	}

	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if !t.created {
		return ErrNotCreated
	}
	if t.dests.has(conn) {
		return ErrAlreadyPresent
	}

	t.dests.add(conn, kind, framing.NewReassembler(t.maxPackSize), newDestWriter(conn))
	return nil
}

// DeleteDestination removes conn, discarding any partially assembled
// frame. Returns ErrNotFound if conn was never added.
func (t *TCPTransmitter) DeleteDestination(conn net.Conn) error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if !t.dests.has(conn) {
		return ErrNotFound
	}
	t.dests.remove(conn)
	return nil
}

// ClearDestinations removes every destination.
func (t *TCPTransmitter) ClearDestinations() {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	t.dests.clear()
}

// ComesFromThisTransmitter reports whether conn is one of this
// transmitter's destinations.
func (t *TCPTransmitter) ComesFromThisTransmitter(conn net.Conn) bool {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	return t.dests.has(conn)
}

// SetMaximumPacketSize updates the ceiling new reassemblers and sends are
// checked against. Destinations already added keep their existing
// reassembler's limit, since that limit is fixed at AddDestination time.
func (t *TCPTransmitter) SetMaximumPacketSize(n int) error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	if !t.created {
		return ErrNotCreated
	}
	t.maxPackSize = n
	return nil
}

// SendRTPData broadcasts buf, framed per RFC 4571, to every destination
// in insertion order.
func (t *TCPTransmitter) SendRTPData(buf []byte) error {
	return t.send(buf)
}

// SendRTCPData broadcasts buf, framed per RFC 4571, to every destination
// in insertion order. This transport does not distinguish RTP from RTCP
// on the wire; callers that need demultiplexing open separate RTP/RTCP
// connections and tag each destination's Kind at AddDestination time.
func (t *TCPTransmitter) SendRTCPData(buf []byte) error {
	return t.send(buf)
}

func (t *TCPTransmitter) send(buf []byte) error {
	if len(buf) > 65535 {
		return ErrTooLong
	}

	t.mainMutex.Lock()
	if !t.created {
		t.mainMutex.Unlock()
		return ErrNotCreated
	}
	if len(buf) > t.maxPackSize {
		t.mainMutex.Unlock()
		return ErrOversized
	}
	entries := t.dests.entries()
	hooks := t.hooks
	t.mainMutex.Unlock()

	if len(entries) == 0 {
		return nil
	}

	anySuccess := false
	for _, e := range entries {
		if err := e.writer.WriteFrame(buf); err != nil {
			if hooks != nil {
				hooks.OnSendError(e.conn, err)
			}
			continue
		}
		anySuccess = true
	}

	if !anySuccess {
		return ErrSendFailed
	}
	return nil
}

// Poll performs a single non-blocking wait/drain cycle.
func (t *TCPTransmitter) Poll() error {
	return t.waitCycle(0)
}

// WaitForIncomingData blocks up to delay waiting for any destination (or
// the abort channel) to become readable, drains whatever is ready, and
// reports whether the inbound queue is non-empty afterwards.
func (t *TCPTransmitter) WaitForIncomingData(delay time.Duration) (dataAvailable bool, err error) {
	if err := t.waitCycle(delay); err != nil {
		return false, err
	}
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	return t.inbound.Length() > 0, nil
}

// waitCycle implements the shared body of Poll/WaitForIncomingData:
// snapshot destinations, arm the wait, release mainMutex for its
// duration (the one permitted suspension point besides clock.Wait and
// socket I/O), then drain whatever woke.
func (t *TCPTransmitter) waitCycle(timeout time.Duration) error {
	t.mainMutex.Lock()
	if !t.created {
		t.mainMutex.Unlock()
		return ErrNotCreated
	}

	conns := t.dests.conns()
	fds := make([]uintptr, 0, len(conns))
	fdConns := make([]net.Conn, 0, len(conns))
	for _, c := range conns {
		sc, ok := c.(syscall.Conn)
		if !ok {
			continue
		}
		fd, err := pollfd.FD(sc)
		if err != nil {
			continue
		}
		fds = append(fds, fd)
		fdConns = append(fdConns, c)
	}

	abort := t.activeAbortLocked()
	abortFD, err := abort.ReadFD()
	if err != nil {
		t.mainMutex.Unlock()
		return err
	}

	t.waitingForData = true
	t.mainMutex.Unlock()

	t.waitMutex.Lock()
	res, werr := multiwait.Wait(fds, abortFD, timeout)
	t.waitMutex.Unlock()

	t.mainMutex.Lock()
	t.waitingForData = false

	if werr != nil {
		t.mainMutex.Unlock()
		return werr
	}

	if res.AbortReady {
		abort.Drain()
	}
	for i, ready := range res.Ready {
		if ready {
			t.drainDestinationLocked(fdConns[i])
		}
	}

	t.mainMutex.Unlock()
	return nil
}

// drainDestinationLocked runs conn's reassembler over whatever is
// immediately available, harvesting every frame that completes within
// that budget -- a single TCP read can easily contain two or more
// complete frames back to back -- enqueuing each as a RawPacket. A
// readable-but-empty socket or a protocol error removes the destination
// and invokes OnReceiveError. Must be called with mainMutex held.
func (t *TCPTransmitter) drainDestinationLocked(conn net.Conn) {
	entry := t.dests.get(conn)
	if entry == nil {
		return
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		t.failDestinationLocked(conn, ErrBadSocket)
		return
	}
	fd, err := pollfd.FD(sc)
	if err != nil {
		t.failDestinationLocked(conn, err)
		return
	}
	available, err := pollfd.Available(fd)
	if err != nil {
		t.failDestinationLocked(conn, err)
		return
	}
	// Readable-but-no-bytes is the standard sign of an orderly peer
	// shutdown on a TCP socket.
	if available == 0 {
		t.failDestinationLocked(conn, framing.ErrConnectionClosed)
		return
	}
	// Bound how much of a single wake-up is spent on one destination so a
	// fast peer can't starve the rest of the set.
	if available > DefaultReadBufferSize() {
		available = DefaultReadBufferSize()
	}

	for available > 0 {
		complete, consumed, perr := entry.reasm.ProcessReadable(conn, available)
		available -= consumed
		if perr != nil {
			t.failDestinationLocked(conn, perr)
			return
		}
		if !complete {
			break
		}

		payload := entry.reasm.Take()
		kind := entry.kind
		if kind == framing.Unknown {
			kind = classify(payload)
		}
		t.inbound.Add(framing.RawPacket{
			Payload:     payload,
			Source:      conn,
			ReceiveTime: clock.Now(),
			Kind:        kind,
		})
	}
}

func (t *TCPTransmitter) failDestinationLocked(conn net.Conn, err error) {
	t.dests.remove(conn)
	hooks := t.hooks
	if hooks != nil {
		hooks.OnReceiveError(conn, err)
	}
}

// AbortWait wakes the current WaitForIncomingData/Poll, if any, promptly.
// Safe to call from any thread; a no-op if no wait is in progress.
func (t *TCPTransmitter) AbortWait() error {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if !t.created {
		return ErrNotCreated
	}
	if !t.waitingForData {
		return nil
	}
	return t.activeAbortLocked().Signal()
}

// NewDataAvailable reports whether GetNextPacket would return a packet.
func (t *TCPTransmitter) NewDataAvailable() bool {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	return t.inbound.Length() > 0
}

// GetNextPacket dequeues the oldest queued RawPacket, transferring
// ownership to the caller. The second return value is false if the queue
// was empty.
func (t *TCPTransmitter) GetNextPacket() (framing.RawPacket, bool) {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()

	if t.inbound.Length() == 0 {
		return framing.RawPacket{}, false
	}
	pkt := t.inbound.Remove().(framing.RawPacket)
	return pkt, true
}

// GetTransmissionInfo reports the transmitter's protocol, current
// destination count and configured maximum packet size.
func (t *TCPTransmitter) GetTransmissionInfo() TransmissionInfo {
	t.mainMutex.Lock()
	defer t.mainMutex.Unlock()
	return TransmissionInfo{
		Protocol:         ProtocolTCP,
		DestinationCount: t.dests.len(),
		MaxPacketSize:    t.maxPackSize,
	}
}

// GetLocalHostName returns a cached best-effort local host name, suitable
// for SDES/CNAME-style reporting by the session layer.
func (t *TCPTransmitter) GetLocalHostName() string {
	t.hostnameOnce.Do(func() {
		t.hostname = localHostName()
	})
	return t.hostname
}

// GetHeaderOverhead returns the per-packet overhead this transport adds
// on top of the payload: 20 bytes of IPv4, 20 of TCP, 2 of RFC 4571
// framing.
func (t *TCPTransmitter) GetHeaderOverhead() int {
	return headerOverheadIPv4
}

// SupportsMulticasting is always false for this transport: TCP has no
// multicast semantics.
func (t *TCPTransmitter) SupportsMulticasting() bool {
	return false
}

// JoinMulticastGroup always fails: see SupportsMulticasting.
func (t *TCPTransmitter) JoinMulticastGroup(addr net.Addr) error {
	return ErrNotSupported
}

// LeaveMulticastGroup always fails: see SupportsMulticasting.
func (t *TCPTransmitter) LeaveMulticastGroup(addr net.Addr) error {
	return ErrNotSupported
}

// LeaveAllMulticastGroups always fails: see SupportsMulticasting.
func (t *TCPTransmitter) LeaveAllMulticastGroups() error {
	return ErrNotSupported
}

// ReceiveMode selects which destinations a transmitter accepts incoming
// data from. This transport identifies peers by socket identity and
// delegates all filtering to the session layer, so SetReceiveMode and the
// accept/ignore list operations below are all unsupported.
type ReceiveMode int

// SetReceiveMode always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) SetReceiveMode(mode ReceiveMode) error {
	return ErrNotSupported
}

// AddToIgnoreList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) AddToIgnoreList(addr net.Addr) error { return ErrNotSupported }

// DeleteFromIgnoreList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) DeleteFromIgnoreList(addr net.Addr) error { return ErrNotSupported }

// ClearIgnoreList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) ClearIgnoreList() error { return ErrNotSupported }

// AddToAcceptList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) AddToAcceptList(addr net.Addr) error { return ErrNotSupported }

// DeleteFromAcceptList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) DeleteFromAcceptList(addr net.Addr) error { return ErrNotSupported }

// ClearAcceptList always fails: see the ReceiveMode doc comment.
func (t *TCPTransmitter) ClearAcceptList() error { return ErrNotSupported }

func validateSocket(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return ErrBadSocket
	}
	fd, err := pollfd.FD(sc)
	if err != nil {
		return ErrBadSocket
	}
	if err := pollfd.Validate(fd); err != nil {
		return ErrBadSocket
	}
	return nil
}
