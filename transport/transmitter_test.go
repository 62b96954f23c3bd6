// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhiwei1988/JRTPLIB/framing"
)

// loopbackPair mirrors multiwait_test.go's helper: a connected TCP pair
// so the transmitter can exercise real socket fds end to end.
func loopbackPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptErr := make(chan error, 1)
	go func() {
		var err error
		server, err = ln.Accept()
		acceptErr <- err
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, <-acceptErr)
	return client, server
}

func newCreated(t *testing.T, maxPackSize int) *TCPTransmitter {
	t.Helper()
	tr := New()
	require.NoError(t, tr.Init(true))
	require.NoError(t, tr.Create(maxPackSize, Params{}))
	return tr
}

func TestInitTwiceFails(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Init(true))
	assert.ErrorIs(t, tr.Init(true), ErrAlreadyInitialized)
}

func TestCreateBeforeInitFails(t *testing.T) {
	tr := New()
	assert.ErrorIs(t, tr.Create(1500, Params{}), ErrNotInitialized)
}

func TestAddDestinationBeforeCreateFails(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Init(true))
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()
	assert.ErrorIs(t, tr.AddDestination(server, framing.RTP), ErrNotCreated)
}

func TestAddDuplicateDestinationFails(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, tr.AddDestination(server, framing.RTP))
	assert.ErrorIs(t, tr.AddDestination(server, framing.RTP), ErrAlreadyPresent)
}

func TestDeleteMissingDestinationFails(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	assert.ErrorIs(t, tr.DeleteDestination(server), ErrNotFound)
}

func TestSendRTPDataFramesAndDeliversEndToEnd(t *testing.T) {
	send := newCreated(t, 1500)
	defer send.Destroy()
	recv := newCreated(t, 1500)
	defer recv.Destroy()

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, send.AddDestination(client, framing.RTP))
	require.NoError(t, recv.AddDestination(server, framing.RTP))

	require.NoError(t, send.SendRTPData([]byte("hello")))

	ok, err := recv.WaitForIncomingData(time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	pkt, ok := recv.GetNextPacket()
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), pkt.Payload)
	assert.Equal(t, framing.RTP, pkt.Kind)
	assert.Equal(t, server, pkt.Source)
}

func TestSendTooLongRejected(t *testing.T) {
	tr := newCreated(t, 1<<20)
	defer tr.Destroy()
	assert.ErrorIs(t, tr.send(make([]byte, 65536)), ErrTooLong)
}

func TestSendOversizedRejected(t *testing.T) {
	tr := newCreated(t, 10)
	defer tr.Destroy()
	assert.ErrorIs(t, tr.send(make([]byte, 11)), ErrOversized)
}

func TestSendWithNoDestinationsSucceedsVacuously(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()
	assert.NoError(t, tr.SendRTPData([]byte("x")))
}

func TestAbortWaitWakesBlockedWait(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()

	done := make(chan struct{})
	var ok bool
	go func() {
		defer close(done)
		var err error
		ok, err = tr.WaitForIncomingData(60 * time.Second)
		assert.NoError(t, err)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.AbortWait())

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("WaitForIncomingData did not return promptly after AbortWait")
	}
	assert.False(t, ok)
}

func TestAbortWaitNoopWithoutPendingWait(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()
	assert.NoError(t, tr.AbortWait())
}

func TestOversizedFrameRemovesDestinationAndInvokesHook(t *testing.T) {
	recv := newCreated(t, 100)
	defer recv.Destroy()

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	var gotErr error
	var gotConn net.Conn
	recv.SetErrorHooks(errHookFunc{onReceive: func(c net.Conn, err error) {
		gotConn = c
		gotErr = err
	}})

	require.NoError(t, recv.AddDestination(server, framing.RTP))

	_, err := client.Write([]byte{0xFF, 0xFF})
	require.NoError(t, err)

	ok, err := recv.WaitForIncomingData(time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, gotErr, framing.ErrOversizedFrame)
	assert.Equal(t, server, gotConn)
	assert.False(t, recv.ComesFromThisTransmitter(server))
}

func TestConnectionClosedRemovesDestination(t *testing.T) {
	recv := newCreated(t, 1500)
	defer recv.Destroy()

	client, server := loopbackPair(t)
	defer server.Close()

	require.NoError(t, recv.AddDestination(server, framing.RTP))
	client.Close()

	ok, err := recv.WaitForIncomingData(time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, recv.ComesFromThisTransmitter(server))
}

func TestGetTransmissionInfoReportsDestinationCount(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	require.NoError(t, tr.AddDestination(server, framing.RTP))

	info := tr.GetTransmissionInfo()
	assert.Equal(t, ProtocolTCP, info.Protocol)
	assert.Equal(t, 1, info.DestinationCount)
	assert.Equal(t, 1500, info.MaxPacketSize)
}

func TestGetHeaderOverhead(t *testing.T) {
	tr := New()
	assert.Equal(t, 42, tr.GetHeaderOverhead())
}

func TestMulticastAndFilterListsUnsupported(t *testing.T) {
	tr := newCreated(t, 1500)
	defer tr.Destroy()

	assert.False(t, tr.SupportsMulticasting())
	assert.ErrorIs(t, tr.JoinMulticastGroup(nil), ErrNotSupported)
	assert.ErrorIs(t, tr.LeaveMulticastGroup(nil), ErrNotSupported)
	assert.ErrorIs(t, tr.LeaveAllMulticastGroups(), ErrNotSupported)
	assert.ErrorIs(t, tr.SetReceiveMode(0), ErrNotSupported)
	assert.ErrorIs(t, tr.AddToIgnoreList(nil), ErrNotSupported)
	assert.ErrorIs(t, tr.AddToAcceptList(nil), ErrNotSupported)
}

func TestDestroyIsIdempotentAndDropsDestinations(t *testing.T) {
	tr := newCreated(t, 1500)

	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()
	require.NoError(t, tr.AddDestination(server, framing.RTP))

	require.NoError(t, tr.Destroy())
	require.NoError(t, tr.Destroy())
	assert.False(t, tr.ComesFromThisTransmitter(server))
}

type errHookFunc struct {
	onSend    func(net.Conn, error)
	onReceive func(net.Conn, error)
}

func (h errHookFunc) OnSendError(c net.Conn, err error) {
	if h.onSend != nil {
		h.onSend(c, err)
	}
}

func (h errHookFunc) OnReceiveError(c net.Conn, err error) {
	if h.onReceive != nil {
		h.onReceive(c, err)
	}
}
