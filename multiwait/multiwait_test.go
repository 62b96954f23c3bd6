// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package multiwait

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhiwei1988/JRTPLIB/abortsignal"
	"github.com/zhiwei1988/JRTPLIB/internal/pollfd"
)

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

func TestWaitReportsNoneReadyWithinBudget(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	fd, err := pollfd.FD(server.(*net.TCPConn))
	require.NoError(t, err)

	abort := abortsignal.New()
	require.NoError(t, abort.Init())
	defer abort.Destroy()
	abortFD, err := abort.ReadFD()
	require.NoError(t, err)

	res, err := Wait([]uintptr{fd}, abortFD, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.Ready[0])
	assert.False(t, res.AbortReady)
}

func TestWaitReportsDataReady(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	fd, err := pollfd.FD(server.(*net.TCPConn))
	require.NoError(t, err)

	abort := abortsignal.New()
	require.NoError(t, abort.Init())
	defer abort.Destroy()
	abortFD, err := abort.ReadFD()
	require.NoError(t, err)

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	res, err := Wait([]uintptr{fd}, abortFD, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Ready[0])
	assert.False(t, res.AbortReady)

	n, err := Available(fd)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestWaitReportsAbortOnly(t *testing.T) {
	client, server := loopbackPair(t)
	defer client.Close()
	defer server.Close()

	fd, err := pollfd.FD(server.(*net.TCPConn))
	require.NoError(t, err)

	abort := abortsignal.New()
	require.NoError(t, abort.Init())
	defer abort.Destroy()
	abortFD, err := abort.ReadFD()
	require.NoError(t, err)

	require.NoError(t, abort.Signal())

	res, err := Wait([]uintptr{fd}, abortFD, time.Second)
	require.NoError(t, err)
	assert.False(t, res.Ready[0])
	assert.True(t, res.AbortReady)
}
