package router

import (
	"testing"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mosn.io/pkg/buffer"

	"mosn.io/thrift-router/pkg/protocol"
	"mosn.io/thrift-router/pkg/types"
)

// A fresh connection runs the handshake before any request bytes go
// out; only once the handshake completes does writeMessageBegin happen and
// the decoder resume.
func TestUpgradeHandshakeThenMessage(t *testing.T) {
	conn := &fakeConnection{}
	pool := &fakePool{async: true}
	f, downstream, _ := newTestFilter(t, "cluster-a", pool, protocol.NewUpgradingBinaryProtocol())

	status := f.MessageBegin(types.MessageMetadata{MethodName: "method", MessageType: thrift.CALL, SeqID: 1})
	assert.Equal(t, types.StopIteration, status)

	pool.triggerReady(conn)

	// The handshake request went out; no message bytes yet.
	require.Len(t, conn.writeCalls, 1)
	assert.Equal(t, []byte("THRIFT-UPGRADE-REQUEST"), conn.writeCalls[0])
	assert.Equal(t, 0, downstream.continueCalls)
	assert.False(t, conn.state.Upgraded)

	// Upstream bytes short of the magic keep the handshake open.
	conn.cb.OnUpstreamData(buffer.NewIoBufferBytes([]byte("THRIFT-UPGR")), false)
	assert.Equal(t, 0, downstream.continueCalls)
	require.Len(t, conn.writeCalls, 1)

	// Completing the magic finishes the handshake, marks the connection
	// upgraded, and only then writes the deferred message begin.
	conn.cb.OnUpstreamData(buffer.NewIoBufferBytes([]byte("ADE-OK")), false)

	assert.True(t, conn.state.Upgraded)
	assert.Equal(t, 1, downstream.continueCalls)
	require.Len(t, conn.writeCalls, 1, "writeMessageBegin only buffers; nothing flushes until messageEnd")

	assert.Empty(t, downstream.localReplies)
}

// A connection whose state already shows Upgraded skips the handshake
// entirely — writeMessageBegin and continueDecoding happen immediately,
// with no handshake bytes written to the socket.
func TestUpgradeSkippedOnReusedConnection(t *testing.T) {
	conn := &fakeConnection{state: types.ConnectionState{Upgraded: true}}
	pool := &fakePool{async: true}
	f, downstream, _ := newTestFilter(t, "cluster-a", pool, protocol.NewUpgradingBinaryProtocol())

	status := f.MessageBegin(types.MessageMetadata{MethodName: "method", MessageType: thrift.CALL, SeqID: 1})
	assert.Equal(t, types.StopIteration, status)

	pool.triggerReady(conn)

	assert.Empty(t, conn.writeCalls, "no handshake bytes on a connection already marked upgraded")
	assert.Equal(t, 1, downstream.continueCalls)
}

// A synchronously ready, already-upgraded connection resolves without ever
// calling ContinueDecoding (messageBegin itself returns Continue).
func TestUpgradeSkippedSynchronousReady(t *testing.T) {
	conn := &fakeConnection{state: types.ConnectionState{Upgraded: true}}
	pool := &fakePool{readyConn: conn}
	f, downstream, _ := newTestFilter(t, "cluster-a", pool, protocol.NewUpgradingBinaryProtocol())

	status := f.MessageBegin(types.MessageMetadata{MethodName: "method", MessageType: thrift.CALL, SeqID: 1})
	assert.Equal(t, types.Continue, status)
	assert.Equal(t, 0, downstream.continueCalls)
	assert.Empty(t, conn.writeCalls)
}
