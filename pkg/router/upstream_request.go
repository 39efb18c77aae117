package router

import (
	"github.com/apache/thrift/lib/go/thrift"
	"github.com/google/uuid"
	"mosn.io/pkg/buffer"
	"mosn.io/pkg/log"

	routerlog "mosn.io/thrift-router/pkg/log"
	"mosn.io/thrift-router/pkg/types"
)

// UpstreamRequest owns a single in-flight upstream interaction: pool
// handle, connection, encoder buffer, and upgrade state. It implements
// types.PoolCallbacks and types.UpstreamCallbacks directly, so it installs
// itself on both the pool and, once connected, on the connection's read
// side.
type UpstreamRequest struct {
	streamID    string
	clusterName string
	meta        types.MessageMetadata

	pool       types.ConnectionPool
	poolHandle types.CancelHandle
	conn       types.UpstreamConnection

	protocol  types.Protocol
	transport types.Transport
	encodeBuf buffer.IoBuffer

	downstream types.DownstreamCallbacks

	state         RequestState
	releasePolicy ReleasePolicy
	released      bool
	synchronous   bool

	upgrade       *upgradeHandshake
	responseCoord *responseCoordinator

	stats *Stats

	logger log.ErrorLogger
}

func newUpstreamRequest(
	clusterName string,
	pool types.ConnectionPool,
	proto types.Protocol,
	transport types.Transport,
	downstream types.DownstreamCallbacks,
	meta types.MessageMetadata,
	stats *Stats,
) *UpstreamRequest {
	lg, _ := routerlog.CreateSubsystemLogger("stdout", log.ERROR, routerlog.CodeRouter)

	releasePolicy := ReleaseAfterResponse
	if meta.Oneway() {
		releasePolicy = ReleaseAfterWrite
	}

	return &UpstreamRequest{
		streamID:      uuid.NewString(),
		clusterName:   clusterName,
		meta:          meta,
		pool:          pool,
		protocol:      proto,
		transport:     transport,
		downstream:    downstream,
		state:         StateIdle,
		releasePolicy: releasePolicy,
		stats:         stats,
		logger:        lg,
	}
}

// begin requests a pooled connection. Its return value is the FilterStatus
// messageBegin itself should return.
func (r *UpstreamRequest) begin() types.FilterStatus {
	r.state = StatePoolPending
	r.synchronous = true
	handle := r.pool.NewConnection(r)
	r.synchronous = false

	if r.state == StatePoolPending {
		r.poolHandle = handle
		return types.StopIteration
	}
	if r.state == StateConnected {
		return types.Continue
	}
	// Upgrading or Failed: decoder stays suspended either way.
	return types.StopIteration
}

// PoolReady implements types.PoolCallbacks.
func (r *UpstreamRequest) PoolReady(conn types.UpstreamConnection) {
	r.conn = conn
	conn.AddUpstreamCallbacks(r)

	connState := conn.State()
	if r.protocol.SupportsUpgrade() && !connState.Upgraded {
		hs, err := beginUpgrade(r.protocol, r.transport, connState, conn, r.meta)
		if err != nil {
			r.logger.Errorf("upgrade handshake write failed for cluster %s: %v", r.clusterName, err)
			r.fail(appExceptionConnectionFailure())
			return
		}
		if hs != nil {
			r.upgrade = hs
			r.state = StateUpgrading
			return
		}
		// Skip: the protocol returned no parser, so no handshake is needed.
	}
	r.proceedConnected()
}

// PoolFailure implements types.PoolCallbacks.
func (r *UpstreamRequest) PoolFailure(reason types.PoolFailureReason) {
	r.fail(poolFailureAppException(reason))
}

// fail maps a terminal failure to the Call/Oneway-appropriate downstream
// action: a oneway request has no reply channel, so the connection is
// reset instead of answered.
func (r *UpstreamRequest) fail(ex types.AppException) {
	r.state = StateFailed
	if r.meta.Oneway() {
		r.downstream.ResetDownstreamConnection()
		return
	}
	r.downstream.SendLocalReply(ex)
}

func (r *UpstreamRequest) proceedConnected() {
	r.state = StateConnected
	if r.encodeBuf == nil {
		r.encodeBuf = buffer.NewIoBuffer(256)
	}
	if err := r.protocol.WriteMessageBegin(r.encodeBuf, r.meta); err != nil {
		r.logger.Errorf("write message begin for %s: %v", r.meta.MethodName, err)
	}
	if !r.synchronous {
		r.downstream.ContinueDecoding()
	}
}

func (r *UpstreamRequest) onUpgradeData(buf buffer.IoBuffer, endStream bool) {
	done, err := r.upgrade.onData(buf)
	if err != nil {
		r.logger.Errorf("upgrade handshake failed for cluster %s: %v", r.clusterName, err)
		r.fail(appExceptionConnectionFailure())
		return
	}
	if !done {
		return
	}
	if err := r.protocol.CompleteUpgrade(r.conn.State(), r.upgrade.parser); err != nil {
		r.logger.Errorf("complete upgrade for cluster %s: %v", r.clusterName, err)
	}
	r.meta = r.upgrade.pendingMeta
	r.upgrade = nil
	r.proceedConnected()
}

// OnUpstreamData implements types.UpstreamCallbacks, dispatching to the
// upgrade handshake or the response coordinator depending on state.
func (r *UpstreamRequest) OnUpstreamData(buf buffer.IoBuffer, endStream bool) {
	switch r.state {
	case StateUpgrading:
		r.onUpgradeData(buf, endStream)
	case StateAwaitingResponse:
		done, truncated := r.responseCoord.onUpstreamData(buf, endStream)
		if !done {
			return
		}
		r.release()
		if truncated {
			r.downstream.ResetDownstreamConnection()
		}
	default:
		r.logger.Errorf("unexpected upstream data for stream %s in state %s", r.streamID, r.state)
	}
}

// OnEvent implements types.UpstreamCallbacks.
func (r *UpstreamRequest) OnEvent(event types.ConnectionEvent) {
	switch event {
	case types.EventConnected:
		// Not exercised by the router itself; no-op.
	case types.EventRemoteClose, types.EventLocalClose:
		if r.state != StateAwaitingResponse || r.responseCoord == nil {
			return
		}
		if r.responseCoord.onUpstreamClose() {
			r.state = StateFailed
			r.downstream.SendLocalReply(appExceptionConnectionFailure())
		}
	}
}

// ~~~ encoder forwarding: one method per structural/value callback, all
// writing into the shared encode buffer.

func (r *UpstreamRequest) writeStructBegin() error { return r.protocol.WriteStructBegin(r.encodeBuf) }

func (r *UpstreamRequest) writeStructEnd() error {
	if err := r.protocol.WriteFieldBegin(r.encodeBuf, "", thrift.STOP, 0); err != nil {
		return err
	}
	return r.protocol.WriteStructEnd(r.encodeBuf)
}

func (r *UpstreamRequest) writeFieldBegin(name string, typeID thrift.TType, id int16) error {
	return r.protocol.WriteFieldBegin(r.encodeBuf, name, typeID, id)
}
func (r *UpstreamRequest) writeFieldEnd() error { return r.protocol.WriteFieldEnd(r.encodeBuf) }

func (r *UpstreamRequest) writeMapBegin(keyType, valueType thrift.TType, size int) error {
	return r.protocol.WriteMapBegin(r.encodeBuf, keyType, valueType, size)
}
func (r *UpstreamRequest) writeMapEnd() error { return r.protocol.WriteMapEnd(r.encodeBuf) }

func (r *UpstreamRequest) writeListBegin(elemType thrift.TType, size int) error {
	return r.protocol.WriteListBegin(r.encodeBuf, elemType, size)
}
func (r *UpstreamRequest) writeListEnd() error { return r.protocol.WriteListEnd(r.encodeBuf) }

func (r *UpstreamRequest) writeSetBegin(elemType thrift.TType, size int) error {
	return r.protocol.WriteSetBegin(r.encodeBuf, elemType, size)
}
func (r *UpstreamRequest) writeSetEnd() error { return r.protocol.WriteSetEnd(r.encodeBuf) }

func (r *UpstreamRequest) writeBool(v bool) error      { return r.protocol.WriteBool(r.encodeBuf, v) }
func (r *UpstreamRequest) writeByte(v int8) error      { return r.protocol.WriteByte(r.encodeBuf, v) }
func (r *UpstreamRequest) writeI16(v int16) error      { return r.protocol.WriteI16(r.encodeBuf, v) }
func (r *UpstreamRequest) writeI32(v int32) error      { return r.protocol.WriteI32(r.encodeBuf, v) }
func (r *UpstreamRequest) writeI64(v int64) error      { return r.protocol.WriteI64(r.encodeBuf, v) }
func (r *UpstreamRequest) writeDouble(v float64) error { return r.protocol.WriteDouble(r.encodeBuf, v) }
func (r *UpstreamRequest) writeString(v string) error  { return r.protocol.WriteString(r.encodeBuf, v) }

// messageEnd flushes the encoder buffer to the upstream socket exactly
// once per downstream message, framed by transport.EncodeFrame, then
// releases (Oneway) or starts waiting for a response (Call).
func (r *UpstreamRequest) messageEnd() error {
	if err := r.protocol.WriteMessageEnd(r.encodeBuf); err != nil {
		return err
	}
	out := buffer.NewIoBuffer(r.encodeBuf.Len() + 8)
	if err := r.transport.EncodeFrame(out, r.meta, r.encodeBuf); err != nil {
		return err
	}
	if err := r.conn.Write(out, false); err != nil {
		return err
	}

	if r.releasePolicy == ReleaseAfterWrite {
		r.release()
		return nil
	}
	r.responseCoord = newResponseCoordinator(r.downstream, r.transport, r.protocol)
	r.state = StateAwaitingResponse
	return nil
}

// release returns the connection to the pool exactly once.
func (r *UpstreamRequest) release() {
	if r.released {
		return
	}
	r.released = true
	r.state = StateReleased
	r.pool.Released(r.conn)
	r.stats.onReleased()
}

// closeConnection closes the held connection with NoFlush and never
// returns it to the pool.
func (r *UpstreamRequest) closeConnection() {
	if r.released || r.conn == nil {
		return
	}
	r.released = true
	r.state = StateClosed
	if err := r.conn.Close(types.NoFlush); err != nil {
		r.logger.Errorf("close upstream connection for stream %s: %v", r.streamID, err)
	}
}

// resetUpstreamConnection closes immediately with NoFlush, used when a
// later filter forces a reset.
func (r *UpstreamRequest) resetUpstreamConnection() {
	r.closeConnection()
}

// onDestroy cancels a pending pool handle, or closes (never releases) a
// held connection, depending on how far the request had gotten.
func (r *UpstreamRequest) onDestroy() {
	switch r.state {
	case StatePoolPending:
		if r.poolHandle != nil {
			r.poolHandle.Cancel()
		}
	case StateUpgrading, StateConnected, StateAwaitingResponse, StateFailed:
		r.closeConnection()
	}
	if r.state != StateReleased {
		r.state = StateClosed
	}
}
