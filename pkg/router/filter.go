package router

import (
	"net"
	"sync"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/google/uuid"
	"mosn.io/pkg/log"

	routerlog "mosn.io/thrift-router/pkg/log"
	"mosn.io/thrift-router/pkg/types"
)

// filterPool recycles RouterFilter instances through a sync.Pool, avoiding
// an allocation per downstream message.
var filterPool = sync.Pool{
	New: func() interface{} { return &RouterFilter{} },
}

// ProtocolSelector resolves the upstream protocol/transport pair a cluster
// should be encoded with. Defaults are inherited from downstream when a
// cluster has no override.
type ProtocolSelector interface {
	ProtocolFor(clusterName string) types.Protocol
	TransportFor(clusterName string) types.Transport
}

// RouterFilter implements the decoder-callback surface that drives a single
// downstream message through routing, pool acquisition, encoding, and
// release. It exposes a small set of load-balancer extension points
// (ComputeHashKey/MetadataMatchCriteria/DownstreamHeaders/
// DownstreamConnection) that are unused today but keep that integration an
// additive change later.
type RouterFilter struct {
	streamID string

	router         types.Router
	clusterManager types.ClusterManager
	selector       ProtocolSelector
	stats          *Stats

	callbacks types.DownstreamCallbacks
	meta      types.MessageMetadata
	upstream  *UpstreamRequest

	destroyed bool

	logger log.ErrorLogger
}

// NewRouterFilter takes a RouterFilter from the pool (or allocates one) and
// initializes it against callbacks.
func NewRouterFilter(router types.Router, clusterManager types.ClusterManager, selector ProtocolSelector, stats *Stats, callbacks types.DownstreamCallbacks) *RouterFilter {
	f := filterPool.Get().(*RouterFilter)
	f.streamID = uuid.NewString()
	f.router = router
	f.clusterManager = clusterManager
	f.selector = selector
	f.stats = stats
	f.callbacks = guardSendLocalReply(callbacks)
	f.destroyed = false
	f.upstream = nil

	if f.logger == nil {
		f.logger, _ = routerlog.CreateSubsystemLogger("stdout", log.ERROR, routerlog.CodeRouter)
	}

	stats.onBegin()
	return f
}

// release returns f to the pool after a full reset.
func (f *RouterFilter) release() {
	f.reset()
	filterPool.Put(f)
}

func (f *RouterFilter) reset() {
	f.streamID = ""
	f.router = nil
	f.clusterManager = nil
	f.selector = nil
	f.stats = nil
	f.callbacks = nil
	f.meta = types.MessageMetadata{}
	f.upstream = nil
	f.destroyed = false
}

// TransportBegin runs before routing; nothing to do yet.
func (f *RouterFilter) TransportBegin() types.FilterStatus { return types.Continue }

// MessageBegin is the only callback that may block: it resolves the route,
// acquires a pooled connection, and suspends decoding until one is ready.
func (f *RouterFilter) MessageBegin(meta types.MessageMetadata) types.FilterStatus {
	f.meta = meta

	route := f.router.Route(meta)
	if route == nil {
		return f.localReply(appExceptionNoRoute())
	}
	entry := route.RouteEntry()
	if entry == nil {
		return f.localReply(appExceptionNoRoute())
	}

	clusterName := entry.ClusterName()
	info := f.clusterManager.ClusterInfo(clusterName)
	if info == nil {
		return f.localReply(appExceptionUnknownCluster())
	}
	if info.MaintenanceMode() {
		return f.localReply(appExceptionMaintenanceMode())
	}

	pool := f.clusterManager.TCPConnPoolForCluster(clusterName)
	if pool == nil {
		return f.localReply(appExceptionNoHealthyUpstream())
	}

	proto := f.selector.ProtocolFor(clusterName)
	transport := f.selector.TransportFor(clusterName)

	f.upstream = newUpstreamRequest(clusterName, pool, proto, transport, f.callbacks, meta, f.stats)
	return f.upstream.begin()
}

// localReply handles the no-route / no-cluster / maintenance / no-healthy-
// host branches of messageBegin, all of which occur before an
// UpstreamRequest exists.
func (f *RouterFilter) localReply(ex types.AppException) types.FilterStatus {
	if f.meta.Oneway() {
		f.callbacks.ResetDownstreamConnection()
		return types.StopIteration
	}
	f.callbacks.SendLocalReply(ex)
	return types.StopIteration
}

func (f *RouterFilter) StructBegin() types.FilterStatus {
	if err := f.upstream.writeStructBegin(); err != nil {
		f.logger.Errorf("write struct begin: %v", err)
	}
	return types.Continue
}

// StructEnd emits the terminating Stop field before writeStructEnd.
func (f *RouterFilter) StructEnd() types.FilterStatus {
	if err := f.upstream.writeStructEnd(); err != nil {
		f.logger.Errorf("write struct end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) FieldBegin(name string, typeID thrift.TType, id int16) types.FilterStatus {
	if err := f.upstream.writeFieldBegin(name, typeID, id); err != nil {
		f.logger.Errorf("write field begin: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) FieldEnd() types.FilterStatus {
	if err := f.upstream.writeFieldEnd(); err != nil {
		f.logger.Errorf("write field end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) MapBegin(keyType, valueType thrift.TType, size int) types.FilterStatus {
	if err := f.upstream.writeMapBegin(keyType, valueType, size); err != nil {
		f.logger.Errorf("write map begin: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) MapEnd() types.FilterStatus {
	if err := f.upstream.writeMapEnd(); err != nil {
		f.logger.Errorf("write map end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) ListBegin(elemType thrift.TType, size int) types.FilterStatus {
	if err := f.upstream.writeListBegin(elemType, size); err != nil {
		f.logger.Errorf("write list begin: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) ListEnd() types.FilterStatus {
	if err := f.upstream.writeListEnd(); err != nil {
		f.logger.Errorf("write list end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) SetBegin(elemType thrift.TType, size int) types.FilterStatus {
	if err := f.upstream.writeSetBegin(elemType, size); err != nil {
		f.logger.Errorf("write set begin: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) SetEnd() types.FilterStatus {
	if err := f.upstream.writeSetEnd(); err != nil {
		f.logger.Errorf("write set end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) BoolValue(v bool) types.FilterStatus {
	f.logErr(f.upstream.writeBool(v), "bool value")
	return types.Continue
}
func (f *RouterFilter) ByteValue(v int8) types.FilterStatus {
	f.logErr(f.upstream.writeByte(v), "byte value")
	return types.Continue
}
func (f *RouterFilter) Int16Value(v int16) types.FilterStatus {
	f.logErr(f.upstream.writeI16(v), "i16 value")
	return types.Continue
}
func (f *RouterFilter) Int32Value(v int32) types.FilterStatus {
	f.logErr(f.upstream.writeI32(v), "i32 value")
	return types.Continue
}
func (f *RouterFilter) Int64Value(v int64) types.FilterStatus {
	f.logErr(f.upstream.writeI64(v), "i64 value")
	return types.Continue
}
func (f *RouterFilter) DoubleValue(v float64) types.FilterStatus {
	f.logErr(f.upstream.writeDouble(v), "double value")
	return types.Continue
}
func (f *RouterFilter) StringValue(v string) types.FilterStatus {
	f.logErr(f.upstream.writeString(v), "string value")
	return types.Continue
}

func (f *RouterFilter) logErr(err error, what string) {
	if err != nil {
		f.logger.Errorf("write %s: %v", what, err)
	}
}

// MessageEnd flushes the encoded message to the upstream socket, releasing
// the connection immediately for Oneway.
func (f *RouterFilter) MessageEnd() types.FilterStatus {
	if err := f.upstream.messageEnd(); err != nil {
		f.logger.Errorf("message end: %v", err)
	}
	return types.Continue
}

func (f *RouterFilter) TransportEnd() types.FilterStatus { return types.Continue }

// ResetUpstreamConnection is called by the downstream filter chain when it
// decides the response cannot be delivered.
func (f *RouterFilter) ResetUpstreamConnection() {
	if f.upstream != nil {
		f.upstream.resetUpstreamConnection()
	}
}

// OnDestroy cancels a pending pool handle, or closes (not releases) a held
// connection, depending on how far the request had gotten.
func (f *RouterFilter) OnDestroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true

	if f.upstream != nil {
		wasReleased := f.upstream.state == StateReleased
		f.upstream.onDestroy()
		if !wasReleased {
			f.stats.onReset()
		}
	}
	f.stats.onEnd()
	f.release()
}

// ~~~ load-balancer extension points: unimplemented by design, defined so
// integrating a load balancer later is not an API change.

func (f *RouterFilter) ComputeHashKey() (types.HashedValue, bool) {
	return types.HashedValue{}, false
}

func (f *RouterFilter) MetadataMatchCriteria() interface{} { return nil }

func (f *RouterFilter) DownstreamHeaders() interface{} { return nil }

func (f *RouterFilter) DownstreamConnection() net.Conn {
	return f.callbacks.Connection()
}
