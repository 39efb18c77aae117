package router

import (
	"net"

	"mosn.io/pkg/buffer"

	"mosn.io/thrift-router/pkg/types"
)

// ~~~ route / cluster fakes

type fakeRouteEntry struct{ cluster string }

func (e fakeRouteEntry) ClusterName() string { return e.cluster }

type fakeRoute struct{ entry types.RouteEntry }

func (r fakeRoute) RouteEntry() types.RouteEntry { return r.entry }

type fakeRouter struct{ route types.Route }

func (r fakeRouter) Route(types.MessageMetadata) types.Route { return r.route }

type fakeClusterInfo struct {
	name        string
	maintenance bool
}

func (c fakeClusterInfo) Name() string          { return c.name }
func (c fakeClusterInfo) MaintenanceMode() bool { return c.maintenance }

type fakeClusterManager struct {
	infos map[string]types.ClusterInfo
	pools map[string]types.ConnectionPool
}

func newFakeClusterManager() *fakeClusterManager {
	return &fakeClusterManager{
		infos: make(map[string]types.ClusterInfo),
		pools: make(map[string]types.ConnectionPool),
	}
}

func (m *fakeClusterManager) ClusterInfo(name string) types.ClusterInfo {
	return m.infos[name]
}

func (m *fakeClusterManager) TCPConnPoolForCluster(name string) types.ConnectionPool {
	return m.pools[name]
}

// ~~~ pool / connection fakes

type fakeCancelHandle struct{ canceled *bool }

func (h *fakeCancelHandle) Cancel() { *h.canceled = true }

// fakePool resolves synchronously by default (readyConn or failureReason
// set before NewConnection is called); set async=true and call
// triggerReady/triggerFailure to exercise the asynchronous path.
type fakePool struct {
	async         bool
	readyConn     types.UpstreamConnection
	failureReason *types.PoolFailureReason

	cb            types.PoolCallbacks
	canceled      bool
	releasedConns []types.UpstreamConnection
}

func (p *fakePool) NewConnection(cb types.PoolCallbacks) types.CancelHandle {
	if p.async {
		p.cb = cb
		return &fakeCancelHandle{canceled: &p.canceled}
	}
	if p.failureReason != nil {
		cb.PoolFailure(*p.failureReason)
	} else {
		cb.PoolReady(p.readyConn)
	}
	return nil
}

func (p *fakePool) Released(conn types.UpstreamConnection) {
	p.releasedConns = append(p.releasedConns, conn)
}

func (p *fakePool) triggerReady(conn types.UpstreamConnection) { p.cb.PoolReady(conn) }
func (p *fakePool) triggerFailure(reason types.PoolFailureReason) { p.cb.PoolFailure(reason) }

type fakeConnection struct {
	writeCalls [][]byte
	closeCalls []types.ConnectionCloseType
	cb         types.UpstreamCallbacks
	state      types.ConnectionState
}

func (c *fakeConnection) Write(buf buffer.IoBuffer, endStream bool) error {
	c.writeCalls = append(c.writeCalls, append([]byte(nil), buf.Bytes()...))
	return nil
}

func (c *fakeConnection) Close(closeType types.ConnectionCloseType) error {
	c.closeCalls = append(c.closeCalls, closeType)
	return nil
}

func (c *fakeConnection) AddUpstreamCallbacks(cb types.UpstreamCallbacks) { c.cb = cb }
func (c *fakeConnection) State() *types.ConnectionState                  { return &c.state }

// ~~~ downstream fake

type fakeDownstream struct {
	conn net.Conn

	continueCalls int
	localReplies  []types.AppException
	resetCalls    int
	startCalls    int

	dataResults []bool
	dataCalls   [][]byte
}

func (d *fakeDownstream) Connection() net.Conn { return d.conn }
func (d *fakeDownstream) ContinueDecoding()    { d.continueCalls++ }

func (d *fakeDownstream) SendLocalReply(ex types.AppException) {
	d.localReplies = append(d.localReplies, ex)
}

func (d *fakeDownstream) ResetDownstreamConnection() { d.resetCalls++ }

func (d *fakeDownstream) StartUpstreamResponse(types.Transport, types.Protocol) {
	d.startCalls++
}

func (d *fakeDownstream) UpstreamData(buf buffer.IoBuffer) bool {
	d.dataCalls = append(d.dataCalls, append([]byte(nil), buf.Bytes()...))
	if len(d.dataResults) == 0 {
		return true
	}
	r := d.dataResults[0]
	d.dataResults = d.dataResults[1:]
	return r
}

// ~~~ protocol selector fake

type staticSelector struct {
	proto     types.Protocol
	transport types.Transport
}

func (s staticSelector) ProtocolFor(string) types.Protocol   { return s.proto }
func (s staticSelector) TransportFor(string) types.Transport { return s.transport }
