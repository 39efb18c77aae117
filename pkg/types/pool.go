package types

import "mosn.io/pkg/buffer"

// PoolFailureReason enumerates why a pooled connection could not be
// acquired.
type PoolFailureReason int

const (
	RemoteConnectionFailure PoolFailureReason = iota
	LocalConnectionFailure
	PoolTimeout
	Overflow
)

func (r PoolFailureReason) String() string {
	switch r {
	case RemoteConnectionFailure:
		return "RemoteConnectionFailure"
	case LocalConnectionFailure:
		return "LocalConnectionFailure"
	case PoolTimeout:
		return "Timeout"
	case Overflow:
		return "Overflow"
	default:
		return "Unknown"
	}
}

// ConnectionCloseType is the close mode the router asks for; NoFlush is the
// only one defined.
type ConnectionCloseType int

const (
	// NoFlush closes a connection immediately, discarding anything still
	// buffered for write. The router never flushes on close: a connection
	// being closed is, by definition, one it no longer trusts.
	NoFlush ConnectionCloseType = iota
)

// ConnectionEvent enumerates the upstream connection lifecycle events the
// router's UpstreamCallbacks may observe.
type ConnectionEvent int

const (
	EventConnected ConnectionEvent = iota
	EventRemoteClose
	EventLocalClose
)

// ConnectionState is the per-connection sticky record the pool keeps
// alongside a pooled connection, used to remember whether this connection
// has already completed a protocol upgrade. The router reads Upgraded to
// decide whether to attempt an upgrade; the record is written only through
// Protocol.AttemptUpgrade / Protocol.CompleteUpgrade — never cached on the
// router, or the upgrade handshake would repeat on every reuse.
type ConnectionState struct {
	Upgraded bool
	Extra    interface{}
}

// UpstreamConnection is a single pooled TCP connection to an upstream host.
type UpstreamConnection interface {
	// Write sends buf upstream. endStream is always false for this router;
	// Thrift has no half-close-on-write concept at the frame level.
	Write(buf buffer.IoBuffer, endStream bool) error
	// Close closes the connection. The router only ever closes with
	// NoFlush.
	Close(closeType ConnectionCloseType) error
	// AddUpstreamCallbacks installs the router's UpstreamRequest as the
	// read-side owner of this connection.
	AddUpstreamCallbacks(cb UpstreamCallbacks)
	// State returns the sticky per-connection upgrade memo.
	State() *ConnectionState
}

// UpstreamCallbacks is implemented by whichever component currently owns
// the read side of an UpstreamConnection.
type UpstreamCallbacks interface {
	OnUpstreamData(buf buffer.IoBuffer, endStream bool)
	OnEvent(event ConnectionEvent)
}

// CancelHandle cancels a pending, not-yet-resolved pool acquisition.
type CancelHandle interface {
	Cancel()
}

// PoolCallbacks is supplied to ConnectionPool.NewConnection; exactly one of
// PoolReady or PoolFailure fires per acquisition.
type PoolCallbacks interface {
	PoolReady(conn UpstreamConnection)
	PoolFailure(reason PoolFailureReason)
}

// ConnectionPool multiplexes callers onto a bounded set of upstream TCP
// connections for one cluster. The router never implements this interface;
// it is satisfied by an external collaborator out of scope for this
// repository.
type ConnectionPool interface {
	// NewConnection requests a connection. It may resolve synchronously
	// (PoolCallbacks.PoolReady called before NewConnection returns, nil
	// CancelHandle returned) or asynchronously (non-nil CancelHandle
	// returned, PoolReady/PoolFailure called later).
	NewConnection(cb PoolCallbacks) CancelHandle
	// Released returns conn to the pool for reuse.
	Released(conn UpstreamConnection)
}

// ClusterInfo is the subset of cluster configuration the router consults:
// the cluster name and its maintenance state.
type ClusterInfo interface {
	Name() string
	MaintenanceMode() bool
}

// ClusterManager resolves a cluster by name to a connection pool. Absent
// return values signal unknown cluster / no healthy host, mapped by the
// router to the appropriate local failure response.
type ClusterManager interface {
	ClusterInfo(clusterName string) ClusterInfo
	TCPConnPoolForCluster(clusterName string) ConnectionPool
}
