package router

import (
	"github.com/apache/thrift/lib/go/thrift"

	"mosn.io/thrift-router/pkg/types"
)

// Stable substrings, matched by the test suite.
const (
	msgNoRoute            = "no route"
	msgUnknownCluster     = "unknown cluster"
	msgMaintenanceMode    = "maintenance mode"
	msgNoHealthyUpstream  = "no healthy upstream"
	msgConnectionFailure  = "connection failure"
	msgTooManyConnections = "too many connections"
)

func appExceptionNoRoute() types.AppException {
	return types.NewAppException(thrift.UNKNOWN_METHOD, msgNoRoute)
}

func appExceptionUnknownCluster() types.AppException {
	return types.NewAppException(thrift.INTERNAL_ERROR, msgUnknownCluster)
}

func appExceptionMaintenanceMode() types.AppException {
	return types.NewAppException(thrift.INTERNAL_ERROR, msgMaintenanceMode)
}

func appExceptionNoHealthyUpstream() types.AppException {
	return types.NewAppException(thrift.INTERNAL_ERROR, msgNoHealthyUpstream)
}

func appExceptionConnectionFailure() types.AppException {
	return types.NewAppException(thrift.INTERNAL_ERROR, msgConnectionFailure)
}

func appExceptionTooManyConnections() types.AppException {
	return types.NewAppException(thrift.INTERNAL_ERROR, msgTooManyConnections)
}

// poolFailureAppException maps a pool acquisition failure to the
// AppException a Call should receive. Overflow gets its own message since
// it's actionable (the caller can back off); every other failure reason
// collapses to a generic connection failure.
func poolFailureAppException(reason types.PoolFailureReason) types.AppException {
	if reason == types.Overflow {
		return appExceptionTooManyConnections()
	}
	return appExceptionConnectionFailure()
}

// onceCallbacks wraps DownstreamCallbacks so SendLocalReply is emitted at
// most once per router lifetime, regardless of whether the failure is
// discovered before an UpstreamRequest exists (no route / unknown cluster
// / maintenance / no healthy host) or after (pool failure, mid-response
// close).
type onceCallbacks struct {
	types.DownstreamCallbacks
	sent *bool
}

func guardSendLocalReply(cb types.DownstreamCallbacks) types.DownstreamCallbacks {
	sent := false
	return &onceCallbacks{DownstreamCallbacks: cb, sent: &sent}
}

func (o *onceCallbacks) SendLocalReply(ex types.AppException) {
	if *o.sent {
		return
	}
	*o.sent = true
	o.DownstreamCallbacks.SendLocalReply(ex)
}
