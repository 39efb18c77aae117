package router

import (
	"mosn.io/pkg/buffer"
	"mosn.io/pkg/log"

	routerlog "mosn.io/thrift-router/pkg/log"
	"mosn.io/thrift-router/pkg/types"
)

// responseCoordinator feeds upstream bytes into the downstream decoder
// until a complete reply is parsed, handling truncation and mid-response
// connection loss. Only created for Call messages; Oneway never creates
// one since it has no reply to wait for.
type responseCoordinator struct {
	downstream types.DownstreamCallbacks
	transport  types.Transport
	protocol   types.Protocol

	started   bool
	completed bool
	logger    log.ErrorLogger
}

func newResponseCoordinator(downstream types.DownstreamCallbacks, transport types.Transport, protocol types.Protocol) *responseCoordinator {
	lg, _ := routerlog.CreateSubsystemLogger("stdout", log.ERROR, routerlog.CodeRouter)
	return &responseCoordinator{
		downstream: downstream,
		transport:  transport,
		protocol:   protocol,
		logger:     lg,
	}
}

// onUpstreamData feeds one chunk of upstream bytes to the downstream
// decoder. It returns true once the response is fully parsed (caller
// releases the connection) and reports whether the downstream connection
// should be reset (truncation).
func (c *responseCoordinator) onUpstreamData(buf buffer.IoBuffer, endStream bool) (done bool, truncated bool) {
	if c.completed {
		// A close event racing in after completion is benign; ignore
		// further data too.
		return false, false
	}
	if !c.started {
		c.downstream.StartUpstreamResponse(c.transport, c.protocol)
		c.started = true
	}

	complete := c.downstream.UpstreamData(buf)
	if complete {
		c.completed = true
		return true, false
	}
	if endStream {
		// Upstream ended the stream before a full reply was decoded:
		// treat as truncation, not as a completed response.
		c.completed = true
		return true, true
	}
	return false, false
}

// onUpstreamClose handles a RemoteClose/LocalClose event arriving on the
// connection. An event after completion is ignored.
func (c *responseCoordinator) onUpstreamClose() (shouldFail bool) {
	return !c.completed
}
