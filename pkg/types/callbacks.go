package types

import (
	"net"

	"github.com/apache/thrift/lib/go/thrift"
	"mosn.io/pkg/buffer"
)

// AppException is the user-visible failure surface for a Call: a Thrift
// application exception handed to SendLocalReply. The downstream filter
// chain (out of scope here) serializes it as a Reply.
type AppException struct {
	exc thrift.TApplicationException
}

// NewAppException builds an AppException of the given thrift application
// exception type (e.g. thrift.UNKNOWN_METHOD, thrift.INTERNAL_ERROR) with
// the given message. Callers in pkg/router/errors.go are the single
// source of truth for the stable substrings each failure kind uses.
func NewAppException(typeID int32, message string) AppException {
	return AppException{exc: thrift.NewTApplicationException(typeID, message)}
}

// Type returns the Thrift application exception type id.
func (a AppException) Type() int32 {
	return a.exc.TypeId()
}

// What returns the human-readable message, matched by substring in tests.
func (a AppException) What() string {
	return a.exc.Error()
}

// DownstreamCallbacks is the router's view of the downstream decoder and
// connection. It is implemented by the outer filter chain, out of scope
// for this repository.
type DownstreamCallbacks interface {
	// Connection returns the downstream TCP connection, resolvable any
	// time between TransportBegin and teardown.
	Connection() net.Conn
	// ContinueDecoding resumes a decoder suspended by a prior
	// StopIteration return.
	ContinueDecoding()
	// SendLocalReply delivers a locally-generated AppException in place
	// of an upstream round trip. Called at most once per router lifetime.
	SendLocalReply(ex AppException)
	// ResetDownstreamConnection drops the downstream connection when no
	// reply channel exists or a partial response already went out.
	ResetDownstreamConnection()
	// StartUpstreamResponse configures the downstream response decoder.
	// Called exactly once per Call, before the first UpstreamData call.
	StartUpstreamResponse(transport Transport, protocol Protocol)
	// UpstreamData feeds upstream response bytes to the response
	// decoder, returning true once a complete reply has been parsed.
	UpstreamData(buf buffer.IoBuffer) bool
}
