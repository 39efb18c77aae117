// Package types defines the interfaces and data shared between the router
// and its external collaborators (route table, connection pool, cluster
// manager, wire codec). None of those collaborators are implemented here.
package types

import (
	"github.com/apache/thrift/lib/go/thrift"
)

// FilterStatus is the return value of every decoder-callback method the
// router implements. Continue lets the decoder proceed to the next event;
// StopIteration suspends the decoder until the router calls
// DownstreamCallbacks.ContinueDecoding.
type FilterStatus int

const (
	Continue FilterStatus = iota
	StopIteration
)

func (s FilterStatus) String() string {
	if s == StopIteration {
		return "StopIteration"
	}
	return "Continue"
}

// MessageMetadata is the decoded Thrift message header: method name,
// message kind, and sequence id. It is immutable once received.
type MessageMetadata struct {
	MethodName  string
	MessageType thrift.TMessageType
	SeqID       int32
}

// Oneway reports whether the message type carries no reply.
func (m MessageMetadata) Oneway() bool {
	return m.MessageType == thrift.ONEWAY
}

// HashedValue is a consistent-hashing key. Unused today, but defined so
// load-balancer integration is a future extension point without API churn.
type HashedValue [16]byte
