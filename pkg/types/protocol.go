package types

import (
	"github.com/apache/thrift/lib/go/thrift"
	"mosn.io/pkg/buffer"
)

// Protocol is the upstream encoder contract: one call per structural/value
// event of the downstream decode, writing into a shared IoBuffer that the
// router flushes via Transport.EncodeFrame at messageEnd. An implementation
// is generally an external collaborator (Thrift codecs aren't implemented
// in this repo); the router only depends on this interface.
type Protocol interface {
	WriteMessageBegin(buf buffer.IoBuffer, meta MessageMetadata) error
	WriteMessageEnd(buf buffer.IoBuffer) error

	WriteStructBegin(buf buffer.IoBuffer) error
	WriteStructEnd(buf buffer.IoBuffer) error

	WriteFieldBegin(buf buffer.IoBuffer, name string, typeID thrift.TType, id int16) error
	WriteFieldEnd(buf buffer.IoBuffer) error

	WriteMapBegin(buf buffer.IoBuffer, keyType, valueType thrift.TType, size int) error
	WriteMapEnd(buf buffer.IoBuffer) error
	WriteListBegin(buf buffer.IoBuffer, elemType thrift.TType, size int) error
	WriteListEnd(buf buffer.IoBuffer) error
	WriteSetBegin(buf buffer.IoBuffer, elemType thrift.TType, size int) error
	WriteSetEnd(buf buffer.IoBuffer) error

	WriteBool(buf buffer.IoBuffer, value bool) error
	WriteByte(buf buffer.IoBuffer, value int8) error
	WriteI16(buf buffer.IoBuffer, value int16) error
	WriteI32(buf buffer.IoBuffer, value int32) error
	WriteI64(buf buffer.IoBuffer, value int64) error
	WriteDouble(buf buffer.IoBuffer, value float64) error
	WriteString(buf buffer.IoBuffer, value string) error

	// SupportsUpgrade reports whether this protocol negotiates an
	// alternative encoding on a fresh connection before the first request.
	SupportsUpgrade() bool
	// AttemptUpgrade either fills buf with upgrade-request bytes and
	// returns a non-nil UpgradeParser (handshake in progress), or returns
	// a nil parser (skip) when state already shows the connection
	// upgraded. transport is passed through so an implementation that
	// needs to frame its handshake bytes (rather than write them raw) has
	// access to the negotiated Transport without a second call.
	AttemptUpgrade(transport Transport, state *ConnectionState, buf buffer.IoBuffer) (UpgradeParser, error)
	// CompleteUpgrade persists upgrade completion onto state.
	CompleteUpgrade(state *ConnectionState, parser UpgradeParser) error
}

// Transport frames an encoded message for the wire.
type Transport interface {
	EncodeFrame(out buffer.IoBuffer, meta MessageMetadata, buf buffer.IoBuffer) error
}

// UpgradeParser consumes upstream bytes during an in-progress upgrade
// handshake until the handshake completes.
type UpgradeParser interface {
	OnData(buf buffer.IoBuffer) (done bool, err error)
}
