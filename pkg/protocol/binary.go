// Package protocol provides Protocol/Transport implementations satisfying
// pkg/types. BinaryProtocol and FramedTransport here are a minimal
// reference codec so the router is runnable and testable without requiring
// a full third-party codec wired in at every call site.
package protocol

import (
	"encoding/binary"
	"math"

	"github.com/apache/thrift/lib/go/thrift"
	"mosn.io/pkg/buffer"

	"mosn.io/thrift-router/pkg/types"
)

// BinaryProtocol is a minimal unframed Thrift binary protocol encoder. It
// never upgrades.
type BinaryProtocol struct{}

func NewBinaryProtocol() *BinaryProtocol {
	return &BinaryProtocol{}
}

func writeI32(buf buffer.IoBuffer, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := buf.Write(b[:])
	return err
}

func writeI16(buf buffer.IoBuffer, v int16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	_, err := buf.Write(b[:])
	return err
}

func writeI64(buf buffer.IoBuffer, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err := buf.Write(b[:])
	return err
}

func writeStringValue(buf buffer.IoBuffer, v string) error {
	if err := writeI32(buf, int32(len(v))); err != nil {
		return err
	}
	_, err := buf.Write([]byte(v))
	return err
}

func (p *BinaryProtocol) WriteMessageBegin(buf buffer.IoBuffer, meta types.MessageMetadata) error {
	if err := writeStringValue(buf, meta.MethodName); err != nil {
		return err
	}
	if _, err := buf.Write([]byte{byte(meta.MessageType)}); err != nil {
		return err
	}
	return writeI32(buf, meta.SeqID)
}

func (p *BinaryProtocol) WriteMessageEnd(buf buffer.IoBuffer) error { return nil }

func (p *BinaryProtocol) WriteStructBegin(buf buffer.IoBuffer) error { return nil }
func (p *BinaryProtocol) WriteStructEnd(buf buffer.IoBuffer) error   { return nil }

func (p *BinaryProtocol) WriteFieldBegin(buf buffer.IoBuffer, name string, typeID thrift.TType, id int16) error {
	if _, err := buf.Write([]byte{byte(typeID)}); err != nil {
		return err
	}
	if typeID == thrift.STOP {
		return nil
	}
	return writeI16(buf, id)
}

func (p *BinaryProtocol) WriteFieldEnd(buf buffer.IoBuffer) error { return nil }

func (p *BinaryProtocol) WriteMapBegin(buf buffer.IoBuffer, keyType, valueType thrift.TType, size int) error {
	if _, err := buf.Write([]byte{byte(keyType), byte(valueType)}); err != nil {
		return err
	}
	return writeI32(buf, int32(size))
}
func (p *BinaryProtocol) WriteMapEnd(buf buffer.IoBuffer) error { return nil }

func (p *BinaryProtocol) WriteListBegin(buf buffer.IoBuffer, elemType thrift.TType, size int) error {
	if _, err := buf.Write([]byte{byte(elemType)}); err != nil {
		return err
	}
	return writeI32(buf, int32(size))
}
func (p *BinaryProtocol) WriteListEnd(buf buffer.IoBuffer) error { return nil }

func (p *BinaryProtocol) WriteSetBegin(buf buffer.IoBuffer, elemType thrift.TType, size int) error {
	if _, err := buf.Write([]byte{byte(elemType)}); err != nil {
		return err
	}
	return writeI32(buf, int32(size))
}
func (p *BinaryProtocol) WriteSetEnd(buf buffer.IoBuffer) error { return nil }

func (p *BinaryProtocol) WriteBool(buf buffer.IoBuffer, value bool) error {
	b := byte(0)
	if value {
		b = 1
	}
	_, err := buf.Write([]byte{b})
	return err
}

func (p *BinaryProtocol) WriteByte(buf buffer.IoBuffer, value int8) error {
	_, err := buf.Write([]byte{byte(value)})
	return err
}

func (p *BinaryProtocol) WriteI16(buf buffer.IoBuffer, value int16) error { return writeI16(buf, value) }
func (p *BinaryProtocol) WriteI32(buf buffer.IoBuffer, value int32) error { return writeI32(buf, value) }
func (p *BinaryProtocol) WriteI64(buf buffer.IoBuffer, value int64) error { return writeI64(buf, value) }

func (p *BinaryProtocol) WriteDouble(buf buffer.IoBuffer, value float64) error {
	return writeI64(buf, int64(math.Float64bits(value)))
}

func (p *BinaryProtocol) WriteString(buf buffer.IoBuffer, value string) error {
	return writeStringValue(buf, value)
}

func (p *BinaryProtocol) SupportsUpgrade() bool { return false }

func (p *BinaryProtocol) AttemptUpgrade(transport types.Transport, state *types.ConnectionState, buf buffer.IoBuffer) (types.UpgradeParser, error) {
	return nil, nil
}

func (p *BinaryProtocol) CompleteUpgrade(state *types.ConnectionState, parser types.UpgradeParser) error {
	return nil
}

// FramedTransport wraps an encoded message buffer in a 4-byte big-endian
// length-prefixed frame, the classic Thrift TFramedTransport wire shape.
type FramedTransport struct{}

func NewFramedTransport() *FramedTransport {
	return &FramedTransport{}
}

func (t *FramedTransport) EncodeFrame(out buffer.IoBuffer, meta types.MessageMetadata, buf buffer.IoBuffer) error {
	if err := writeI32(out, int32(buf.Len())); err != nil {
		return err
	}
	_, err := out.Write(buf.Bytes())
	return err
}
