package router

import (
	"mosn.io/pkg/buffer"

	"mosn.io/thrift-router/pkg/types"
)

// upgradeHandshake owns an in-progress upgrade parser between poolReady and
// the handshake's completion. It is discarded once the handshake completes
// or the request is destroyed.
type upgradeHandshake struct {
	parser      types.UpgradeParser
	pendingMeta types.MessageMetadata
}

// beginUpgrade runs the skip/in-progress decision for a newly acquired
// connection. On skip it returns (nil, nil) and the caller should proceed
// straight to writeMessageBegin. On in-progress it writes the handshake
// request to conn and returns the handshake to hold onto.
func beginUpgrade(proto types.Protocol, transport types.Transport, state *types.ConnectionState, conn types.UpstreamConnection, meta types.MessageMetadata) (*upgradeHandshake, error) {
	hsBuf := buffer.NewIoBuffer(64)
	parser, err := proto.AttemptUpgrade(transport, state, hsBuf)
	if err != nil {
		return nil, err
	}
	if parser == nil {
		return nil, nil
	}
	if err := conn.Write(hsBuf, false); err != nil {
		return nil, err
	}
	return &upgradeHandshake{parser: parser, pendingMeta: meta}, nil
}

// onData feeds upstream bytes to the handshake parser, returning true once
// the handshake is complete.
func (h *upgradeHandshake) onData(buf buffer.IoBuffer) (bool, error) {
	return h.parser.OnData(buf)
}
