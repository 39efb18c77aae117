package protocol

import (
	"bytes"

	"mosn.io/pkg/buffer"

	"mosn.io/thrift-router/pkg/types"
)

var upgradeRequestMagic = []byte("THRIFT-UPGRADE-REQUEST")
var upgradeResponseMagic = []byte("THRIFT-UPGRADE-OK")

// UpgradingBinaryProtocol wraps BinaryProtocol and adds a minimal upgrade
// handshake without depending on a full header-protocol implementation: a
// fresh connection exchanges a fixed magic request/response pair once,
// then behaves exactly like BinaryProtocol.
type UpgradingBinaryProtocol struct {
	*BinaryProtocol
}

func NewUpgradingBinaryProtocol() *UpgradingBinaryProtocol {
	return &UpgradingBinaryProtocol{BinaryProtocol: NewBinaryProtocol()}
}

func (p *UpgradingBinaryProtocol) SupportsUpgrade() bool { return true }

func (p *UpgradingBinaryProtocol) AttemptUpgrade(transport types.Transport, state *types.ConnectionState, buf buffer.IoBuffer) (types.UpgradeParser, error) {
	if state != nil && state.Upgraded {
		// Skip: this connection already completed the handshake.
		return nil, nil
	}
	if _, err := buf.Write(upgradeRequestMagic); err != nil {
		return nil, err
	}
	return &upgradeResponseParser{}, nil
}

func (p *UpgradingBinaryProtocol) CompleteUpgrade(state *types.ConnectionState, parser types.UpgradeParser) error {
	if state != nil {
		state.Upgraded = true
	}
	return nil
}

// upgradeResponseParser waits for upgradeResponseMagic to appear in the
// upstream byte stream before reporting the handshake done.
type upgradeResponseParser struct {
	seen []byte
}

func (p *upgradeResponseParser) OnData(buf buffer.IoBuffer) (bool, error) {
	p.seen = append(p.seen, buf.Bytes()...)
	buf.Drain(buf.Len())
	idx := bytes.Index(p.seen, upgradeResponseMagic)
	if idx < 0 {
		return false, nil
	}
	// Any bytes past the magic belong to the first real response and are
	// dropped here deliberately: this reference codec does not support a
	// server that pipelines the reply behind the upgrade ack.
	return true, nil
}
