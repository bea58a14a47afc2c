package rdp

import "errors"

// Caller-visible error taxonomy (§7). Internal codec failures (bad magic,
// unknown fields, field-set mismatches) never reach the caller: the
// offending datagram is dropped and the engine keeps waiting.
var (
	// ErrConnectionTimeout: no response to the initial SYN after 3
	// exponentially-backed-off attempts.
	ErrConnectionTimeout = errors.New("rdp: connection timeout")

	// ErrConnectionReset: RST received, or an unexpected packet was seen
	// during a handshake.
	ErrConnectionReset = errors.New("rdp: connection reset")

	// ErrPeerUnresponsive: during send, 3 consecutive retransmission
	// rounds elapsed without receiving a single datagram; during close,
	// 3 FIN attempts went by without the expected ACK. Either way the
	// core has already sent RST to the peer.
	ErrPeerUnresponsive = errors.New("rdp: peer unresponsive")

	// ErrUnexpectedPacket: a passive accept received a non-SYN packet.
	ErrUnexpectedPacket = errors.New("rdp: unexpected packet")
)
