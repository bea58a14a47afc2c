package rdp

import (
	"net"
	"time"
)

// BufSize is the maximum datagram size (header + payload) the substrate
// will carry, and the size of the receiver's advertised window on accept
// (§4.1, §4.4.1).
const BufSize = 1024

// MaxPayload is the largest DAT payload this sender ever emits, chosen so
// header + payload always fits under BufSize (§4.3.2).
const MaxPayload = 959

// Stats holds the per-connection counters and elapsed-time metric from §3.
// "Unique" fields count first transmission/delivery only; retransmissions
// and duplicate receptions only move the Total counters.
type Stats struct {
	TotalDataBytes    uint32
	UniqueDataBytes   uint32
	TotalDataPackets  uint32
	UniqueDataPackets uint32
	Ack               uint32
	Syn               uint16
	Fin               uint16
	RstReceived       uint16
	RstSent           uint16
	Elapsed           time.Duration
}

// Connection is the mutable per-connection state shared by both engines
// (§3 "Connection"). number is the sender's next-unacknowledged byte or
// the receiver's next-expected byte; window is the receiver's currently
// advertised space, learned by the sender or owned by the receiver.
//
// A Connection is created zeroed by Connect (active) or Accept (passive),
// mutated exclusively by the owning engine's thread of control, and
// finalized by endTiming after Close or RST receipt. No locking is
// required: §5 "Shared resources" — the connection record is exclusively
// mutated by the thread that owns it.
type Connection struct {
	Self  net.Addr
	Peer  net.Addr
	Stats Stats
	Number uint32
	Window uint32

	sock   Socket
	logger Logger
	start  time.Time
}

func newConnection(sock Socket, logger Logger, peer net.Addr) *Connection {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Connection{
		Self:   sock.LocalAddr(),
		Peer:   peer,
		sock:   sock,
		logger: logger,
	}
}

// beginTiming records the wall-clock start of the connection (§4.2).
func (c *Connection) beginTiming() {
	c.start = time.Now()
}

// endTiming finalizes Stats.Elapsed. Go's time.Duration subtraction is
// exact, so — unlike the C original's manual tv_usec borrow arithmetic —
// no special-casing of the microsecond boundary is needed to get a
// correct elapsed duration.
func (c *Connection) endTiming() {
	c.Stats.Elapsed = time.Since(c.start)
}

func (c *Connection) log(kind EventKind, src, dst net.Addr, p Packet) {
	e := Event{Kind: kind, Src: src, Dst: dst, Type: p.Type}
	switch p.Type {
	case TypeACK:
		e.Number, e.HasNumber = p.Number, true
		e.Info, e.HasInfo = p.Info, true
	case TypeDAT:
		e.Number, e.HasNumber = p.Number, true
		e.Info, e.HasInfo = p.Info, true
	case TypeFIN, TypeSYN:
		e.Number, e.HasNumber = p.Number, true
	case TypeRST:
		// neither field
	}
	c.logger.Log(e)
}

func (c *Connection) logSend(kind EventKind, dst net.Addr, p Packet) {
	c.log(kind, c.Self, dst, p)
}

func (c *Connection) logRecv(kind EventKind, src net.Addr, p Packet) {
	c.log(kind, src, c.Self, p)
}
