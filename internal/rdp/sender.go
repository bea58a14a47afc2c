package rdp

import (
	"net"
	"time"
)

// Sender-side tuning constants (§4.3).
const (
	connectBaseRTO   = 1 * time.Second
	connectAttempts  = 3
	closeRTO         = 1 * time.Second
	closeAttempts    = 3
	burstSize        = 100
	waitRTO          = 250 * time.Millisecond
	maxSendRetries   = 3
)

// Connect performs the active handshake (§4.3.1): send SYN(seq=0), await
// ACK(ack=1, window). Up to connectAttempts tries with exponential
// backoff (base 2^attempt seconds) on the timeout only; data
// retransmission later uses a flat schedule (waitRTO).
func Connect(sock Socket, peer net.Addr, logger Logger) (*Connection, error) {
	c := newConnection(sock, logger, peer)
	c.beginTiming()

	buf := make([]byte, BufSize)
	syn := SYN(0)
	wire := syn.Serialize()

	for attempt := 0; attempt < connectAttempts; attempt++ {
		if err := sock.Send(wire, peer); err != nil {
			return nil, err
		}
		c.Stats.Syn++
		kind := EventSend
		if attempt > 0 {
			kind = EventResend
		}
		c.logSend(kind, peer, syn)

		timeout := connectBaseRTO << uint(attempt)
		n, from, err := sock.Recv(buf, timeout)
		if err == ErrTimeout {
			continue
		}
		if err != nil {
			return nil, err
		}

		pkt, ok := Parse(buf[:n])
		if ok {
			c.logRecv(EventReceive, from, pkt)
		}

		switch {
		case ok && pkt.Type == TypeACK && pkt.Number == syn.Number+1:
			c.Window = pkt.Info
			c.Number = syn.Number + 1
			c.Stats.Ack++
			return c, nil
		case ok && pkt.Type == TypeRST:
			c.Stats.RstReceived++
			return nil, ErrConnectionReset
		default:
			// anything else, including a malformed datagram: reset and fail.
			c.sendRST(from)
			return nil, ErrConnectionReset
		}
	}

	return nil, ErrConnectionTimeout
}

func (c *Connection) sendRST(to net.Addr) {
	rst := RST()
	if err := c.sock.Send(rst.Serialize(), to); err != nil {
		return
	}
	c.Stats.RstSent++
	c.logSend(EventSend, to, rst)
}

// Send transmits length bytes starting at the connection's current
// sequence number (§4.3.2). It blocks until every byte is acknowledged
// or the connection is reset, bursting up to burstSize DAT segments
// bounded by the receiver's advertised window before draining ACKs.
func (c *Connection) Send(data []byte) error {
	length := uint32(len(data))
	if length == 0 {
		// Boundary behavior: a zero-length send completes immediately
		// with no DAT emitted.
		return nil
	}

	baseSeq := c.Number
	wndRemaining := length
	prevMaxSeq := c.Number - 1
	retries := 0
	buf := make([]byte, BufSize)

	for wndRemaining > 0 {
		effectiveWindow := minU32(c.Window, wndRemaining)
		seq := c.Number
		left := effectiveWindow
		burstEnd := seq

		for i := 0; i < burstSize && left > 0; i++ {
			pay := minU32(left, MaxPayload)
			chunk := data[seq-baseSeq : seq-baseSeq+pay]
			pkt := DAT(seq, chunk)

			if err := c.sock.Send(pkt.Serialize(), c.Peer); err != nil {
				c.endTiming()
				return err
			}

			if seq > prevMaxSeq {
				prevMaxSeq = seq
				c.logSend(EventSend, c.Peer, pkt)
				c.Stats.UniqueDataBytes += pay
				c.Stats.UniqueDataPackets++
				c.Stats.TotalDataBytes += pay
				c.Stats.TotalDataPackets++
			} else {
				c.logSend(EventResend, c.Peer, pkt)
				c.Stats.TotalDataBytes += pay
				c.Stats.TotalDataPackets++
			}

			seq += pay
			left -= pay
			burstEnd = seq
		}

		received := 0

	drain:
		for {
			n, from, err := c.sock.Recv(buf, waitRTO)
			if err == ErrTimeout {
				break drain
			}
			if err != nil {
				c.endTiming()
				return err
			}
			received++

			pkt, ok := Parse(buf[:n])
			if !ok {
				continue
			}

			switch pkt.Type {
			case TypeACK:
				c.Stats.Ack++
				if pkt.Number > c.Number {
					c.logRecv(EventReceive, from, pkt)
					c.Number = pkt.Number
					c.Window = pkt.Info
					wndRemaining = length - (c.Number - baseSeq)
					if pkt.Number == burstEnd {
						break drain
					}
				} else {
					c.logRecv(EventDuplicate, from, pkt)
				}
			case TypeRST:
				c.Stats.RstReceived++
				c.logRecv(EventReceive, from, pkt)
				c.endTiming()
				return ErrConnectionReset
			default:
				// ignored; doesn't count against retries
			}
		}

		if received == 0 {
			retries++
		} else {
			retries = 0
		}

		if retries == maxSendRetries {
			c.sendRST(c.Peer)
			c.endTiming()
			return ErrPeerUnresponsive
		}
	}

	return nil
}

// Close performs the active teardown (§4.3.3): send FIN(seq=number),
// await ACK(ack=number+1). Fixed 1s timeout per attempt, no backoff.
func (c *Connection) Close() error {
	buf := make([]byte, BufSize)
	fin := FIN(c.Number)
	wire := fin.Serialize()

	for attempt := 0; attempt < closeAttempts; attempt++ {
		if err := c.sock.Send(wire, c.Peer); err != nil {
			c.endTiming()
			return err
		}
		c.Stats.Fin++
		kind := EventSend
		if attempt > 0 {
			kind = EventResend
		}
		c.logSend(kind, c.Peer, fin)

		n, from, err := c.sock.Recv(buf, closeRTO)
		if err == ErrTimeout {
			continue
		}
		if err != nil {
			c.endTiming()
			return err
		}

		pkt, ok := Parse(buf[:n])
		if !ok {
			c.sendRST(from)
			continue
		}

		if pkt.Type == TypeACK {
			c.Stats.Ack++
		}

		switch {
		case pkt.Type == TypeACK && pkt.Number == fin.Number+1:
			c.logRecv(EventReceive, from, pkt)
			c.endTiming()
			return nil
		case pkt.Type == TypeRST:
			c.Stats.RstReceived++
			c.logRecv(EventReceive, from, pkt)
			c.endTiming()
			return ErrConnectionReset
		default:
			c.logRecv(EventReceive, from, pkt)
			c.sendRST(from)
		}
	}

	c.sendRST(c.Peer)
	c.endTiming()
	return ErrPeerUnresponsive
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
