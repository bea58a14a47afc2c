package rdp

// Connection status codes returned by Receive (§4.4.2, §6).
const (
	StatusReset  = -1 // RST received; connection torn down
	StatusClosed = 0  // FIN processed; connection torn down
	StatusOpen   = 1  // buf is full enough that the caller should flush and call again
)

// Accept performs the passive handshake (§4.4.1): read one datagram; if
// it is SYN(seq=S), adopt number=S+1, advertise window=BufSize, and
// reply ACK. Anything else fails with ErrUnexpectedPacket and no reply.
func Accept(sock Socket, logger Logger) (*Connection, error) {
	c := newConnection(sock, logger, nil)
	c.beginTiming()

	buf := make([]byte, BufSize)
	n, from, err := sock.Recv(buf, 0)
	if err != nil {
		return nil, err
	}
	c.Peer = from

	pkt, ok := Parse(buf[:n])
	if !ok {
		return nil, ErrUnexpectedPacket
	}
	if pkt.Type != TypeSYN {
		switch pkt.Type {
		case TypeFIN:
			c.Stats.Fin++
		case TypeRST:
			c.Stats.RstReceived++
		}
		c.logRecv(EventReceive, from, pkt)
		return nil, ErrUnexpectedPacket
	}

	c.logRecv(EventReceive, from, pkt)
	c.Number = pkt.Number + 1
	c.Window = BufSize

	reply := ACK(c.Number, c.Window)
	if err := sock.Send(reply.Serialize(), from); err != nil {
		return nil, err
	}
	c.Stats.Ack++
	c.logSend(EventSend, from, reply)

	return c, nil
}

// Receive delivers bytes into buf while capacity allows at least one more
// full segment (§4.4.2): it loops receiving datagrams, delivering
// in-order DAT payloads, discarding out-of-order/duplicate DAT (while
// still cumulatively re-ACKing), and handling FIN/SYN/RST, until either
// buf is nearly full (returns StatusOpen) or the connection terminates
// (StatusClosed / StatusReset).
func (c *Connection) Receive(buf []byte) (status int, n int, err error) {
	delivered := 0
	c.Window = uint32(len(buf))
	scratch := make([]byte, BufSize)

	for uint32(len(buf)-delivered) > MaxPayload {
		rn, from, rerr := c.sock.Recv(scratch, 0)
		if rerr != nil {
			return StatusOpen, delivered, rerr
		}

		pkt, ok := Parse(scratch[:rn])
		if !ok {
			continue
		}

		switch pkt.Type {
		case TypeDAT:
			switch {
			case pkt.Number == c.Number:
				copyLen := pkt.Info
				if copyLen > BufSize {
					copyLen = BufSize
				}
				copy(buf[delivered:], pkt.Data[:copyLen])
				delivered += int(copyLen)
				c.Number += copyLen
				c.Window -= copyLen
				c.Stats.UniqueDataBytes += pkt.Info
				c.Stats.UniqueDataPackets++
				c.logRecv(EventReceive, from, pkt)
			case pkt.Number < c.Number:
				c.logRecv(EventDuplicate, from, pkt)
			default:
				c.logRecv(EventReceive, from, pkt)
			}
			c.Stats.TotalDataBytes += pkt.Info
			c.Stats.TotalDataPackets++

		case TypeFIN:
			c.Stats.Fin++
			c.logRecv(EventReceive, from, pkt)
			reply := ACK(c.Number+1, c.Window)
			if err := c.sock.Send(reply.Serialize(), from); err != nil {
				return StatusClosed, delivered, err
			}
			c.Stats.Ack++
			c.logSend(EventSend, from, reply)
			c.endTiming()
			return StatusClosed, delivered, nil

		case TypeSYN:
			c.Stats.Syn++
			c.logRecv(EventReceive, from, pkt)

		case TypeRST:
			c.Stats.RstReceived++
			c.logRecv(EventReceive, from, pkt)
			c.endTiming()
			return StatusReset, delivered, nil

		default:
			// ACK or anything unexpected during receive: ignore, no re-ACK.
			continue
		}

		ack := ACK(c.Number, c.Window)
		if err := c.sock.Send(ack.Serialize(), from); err != nil {
			return StatusOpen, delivered, err
		}
		c.Stats.Ack++
		c.logSend(EventSend, from, ack)
	}

	return StatusOpen, delivered, nil
}
