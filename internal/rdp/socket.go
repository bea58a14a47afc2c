package rdp

import (
	"errors"
	"net"
	"os"
	"time"
)

// Socket abstracts the substrate's send_datagram / recv_datagram /
// wait_readable(timeout) operations (§1, §5). The engines are written
// against this interface rather than *net.UDPConn so tests can wrap a
// loopback socket in a shim that drops chosen datagrams.
//
// Recv blocks until a datagram arrives or timeout elapses; timeout == 0
// blocks indefinitely (used by Accept and Receive). A
// timeout expiring is reported as ErrTimeout, which is the Go substitute
// for a separate wait_readable call returning "not readable" — idiomatic
// Go uses a read deadline instead of select() on a single descriptor.
type Socket interface {
	Send(b []byte, addr net.Addr) error
	Recv(b []byte, timeout time.Duration) (n int, from net.Addr, err error)
	LocalAddr() net.Addr
}

// ErrTimeout is returned by Socket.Recv when no datagram arrives before
// the deadline.
var ErrTimeout = errors.New("rdp: read timeout")

// udpSocket adapts *net.UDPConn to Socket.
type udpSocket struct {
	conn *net.UDPConn
}

// NewUDPSocket wraps an already-bound *net.UDPConn.
func NewUDPSocket(conn *net.UDPConn) Socket {
	return &udpSocket{conn: conn}
}

func (s *udpSocket) Send(b []byte, addr net.Addr) error {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		_, err := s.conn.WriteTo(b, addr)
		return err
	}
	_, err := s.conn.WriteToUDP(b, udpAddr)
	return err
}

func (s *udpSocket) Recv(b []byte, timeout time.Duration) (int, net.Addr, error) {
	if timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, nil, err
		}
	} else {
		if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
			return 0, nil, err
		}
	}

	n, addr, err := s.conn.ReadFromUDP(b)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, nil, ErrTimeout
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil, ErrTimeout
		}
		return 0, nil, err
	}
	return n, addr, nil
}

func (s *udpSocket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}
