package rdp

import (
	"net"
	"time"
)

// faultySocket wraps a Socket and drops the first dropCount outgoing
// datagrams for which match returns true. It's the test-only substrate
// fault injector used to exercise the retransmission paths described in
// spec.md §8 "Concrete scenarios".
type faultySocket struct {
	Socket
	match     func(b []byte) bool
	dropCount int
	dropped   int
}

func (f *faultySocket) Send(b []byte, addr net.Addr) error {
	if f.dropped < f.dropCount && f.match(b) {
		f.dropped++
		return nil
	}
	return f.Socket.Send(b, addr)
}

func udpPair(t testingT) (a, b Socket, closeFn func()) {
	t.Helper()
	ac, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen a: %v", err)
	}
	bc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen b: %v", err)
	}
	return NewUDPSocket(ac), NewUDPSocket(bc), func() {
		ac.Close()
		bc.Close()
	}
}

// testingT is the minimal subset of *testing.T used by test helpers, so
// they can live outside _test.go-only files if ever reused.
type testingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

func waitFor(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
