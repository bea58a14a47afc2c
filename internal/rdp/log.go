package rdp

import (
	"fmt"
	"net"
	"time"
)

// Event is the side-band log sink's input (§4.5). It never affects
// protocol state. Design Notes §9 recommends injecting a logger handle
// through the connection record instead of writing to a process-global
// stream, so the core is testable without stdout capture; Logger is that
// handle.
type Event struct {
	Kind   EventKind
	Src    net.Addr
	Dst    net.Addr
	Type   PacketType
	Number uint32
	Info   uint32
	// HasNumber/HasInfo follow the per-type field counts in §4.5: ACK/DAT
	// carry both, FIN/SYN carry only Number, RST carries neither.
	HasNumber bool
	HasInfo   bool
}

// EventKind is one of the four log markers from §4.5.
type EventKind byte

const (
	EventSend      EventKind = 's'
	EventResend    EventKind = 'S'
	EventReceive   EventKind = 'r'
	EventDuplicate EventKind = 'R'
)

// Logger is an injectable sink for protocol events. Implementations must
// not block the engine for long or mutate connection state.
type Logger interface {
	Log(Event)
}

// NopLogger discards every event; it is the default for connections that
// don't wire one in, and is used throughout the unit tests so assertions
// don't depend on stdout.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(Event) {}

func fmtAddr(a net.Addr) string {
	if a == nil {
		return "?:?"
	}
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return a.String()
	}
	return host + ":" + port
}

// Line renders e as the §4.5 line:
//
//	HH:MM:SS.us E SRC:PORT DST:PORT TYPE [number [info]]
func Line(e Event, now time.Time) string {
	h, m, s := now.Clock()
	us := now.Nanosecond() / 1000
	line := fmt.Sprintf("%02d:%02d:%02d.%06d %c %s %s %s",
		h, m, s, us, byte(e.Kind), fmtAddr(e.Src), fmtAddr(e.Dst), e.Type)
	if e.HasNumber {
		line += fmt.Sprintf(" %d", e.Number)
	}
	if e.HasInfo {
		line += fmt.Sprintf(" %d", e.Info)
	}
	return line
}
