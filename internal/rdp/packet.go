// Package rdp implements the reliable datagram protocol core: packet
// codec, connection state, and the sender/receiver engines that drive a
// connection over an unreliable datagram substrate.
package rdp

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// Magic identifies this protocol family on the wire.
const Magic = "cscs361p2"

// PacketType is the wire Type label of an RDP packet.
type PacketType int

const (
	TypeACK PacketType = iota
	TypeDAT
	TypeFIN
	TypeRST
	TypeSYN
)

var typeNames = [...]string{"ACK", "DAT", "FIN", "RST", "SYN"}

func (t PacketType) String() string {
	if t < TypeACK || t > TypeSYN {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// header field bits, used only while accumulating the observed field set
// during parsing; they never outlive parse().
const (
	bitAck = 1 << iota
	bitMagic
	bitPayload
	bitSequence
	bitType
	bitWindow
	bitHasData
)

// canonical field-set masks per type (§4.1). DAT additionally requires
// bitHasData only when the Payload field is non-zero — see SPEC_FULL.md
// "Open Questions — Decisions" #1.
var canonicalMask = [...]int{
	TypeACK: bitMagic | bitType | bitAck | bitWindow,
	TypeDAT: bitMagic | bitType | bitSequence | bitPayload,
	TypeFIN: bitMagic | bitType | bitSequence,
	TypeRST: bitMagic | bitType,
	TypeSYN: bitMagic | bitType | bitSequence,
}

// fieldNames is sorted case-insensitively for binary search, per §4.1
// "Binary search."
var fieldNames = []string{
	"acknowledgement",
	"magic",
	"payload",
	"sequence",
	"type",
	"window",
}

var fieldBits = []int{
	bitAck,
	bitMagic,
	bitPayload,
	bitSequence,
	bitType,
	bitWindow,
}

// Packet is the parsed form of a datagram, discriminated by Type. Only
// the fields relevant to that Type are meaningful; Data is only
// populated for DAT. The smart constructors below (SYN, ACK, DAT, FIN,
// RST) and Parse set only the fields relevant to the Type; the fields
// are exported, so a struct literal can still set any combination (see
// DESIGN.md for why this is a flat struct rather than a sum type).
type Packet struct {
	Type     PacketType
	Number   uint32 // Sequence (SYN/DAT/FIN) or Acknowledgement (ACK)
	Info     uint32 // Payload length (DAT) or Window (ACK)
	Data     []byte // payload slice for DAT; aliases the input buffer
	HasFields bool  // true once successfully parsed; zero value is invalid
}

// SYN builds a SYN packet carrying the initial sequence number.
func SYN(seq uint32) Packet { return Packet{Type: TypeSYN, Number: seq, HasFields: true} }

// ACK builds an ACK packet.
func ACK(ack, window uint32) Packet {
	return Packet{Type: TypeACK, Number: ack, Info: window, HasFields: true}
}

// DAT builds a DAT packet carrying payload bytes. data is not copied.
func DAT(seq uint32, data []byte) Packet {
	return Packet{Type: TypeDAT, Number: seq, Info: uint32(len(data)), Data: data, HasFields: true}
}

// FIN builds a FIN packet.
func FIN(seq uint32) Packet { return Packet{Type: TypeFIN, Number: seq, HasFields: true} }

// RST builds a reset packet.
func RST() Packet { return Packet{Type: TypeRST, HasFields: true} }

// Serialize renders p as the minimal ASCII header, "\n\n", and (for DAT)
// the payload bytes. Integer fields render in decimal without leading
// zeros (§4.1 "Serialization contract").
func (p Packet) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteString("Magic: ")
	buf.WriteString(Magic)
	buf.WriteByte('\n')
	buf.WriteString("Type: ")
	buf.WriteString(p.Type.String())
	buf.WriteByte('\n')

	switch p.Type {
	case TypeACK:
		fmt.Fprintf(&buf, "Acknowledgement: %d\nWindow: %d\n", p.Number, p.Info)
	case TypeDAT:
		fmt.Fprintf(&buf, "Sequence: %d\nPayload: %d\n", p.Number, p.Info)
	case TypeFIN, TypeSYN:
		fmt.Fprintf(&buf, "Sequence: %d\n", p.Number)
	case TypeRST:
		// no fields beyond magic and type
	}

	buf.WriteByte('\n')
	if p.Type == TypeDAT {
		buf.Write(p.Data)
	}
	return buf.Bytes()
}

// isDelim reports whether b is one of the header tokenizer's delimiters:
// space, tab, newline, or colon (§4.1 step 3).
func isDelim(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == ':'
}

// tokenize splits header into whitespace/colon-delimited tokens, mirroring
// the C source's strtok_r over " \t\n:".
func tokenize(header []byte) []string {
	var tokens []string
	start := -1
	for i, b := range header {
		if isDelim(b) {
			if start >= 0 {
				tokens = append(tokens, string(header[start:i]))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(header[start:]))
	}
	return tokens
}

func bsearchField(name string) int {
	i := sort.Search(len(fieldNames), func(i int) bool {
		return !ciLess(fieldNames[i], name)
	})
	if i < len(fieldNames) && ciEqual(fieldNames[i], name) {
		return i
	}
	return -1
}

func bsearchType(name string) int {
	i := sort.Search(len(typeNames), func(i int) bool {
		return !ciLess(typeNames[i], name)
	})
	if i < len(typeNames) && ciEqual(typeNames[i], name) {
		return i
	}
	return -1
}

func ciEqual(a, b string) bool { return bytes.EqualFold([]byte(a), []byte(b)) }

func ciLess(a, b string) bool {
	la, lb := lowerASCII(a), lowerASCII(b)
	return la < lb
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Parse implements the §4.1 parsing contract. It returns ok=false for any
// of the failure kinds listed there (missing-separator, unknown-field,
// truncated-pair, bad-magic, unknown-type, field-set-mismatch); callers
// must silently discard the datagram on ok=false (§7).
func Parse(buf []byte) (Packet, bool) {
	sep := bytes.Index(buf, []byte("\n\n"))
	if sep < 0 {
		return Packet{}, false
	}
	header := buf[:sep]
	data := buf[sep+2:]

	contents := 0
	if len(data) > 0 {
		contents |= bitHasData
	}

	var pkt Packet
	pkt.Type = -1

	tokens := tokenize(header)
	for i := 0; i < len(tokens); {
		field := bsearchField(tokens[i])
		if field < 0 {
			return Packet{}, false
		}
		i++
		if i >= len(tokens) {
			return Packet{}, false
		}
		value := tokens[i]
		i++

		switch fieldNames[field] {
		case "magic":
			if !ciEqual(value, Magic) {
				return Packet{}, false
			}
		case "type":
			t := bsearchType(value)
			if t < 0 {
				return Packet{}, false
			}
			pkt.Type = PacketType(t)
		case "acknowledgement", "sequence":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Packet{}, false
			}
			pkt.Number = uint32(n)
		case "payload", "window":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return Packet{}, false
			}
			pkt.Info = uint32(n)
		}

		contents |= fieldBits[field]
	}

	if pkt.Type < TypeACK || pkt.Type > TypeSYN {
		return Packet{}, false
	}

	want := canonicalMask[pkt.Type]
	got := contents
	if pkt.Type == TypeDAT {
		// HAS-DATA only joins the canonical mask when a payload was
		// actually declared (Open Questions §9.1).
		if pkt.Info == 0 {
			got &^= bitHasData
		} else {
			want |= bitHasData
		}
	} else {
		got &^= bitHasData
	}
	if got != want {
		return Packet{}, false
	}

	if pkt.Type == TypeDAT {
		if uint32(len(data)) < pkt.Info {
			return Packet{}, false
		}
		pkt.Data = data[:pkt.Info]
	}

	pkt.HasFields = true
	return pkt, true
}
