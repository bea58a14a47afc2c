package rdp

import (
	"fmt"
	"io"
)

// Report writes the formatted statistics block (§6 "stats(conn,
// is_sender)"). It reproduces the original C rdp_stats's dual-labeling:
// a sender's block labels its own counters "sent" and the peer-observed
// ACK/RST counters "received", and vice versa for a receiver (see
// SPEC_FULL.md "Supplemented Features" #1).
func (c *Connection) Report(w io.Writer, isSender bool) {
	mine, theirs := "sent", "received"
	rstMine, rstTheirs := c.Stats.RstSent, c.Stats.RstReceived
	if !isSender {
		mine, theirs = "received", "sent"
		rstMine, rstTheirs = c.Stats.RstReceived, c.Stats.RstSent
	}

	fmt.Fprintf(w, "total data bytes %s: %d\n", mine, c.Stats.TotalDataBytes)
	fmt.Fprintf(w, "unique data bytes %s: %d\n", mine, c.Stats.UniqueDataBytes)
	fmt.Fprintf(w, "total data packets %s: %d\n", mine, c.Stats.TotalDataPackets)
	fmt.Fprintf(w, "unique data packets %s: %d\n", mine, c.Stats.UniqueDataPackets)

	fmt.Fprintf(w, "SYN packets %s: %d\n", mine, c.Stats.Syn)
	fmt.Fprintf(w, "FIN packets %s: %d\n", mine, c.Stats.Fin)
	fmt.Fprintf(w, "RST packets %s: %d\n", mine, rstMine)
	fmt.Fprintf(w, "ACK packets %s: %d\n", theirs, c.Stats.Ack)
	fmt.Fprintf(w, "RST packets %s: %d\n", theirs, rstTheirs)

	fmt.Fprintf(w, "total time duration: %.3fs\n", c.Stats.Elapsed.Seconds())
}
