// Command rdpsend is the RDP sender CLI front-end (§6 "Sender CLI"):
// binds a UDP socket, reads the source file, and drives connect / send /
// close / stats over the rdp core.
package main

import (
	"context"
	"flag"
	"net"
	"os"

	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
	"github.com/sirupsen/logrus"

	"github.com/brinewalk/rdp/internal/metrics"
	"github.com/brinewalk/rdp/internal/rdp"
)

var (
	debug       = flag.Bool("debug", false, "Log every packet send/receive at debug verbosity.")
	metricsAddr = flag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address for the life of the transfer.")
)

func usage() {
	os.Stderr.WriteString("usage: rdpsend sender_ip sender_port receiver_ip receiver_port file\n")
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 5 {
		usage()
	}

	log := logrus.New()
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if *metricsAddr != "" {
		srv := prometheusx.MustStartPrometheus(*metricsAddr)
		defer srv.Shutdown(context.Background())
	}

	srcIP, srcPort, dstIP, dstPort, file := args[0], args[1], args[2], args[3], args[4]

	data, err := os.ReadFile(file)
	rtx.Must(err, "could not read %q", file)

	srcAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(srcIP, srcPort))
	rtx.Must(err, "bad sender address %s:%s", srcIP, srcPort)
	dstAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(dstIP, dstPort))
	rtx.Must(err, "bad receiver address %s:%s", dstIP, dstPort)

	conn, err := net.ListenUDP("udp", srcAddr)
	rtx.Must(err, "could not bind %s", srcAddr)
	defer conn.Close()

	sock := rdp.NewUDPSocket(conn)
	logger := rdp.NewLogrusLogger(log)

	c, err := rdp.Connect(sock, dstAddr, logger)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	// Statistics are finalized and reported even when send/close fails
	// (§7 "Statistics are always finalized ... before returning,
	// including on error paths").
	sendErr := c.Send(data)
	if sendErr == nil {
		sendErr = c.Close()
	}

	c.Report(os.Stdout, true)
	metrics.Observe("sender", c.Stats)

	if sendErr != nil {
		log.Errorf("transfer incomplete: %v", sendErr)
		os.Exit(1)
	}
}
