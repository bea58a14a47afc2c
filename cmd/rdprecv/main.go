// Command rdprecv is the RDP receiver CLI front-end (§6 "Receiver CLI"):
// binds a UDP socket, accepts one connection, and loops receive() into an
// output file until the stream closes.
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

// bufSize is the scratch buffer passed to Receive; large relative to
// rdp.MaxPayload so a single accept/receive loop can absorb a full burst
// between flushes.
const bufSize = 64 * 1024

var (
	debug       = flag.Bool("debug", false, "Log every packet send/receive at debug verbosity.")
	metricsAddr = flag.String("metrics-addr", "", "If set, serve Prometheus metrics on this address for the life of the transfer.")
)

func usage() {
	os.Stderr.WriteString("usage: rdprecv receiver_ip receiver_port out_file\n")
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 3 {
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

	ip, port, outFile := args[0], args[1], args[2]

	out, err := os.Create(outFile)
	rtx.Must(err, "could not create %q", outFile)
	defer out.Close()

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(ip, port))
	rtx.Must(err, "bad receiver address %s:%s", ip, port)

	conn, err := net.ListenUDP("udp", addr)
	rtx.Must(err, "could not bind %s", addr)
	defer conn.Close()

	sock := rdp.NewUDPSocket(conn)
	logger := rdp.NewLogrusLogger(log)

	c, err := rdp.Accept(sock, logger)
	if err != nil {
		log.Fatalf("accept: %v", err)
	}

	buf := make([]byte, bufSize)
	var recvErr error
	for {
		status, n, err := c.Receive(buf)
		if err != nil {
			recvErr = err
			break
		}
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				recvErr = werr
				break
			}
		}
		if status != rdp.StatusOpen {
			break
		}
	}

	c.Report(os.Stdout, false)
	metrics.Observe("receiver", c.Stats)

	if recvErr != nil {
		log.Errorf("transfer incomplete: %v", recvErr)
		os.Exit(1)
	}
}
