package rdp

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestHappyPathTransfer(t *testing.T) {
	senderSock, receiverSock, closeFn := udpPair(t)
	defer closeFn()

	payload := bytes.Repeat([]byte("0123456789"), 300) // 3000 bytes

	var wg sync.WaitGroup
	var received []byte
	var recvConn *Connection
	var acceptErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		recvConn, err = Accept(receiverSock, NopLogger{})
		if err != nil {
			acceptErr = err
			return
		}
		buf := make([]byte, 8192)
		for {
			status, n, err := recvConn.Receive(buf)
			if err != nil {
				acceptErr = err
				return
			}
			received = append(received, buf[:n]...)
			if status != StatusOpen {
				return
			}
		}
	}()

	senderConn, err := Connect(senderSock, receiverSock.LocalAddr(), NopLogger{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := senderConn.Send(payload); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := senderConn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wg.Wait()
	if acceptErr != nil {
		t.Fatalf("receiver: %v", acceptErr)
	}

	// Delivery equivalence (§8).
	if !bytes.Equal(received, payload) {
		t.Fatalf("delivered %d bytes, want %d bytes, equal=%v", len(received), len(payload), bytes.Equal(received, payload))
	}

	if senderConn.Stats.UniqueDataBytes != uint32(len(payload)) {
		t.Errorf("sender unique data bytes = %d, want %d", senderConn.Stats.UniqueDataBytes, len(payload))
	}
	if senderConn.Stats.UniqueDataBytes > senderConn.Stats.TotalDataBytes {
		t.Errorf("counter coherence violated: unique %d > total %d", senderConn.Stats.UniqueDataBytes, senderConn.Stats.TotalDataBytes)
	}
	if recvConn.Stats.UniqueDataPackets > recvConn.Stats.TotalDataPackets {
		t.Errorf("receiver counter coherence violated")
	}
	// 3000 bytes / 959 MaxPayload => 4 DAT segments.
	if senderConn.Stats.UniqueDataPackets != 4 {
		t.Errorf("unique data packets = %d, want 4", senderConn.Stats.UniqueDataPackets)
	}
}

func TestZeroLengthSendEmitsNoDAT(t *testing.T) {
	senderSock, receiverSock, closeFn := udpPair(t)
	defer closeFn()

	var wg sync.WaitGroup
	var status int
	var acceptErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := Accept(receiverSock, NopLogger{})
		if err != nil {
			acceptErr = err
			return
		}
		buf := make([]byte, 8192)
		status, _, acceptErr = c.Receive(buf)
	}()

	senderConn, err := Connect(senderSock, receiverSock.LocalAddr(), NopLogger{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := senderConn.Send(nil); err != nil {
		t.Fatalf("Send(nil): %v", err)
	}
	if senderConn.Stats.TotalDataPackets != 0 {
		t.Errorf("zero-length send emitted %d DAT packets, want 0", senderConn.Stats.TotalDataPackets)
	}
	if err := senderConn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wg.Wait()
	if acceptErr != nil {
		t.Fatalf("receiver: %v", acceptErr)
	}
	if status != StatusClosed {
		t.Errorf("status = %d, want StatusClosed", status)
	}
}

func TestLostFirstACKOnConnectRetransmitsSYN(t *testing.T) {
	senderSock, receiverSock, closeFn := udpPair(t)
	defer closeFn()

	// Drop the receiver's first ACK so the sender must retransmit SYN.
	faulty := &faultySocket{
		Socket: receiverSock,
		match: func(b []byte) bool {
			p, ok := Parse(b)
			return ok && p.Type == TypeACK
		},
		dropCount: 1,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		Accept(faulty, NopLogger{}) // first SYN's ACK reply is dropped
		Accept(faulty, NopLogger{}) // retransmitted SYN gets a real ACK
	}()

	senderConn, err := Connect(senderSock, receiverSock.LocalAddr(), NopLogger{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	wg.Wait()

	if senderConn.Stats.Syn < 2 {
		t.Errorf("stats.Syn = %d, want >= 2 after a dropped ACK", senderConn.Stats.Syn)
	}
}

func TestRSTDuringReceiveReportsReset(t *testing.T) {
	senderSock, receiverSock, closeFn := udpPair(t)
	defer closeFn()

	var wg sync.WaitGroup
	var status int
	var recvErr error
	var c *Connection

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		c, err = Accept(receiverSock, NopLogger{})
		if err != nil {
			recvErr = err
			return
		}
		buf := make([]byte, 8192)
		status, _, recvErr = c.Receive(buf)
	}()

	senderConn, err := Connect(senderSock, receiverSock.LocalAddr(), NopLogger{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := senderSock.Send(RST().Serialize(), receiverSock.LocalAddr()); err != nil {
		t.Fatalf("send RST: %v", err)
	}

	wg.Wait()
	if recvErr != nil {
		t.Fatalf("receiver: %v", recvErr)
	}
	if status != StatusReset {
		t.Errorf("status = %d, want StatusReset", status)
	}
	if c.Stats.RstReceived != 1 {
		t.Errorf("stats.RstReceived = %d, want 1", c.Stats.RstReceived)
	}
	_ = senderConn
}

func TestAcceptRejectsNonSYN(t *testing.T) {
	senderSock, receiverSock, closeFn := udpPair(t)
	defer closeFn()

	done := make(chan struct{})
	go func() {
		senderSock.Send(RST().Serialize(), receiverSock.LocalAddr())
		close(done)
	}()

	_, err := Accept(receiverSock, NopLogger{})
	if err != ErrUnexpectedPacket {
		t.Errorf("Accept err = %v, want ErrUnexpectedPacket", err)
	}
	if !waitFor(done, time.Second) {
		t.Fatal("sender goroutine did not finish")
	}
}
