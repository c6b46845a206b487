package rawsocket

import (
	"net"
	"testing"

	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	return New(transport.New(a)), New(transport.New(b))
}

func TestHandshakeNegotiatesSerializerAndSize(t *testing.T) {
	client, server := pipePair(t)

	serverID := make(chan serializer.ID, 1)
	serverErr := make(chan error, 1)
	go func() {
		id, err := server.ServerHandshake()
		serverID <- id
		serverErr <- err
	}()

	if err := client.ClientHandshake(serializer.IDCBOR, 10); err != nil {
		t.Fatalf("ClientHandshake: %v", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("ServerHandshake: %v", err)
	}
	if id := <-serverID; id != serializer.IDCBOR {
		t.Fatalf("ServerHandshake negotiated id = %d, want %d", id, serializer.IDCBOR)
	}
	if want := maxMessageSize(10); client.maxSize != want || server.maxSize != want {
		t.Fatalf("negotiated max size client=%d server=%d, want %d", client.maxSize, server.maxSize, want)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	client, server := pipePair(t)

	go func() { _, _ = server.ServerHandshake() }()
	if err := client.ClientHandshake(serializer.IDJSON, DefaultMaxLengthExponent); err != nil {
		t.Fatalf("ClientHandshake: %v", err)
	}

	payload := []byte(`[1,"realm1",{}]`)
	done := make(chan error, 1)
	go func() { done <- client.WriteMessage(payload) }()

	got, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("ReadMessage = %q, want %q", got, payload)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func TestPingIsAnsweredWithPong(t *testing.T) {
	client, server := pipePair(t)
	go func() { _, _ = server.ServerHandshake() }()
	if err := client.ClientHandshake(serializer.IDJSON, DefaultMaxLengthExponent); err != nil {
		t.Fatalf("ClientHandshake: %v", err)
	}
	defer client.transport.Close()
	defer server.transport.Close()

	// server.ReadMessage answers the PING with a PONG and keeps reading;
	// it exits once the test closes the pipe below.
	go func() { _, _ = server.ReadMessage() }()

	if err := client.writeFrame(framePing, []byte("ping-payload")); err != nil {
		t.Fatalf("writeFrame(ping): %v", err)
	}

	var header [4]byte
	if err := client.transport.ReadFull(header[:]); err != nil {
		t.Fatalf("reading pong header: %v", err)
	}
	if header[0] != framePong {
		t.Fatalf("reply frame type = %d, want %d (pong)", header[0], framePong)
	}
	length := int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	payload := make([]byte, length)
	if err := client.transport.ReadFull(payload); err != nil {
		t.Fatalf("reading pong payload: %v", err)
	}
	if string(payload) != "ping-payload" {
		t.Fatalf("pong payload = %q, want echoed ping payload", payload)
	}
}

func TestLengthExponent(t *testing.T) {
	if exp := LengthExponent(1 << 20); maxMessageSize(exp) < 1<<20 {
		t.Fatalf("LengthExponent(1MiB) = %d, maxMessageSize = %d, want >= 1MiB", exp, maxMessageSize(exp))
	}
	if exp := LengthExponent(1 << 30); exp != maxLengthExponent {
		t.Fatalf("LengthExponent(huge) = %d, want clamp to %d", exp, maxLengthExponent)
	}
}
