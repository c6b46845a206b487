package transport

import (
	"net"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	ta := New(a)
	tb := New(b)
	defer ta.Close()
	defer tb.Close()

	done := make(chan error, 1)
	go func() {
		done <- ta.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	if err := tb.ReadFull(buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("ReadFull = %q, want hello", buf)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a, _ := net.Pipe()
	ta := New(a)
	if err := ta.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := ta.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if ta.IsOpen() {
		t.Fatal("IsOpen() = true after Close")
	}
}

func TestReadAfterCloseFails(t *testing.T) {
	a, b := net.Pipe()
	ta := New(a)
	_ = b.Close()
	_ = ta.Close()

	if err := ta.ReadFull(make([]byte, 1)); err == nil {
		t.Fatal("ReadFull after Close = nil error")
	}
}
