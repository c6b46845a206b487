package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestEventWritesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Event("call sent", Method("com.example.add"), RequestID(7))

	out := buf.String()
	if !strings.Contains(out, "call sent") {
		t.Fatalf("output %q missing message", out)
	}
	if !strings.Contains(out, "method=com.example.add") {
		t.Fatalf("output %q missing method field", out)
	}
	if !strings.Contains(out, "id=7") {
		t.Fatalf("output %q missing id field", out)
	}
}

func TestEventSkipsNilFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Event("leave", Err(nil))
	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("output %q should omit a nil err field", buf.String())
	}
}

type recordingExporter struct {
	msgs []string
}

func (r *recordingExporter) Export(msg string, fields []Field) {
	r.msgs = append(r.msgs, msg)
}

func TestSetExporterForwardsEvents(t *testing.T) {
	l := New(&bytes.Buffer{})
	exp := &recordingExporter{}
	l.SetExporter(exp)

	l.Event("subscribed", Method("com.example.topic"))
	if len(exp.msgs) != 1 || exp.msgs[0] != "subscribed" {
		t.Fatalf("exporter received %v, want [subscribed]", exp.msgs)
	}
}

func TestNop(t *testing.T) {
	// Nop must be safe to call without panicking or writing anywhere
	// observable.
	Nop().Event("noop", Method("x"))
}
