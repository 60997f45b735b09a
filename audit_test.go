package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newAuditedEngine(t *testing.T, sink AuditSink) (*Engine, *captureMailer) {
	t.Helper()

	cfg := testConfig()
	cfg.Audit.Enabled = true

	mailer := &captureMailer{}
	engine, err := New().
		WithConfig(cfg).
		WithMailer(mailer).
		WithUserProvider(NewMemoryUserProvider()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mailer
}

func waitForEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case event := <-sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event arrived")
		return AuditEvent{}
	}
}

func TestAuditCodeRequestEvent(t *testing.T) {
	sink := NewChannelSink(16)
	engine, _ := newAuditedEngine(t, sink)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if err := engine.SendCode(ctx, "Alice@Example.com"); err != nil {
		t.Fatal(err)
	}

	event := waitForEvent(t, sink)
	if event.EventType != "code_request" || !event.Success {
		t.Fatalf("event = %+v, want a successful code_request", event)
	}
	if event.Identity != "alice@example.com" {
		t.Fatalf("identity = %q, want the normalized form", event.Identity)
	}
	if event.IP != "203.0.113.7" {
		t.Fatalf("ip = %q", event.IP)
	}
	if event.Timestamp.IsZero() {
		t.Fatal("event has no timestamp")
	}
}

func TestAuditRateLimitedEvent(t *testing.T) {
	sink := NewChannelSink(16)
	engine, _ := newAuditedEngine(t, sink)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
			t.Fatal(err)
		}
		waitForEvent(t, sink)
	}
	if err := engine.SendCode(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("send 4: %v, want ErrRateLimited", err)
	}

	event := waitForEvent(t, sink)
	if event.Success || event.Error != "rate_limited" {
		t.Fatalf("event = %+v, want a rate_limited failure", event)
	}
}

func TestAuditVerifyEvents(t *testing.T) {
	sink := NewChannelSink(16)
	engine, mailer := newAuditedEngine(t, sink)
	ctx := context.Background()

	if err := engine.SendCode(ctx, "alice@example.com"); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, sink)
	code := mailer.lastCode(t)

	// Generated codes never start with zero, so this cannot collide.
	if _, err := engine.VerifyCode(ctx, "alice@example.com", "000000"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatal(err)
	}
	event := waitForEvent(t, sink)
	if event.EventType != "code_verify" || event.Success || event.Error != "invalid_or_expired" {
		t.Fatalf("failure event = %+v", event)
	}

	if _, err := engine.VerifyCode(ctx, "alice@example.com", code); err != nil {
		t.Fatal(err)
	}
	event = waitForEvent(t, sink)
	if event.EventType != "code_verify" || !event.Success {
		t.Fatalf("success event = %+v", event)
	}
}

func TestAuditCloseDrainsQueue(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)
	for i := 0; i < 10; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "code_request", Success: true})
	}
	dispatcher.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("sink received %d events, want all 10", len(lines))
	}
	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("sink output is not JSON lines: %v", err)
	}
	if event.EventType != "code_request" {
		t.Fatalf("decoded event = %+v", event)
	}
}

func TestAuditEmitAfterCloseIsNoOp(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, NoOpSink{})
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "code_request"})
	dispatcher.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestAuditDropAccounting(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 2, DropIfFull: true}, sink)

	// One event occupies the worker, two fill the buffer; everything past
	// that is dropped and counted rather than blocking the caller.
	for i := 0; i < 8; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "code_request"})
	}

	if dropped := dispatcher.Dropped(); dropped < 5 {
		t.Fatalf("dropped = %d, want at least 5", dropped)
	}

	close(sink.release)
	dispatcher.Close()
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("disabled config produced a dispatcher")
	}

	// Nil receivers are safe on every method, so engines without audit carry
	// no conditional at each call site.
	var d *auditDispatcher
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestEngineAuditDropped(t *testing.T) {
	engine, _ := newAuditedEngine(t, NoOpSink{})
	if engine.AuditDropped() != 0 {
		t.Fatal("fresh engine reports dropped audit events")
	}
}
