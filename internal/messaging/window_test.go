package messaging

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedEvaluator() *Evaluator {
	return NewEvaluatorAt(func() time.Time { return testNow })
}

func TestCanSendFreeformEmpty(t *testing.T) {
	e := fixedEvaluator()
	if e.CanSendFreeform(nil) {
		t.Fatal("expected closed window with no messages")
	}
	reason := e.DisabledReason(nil)
	if !strings.Contains(reason, "not messaged") {
		t.Fatalf("expected never-messaged reason, got %q", reason)
	}
}

func TestCanSendFreeformRecentInbound(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-1 * time.Hour)},
	}
	if !e.CanSendFreeform(msgs) {
		t.Fatal("expected open window 1h after inbound")
	}
	if reason := e.DisabledReason(msgs); reason != "" {
		t.Fatalf("expected empty reason for open window, got %q", reason)
	}
}

func TestCanSendFreeformExpired(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-25 * time.Hour)},
	}
	if e.CanSendFreeform(msgs) {
		t.Fatal("expected closed window 25h after inbound")
	}
	if reason := e.DisabledReason(msgs); !strings.Contains(reason, "24 hours") {
		t.Fatalf("expected expiry reason, got %q", reason)
	}
}

func TestOutboundDoesNotReopenWindow(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-25 * time.Hour)},
		{Direction: DirectionOutbound, CreatedAt: testNow.Add(-1 * time.Hour)},
	}
	if e.CanSendFreeform(msgs) {
		t.Fatal("outbound message must not reopen the window")
	}
}

func TestNewInboundReopensWindow(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-30 * time.Hour)},
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-10 * time.Minute)},
	}
	if !e.CanSendFreeform(msgs) {
		t.Fatal("expected window reopened by new inbound message")
	}
}

func TestExactBoundaryIsClosed(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-WindowDuration)},
	}
	// The comparison is strictly less than 24h.
	if e.CanSendFreeform(msgs) {
		t.Fatal("expected closed window exactly at the 24h boundary")
	}
}

func TestZeroTimestampFailsSafe(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound},
	}
	if e.CanSendFreeform(msgs) {
		t.Fatal("expected closed window for zero timestamp")
	}
}

func TestStatusExposesExpiry(t *testing.T) {
	e := fixedEvaluator()
	msgs := []WindowMessage{
		{Direction: DirectionInbound, CreatedAt: testNow.Add(-2 * time.Hour)},
	}
	status := e.Status(msgs)
	if !status.Open || status.ExpiresAt == nil {
		t.Fatalf("expected open status with expiry, got %+v", status)
	}
	want := testNow.Add(22 * time.Hour)
	if !status.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, status.ExpiresAt)
	}

	closed := e.Status(nil)
	if closed.Open || closed.Reason == "" {
		t.Fatalf("expected closed status with reason, got %+v", closed)
	}
}
