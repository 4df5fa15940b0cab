package messaging

import (
	"time"
)

// WhatsApp Business policy: free-form messages are allowed only within 24
// hours of the customer's last inbound message. Outside that window only
// approved templates may be sent.
const WindowDuration = 24 * time.Hour

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// WindowMessage is the minimal message shape the evaluator needs.
type WindowMessage struct {
	Direction string
	CreatedAt time.Time
}

// Evaluator recomputes the messaging window from a message list on every
// call. It holds no state besides an injectable clock.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// NewEvaluatorAt builds an evaluator with a fixed clock, for tests.
func NewEvaluatorAt(now func() time.Time) *Evaluator {
	return &Evaluator{now: now}
}

// lastInbound returns the chronologically last inbound message, or false if
// none exists.
func lastInbound(messages []WindowMessage) (WindowMessage, bool) {
	var last WindowMessage
	found := false
	for _, msg := range messages {
		if msg.Direction != DirectionInbound {
			continue
		}
		if !found || msg.CreatedAt.After(last.CreatedAt) {
			last = msg
			found = true
		}
	}
	return last, found
}

// CanSendFreeform reports whether a free-form (non-template) message may be
// sent right now. No inbound message ever received means false: first contact
// must use a template. An invalid (zero) timestamp is treated as a closed
// window, failing safe toward template-only.
func (e *Evaluator) CanSendFreeform(messages []WindowMessage) bool {
	last, ok := lastInbound(messages)
	if !ok || last.CreatedAt.IsZero() {
		return false
	}
	return e.now().Sub(last.CreatedAt) < WindowDuration
}

// DisabledReason returns a human readable explanation when free-form sending
// is blocked, and "" when the window is open. It always agrees with
// CanSendFreeform.
func (e *Evaluator) DisabledReason(messages []WindowMessage) string {
	last, ok := lastInbound(messages)
	if !ok || last.CreatedAt.IsZero() {
		return "The customer has not messaged yet. Only template messages can be sent."
	}
	if e.now().Sub(last.CreatedAt) >= WindowDuration {
		return "More than 24 hours have passed since the customer's last message. Only template messages can be sent."
	}
	return ""
}

// WindowStatus is the summary exposed on the conversation API.
type WindowStatus struct {
	Open      bool       `json:"open"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Status combines both checks for the conversation list endpoint, including
// when the currently open window will close.
func (e *Evaluator) Status(messages []WindowMessage) WindowStatus {
	if !e.CanSendFreeform(messages) {
		return WindowStatus{Open: false, Reason: e.DisabledReason(messages)}
	}
	last, _ := lastInbound(messages)
	expires := last.CreatedAt.Add(WindowDuration)
	return WindowStatus{Open: true, ExpiresAt: &expires}
}
