package notification

import (
	"context"
	"strings"
	"testing"

	"callops_backend/internal/events"
	"callops_backend/platform/logger"

	"github.com/google/uuid"
)

type capturingSender struct {
	to      string
	subject string
	body    string
	sends   int
}

func (s *capturingSender) Send(_ context.Context, to, subject, body string) error {
	s.to = to
	s.subject = subject
	s.body = body
	s.sends++
	return nil
}

type staticEmailConfig struct{ notify string }

func (c staticEmailConfig) GetSMTPHost() string           { return "" }
func (c staticEmailConfig) GetSMTPPort() int              { return 587 }
func (c staticEmailConfig) GetSMTPUsername() string       { return "" }
func (c staticEmailConfig) GetSMTPPassword() string       { return "" }
func (c staticEmailConfig) GetEmailFromAddress() string   { return "noreply@example.com" }
func (c staticEmailConfig) GetHotLeadNotifyEmail() string { return c.notify }
func (c staticEmailConfig) IsEmailEnabled() bool          { return c.notify != "" }

func endedEvent(interest string) events.CallEnded {
	return events.CallEnded{
		BaseEvent:     events.NewBaseEvent(),
		CallID:        uuid.New(),
		Phone:         "+15551234567",
		LeadName:      "Dana",
		Status:        "COMPLETED",
		InterestLevel: interest,
		NextAction:    "Send offer and follow up within 24 hours",
	}
}

func TestHotLeadTriggersEmail(t *testing.T) {
	sender := &capturingSender{}
	notifier := New(sender, staticEmailConfig{notify: "sales@example.com"}, logger.New("development"))

	if err := notifier.onCallEnded(context.Background(), endedEvent("HOT")); err != nil {
		t.Fatalf("onCallEnded: %v", err)
	}

	if sender.sends != 1 {
		t.Fatalf("sends = %d, want 1", sender.sends)
	}
	if sender.to != "sales@example.com" {
		t.Errorf("to = %q", sender.to)
	}
	if !strings.Contains(sender.subject, "Dana") {
		t.Errorf("subject = %q", sender.subject)
	}
	if !strings.Contains(sender.body, "+15551234567") {
		t.Errorf("body missing phone: %q", sender.body)
	}
}

func TestNonHotLeadIsIgnored(t *testing.T) {
	sender := &capturingSender{}
	notifier := New(sender, staticEmailConfig{notify: "sales@example.com"}, logger.New("development"))

	for _, interest := range []string{"WARM", "COLD", "NOT_INTERESTED", ""} {
		if err := notifier.onCallEnded(context.Background(), endedEvent(interest)); err != nil {
			t.Fatalf("onCallEnded(%s): %v", interest, err)
		}
	}
	if sender.sends != 0 {
		t.Errorf("sends = %d, want 0", sender.sends)
	}
}

func TestMissingNotifyAddressIsIgnored(t *testing.T) {
	sender := &capturingSender{}
	notifier := New(sender, staticEmailConfig{}, logger.New("development"))

	if err := notifier.onCallEnded(context.Background(), endedEvent("HOT")); err != nil {
		t.Fatalf("onCallEnded: %v", err)
	}
	if sender.sends != 0 {
		t.Errorf("sends = %d, want 0", sender.sends)
	}
}
