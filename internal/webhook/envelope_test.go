package webhook

import (
	"errors"
	"testing"

	"callops_backend/internal/calls/domain"
)

func TestNormalizeStatusUpdate(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		wantPhase domain.CallPhase
	}{
		{"queued", "queued", domain.PhaseRinging},
		{"ringing", "ringing", domain.PhaseRinging},
		{"in progress", "in-progress", domain.PhaseInProgress},
		{"ended", "ended", domain.PhaseEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte(`{"message":{"type":"status-update","status":"` + tt.status + `","call":{"id":"call-1"}}}`)
			externalID, signal, err := Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if externalID != "call-1" {
				t.Errorf("external id = %q", externalID)
			}
			status, ok := signal.(domain.StatusSignal)
			if !ok {
				t.Fatalf("signal type = %T", signal)
			}
			if status.Phase != tt.wantPhase {
				t.Errorf("phase = %s, want %s", status.Phase, tt.wantPhase)
			}
		})
	}
}

func TestNormalizeEndedCarriesReason(t *testing.T) {
	raw := []byte(`{"message":{"type":"status-update","status":"ended","endedReason":"customer-ended-call","call":{"id":"call-2"}}}`)
	_, signal, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	status := signal.(domain.StatusSignal)
	if status.EndedReason != "customer-ended-call" {
		t.Errorf("endedReason = %q", status.EndedReason)
	}
}

func TestNormalizeConversationUpdate(t *testing.T) {
	raw := []byte(`{"message":{"type":"conversation-update","call":{"id":"call-3"},"conversation":[
		{"role":"assistant","message":"Hello, am I speaking with Dana?","secondsFromStart":0.4},
		{"role":"user","message":"Yes, speaking.","secondsFromStart":2.1}
	]}}`)
	_, signal, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	update, ok := signal.(domain.TranscriptUpdateSignal)
	if !ok {
		t.Fatalf("signal type = %T", signal)
	}
	if len(update.Messages) != 2 {
		t.Fatalf("messages = %d", len(update.Messages))
	}
	if update.Messages[0].Role != domain.RoleBot {
		t.Errorf("assistant must normalize to bot role, got %s", update.Messages[0].Role)
	}
	if update.Messages[1].Role != domain.RoleUser {
		t.Errorf("role = %s", update.Messages[1].Role)
	}
	if update.Messages[1].TimeOffset != 2.1 {
		t.Errorf("offset = %v", update.Messages[1].TimeOffset)
	}
}

func TestNormalizeEndOfCallReport(t *testing.T) {
	raw := []byte(`{"message":{"type":"end-of-call-report","endedReason":"customer-ended-call","durationSeconds":42.5,"call":{"id":"call-4"},"artifact":{"messages":[
		{"role":"bot","message":"Goodbye","secondsFromStart":40}
	]}}}`)
	_, signal, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	final, ok := signal.(domain.FinalTranscriptSignal)
	if !ok {
		t.Fatalf("signal type = %T", signal)
	}
	if final.EndedReason != "customer-ended-call" {
		t.Errorf("endedReason = %q", final.EndedReason)
	}
	if final.DurationSeconds != 42.5 {
		t.Errorf("duration = %v", final.DurationSeconds)
	}
	if len(final.Messages) != 1 || final.Messages[0].Role != domain.RoleBot {
		t.Errorf("messages = %+v", final.Messages)
	}
}

func TestToolLinesKeepUnrecognizedRole(t *testing.T) {
	raw := []byte(`{"message":{"type":"conversation-update","call":{"id":"call-5"},"conversation":[
		{"role":"tool","message":"{\"lookup\":\"ok\"}","secondsFromStart":3},
		{"role":"system","message":"You are a sales agent.","secondsFromStart":0}
	]}}`)
	_, signal, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	update := signal.(domain.TranscriptUpdateSignal)
	if domain.RecognizedRole(update.Messages[0].Role) {
		t.Errorf("tool role must stay unrecognized so the merge drops it, got %s", update.Messages[0].Role)
	}
	if update.Messages[1].Role != domain.RoleSystem {
		t.Errorf("system role = %s", update.Messages[1].Role)
	}
}

func TestNormalizeRejectsAndAbsorbs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not json", `{{{`, ErrMalformed},
		{"no type", `{"message":{"call":{"id":"x"}}}`, ErrMalformed},
		{"no call id", `{"message":{"type":"status-update","status":"ended"}}`, ErrMissingCallID},
		{"unknown type", `{"message":{"type":"speech-update","call":{"id":"x"}}}`, ErrUnhandled},
		{"unknown status", `{"message":{"type":"status-update","status":"forwarding","call":{"id":"x"}}}`, ErrUnhandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
