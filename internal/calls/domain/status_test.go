package domain

import "testing"

func TestClassifyEndReason(t *testing.T) {
	cases := []struct {
		reason string
		want   CallStatus
	}{
		{"customer-ended-call", StatusCompleted},
		{"assistant-ended-call", StatusCompleted},
		{"call-ended", StatusCompleted},
		{"voicemail-reached", StatusVoicemail},
		{"voicemail", StatusVoicemail},
		{"customer-busy", StatusNoAnswer},
		{"twilio-failed-connection-no-answer", StatusNoAnswer},
		{"customer-did-not-answer", StatusNoAnswer},
		{"pipeline-error-openai-llm-failed", StatusFailed},
		{"", StatusFailed},
		{"some-future-reason", StatusFailed},
		// Success markers outrank voicemail/no-answer markers.
		{"customer-ended-call-after-voicemail", StatusCompleted},
	}

	for _, tc := range cases {
		if got := ClassifyEndReason(tc.reason); got != tc.want {
			t.Errorf("ClassifyEndReason(%q) = %s, want %s", tc.reason, got, tc.want)
		}
	}
}

func TestTerminalErrorMessage(t *testing.T) {
	cases := []struct {
		status CallStatus
		reason string
		want   string
	}{
		{StatusCompleted, "customer-ended-call", ""},
		{StatusVoicemail, "voicemail-reached", "Call reached voicemail"},
		{StatusNoAnswer, "customer-did-not-answer", "Customer did not answer"},
		{StatusFailed, "pipeline-error_llm.failed", "Pipeline error llm failed"},
		{StatusFailed, "", "Call failed"},
	}

	for _, tc := range cases {
		if got := TerminalErrorMessage(tc.status, tc.reason); got != tc.want {
			t.Errorf("TerminalErrorMessage(%s, %q) = %q, want %q", tc.status, tc.reason, got, tc.want)
		}
	}
}

func TestStatusTerminality(t *testing.T) {
	terminal := []CallStatus{StatusCompleted, StatusFailed, StatusNoAnswer, StatusVoicemail}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		if s.IsTransient() {
			t.Errorf("%s should not be transient", s)
		}
	}

	transient := []CallStatus{StatusPending, StatusCalling, StatusInProgress}
	for _, s := range transient {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
