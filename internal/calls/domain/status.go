package domain

import (
	"strings"
	"unicode"
)

// endReasonRule maps a set of markers in the platform's raw end-reason code
// to a terminal status. Rules are evaluated in order; the first match wins.
type endReasonRule struct {
	markers []string
	status  CallStatus
}

// Ordered precedence: explicit success > voicemail > no-answer > failure default.
var endReasonRules = []endReasonRule{
	{
		markers: []string{"customer-ended-call", "assistant-ended-call", "call-ended", "completed", "hangup"},
		status:  StatusCompleted,
	},
	{
		markers: []string{"voicemail"},
		status:  StatusVoicemail,
	},
	{
		markers: []string{"no-answer", "no_answer", "busy", "customer-did-not-answer"},
		status:  StatusNoAnswer,
	},
}

// ClassifyEndReason maps the platform-supplied end reason to exactly one
// terminal status. Unknown reasons classify as FAILED.
func ClassifyEndReason(reason string) CallStatus {
	normalized := strings.ToLower(strings.TrimSpace(reason))
	for _, rule := range endReasonRules {
		for _, marker := range rule.markers {
			if strings.Contains(normalized, marker) {
				return rule.status
			}
		}
	}
	return StatusFailed
}

// TerminalErrorMessage renders the error message recorded for a non-COMPLETED
// terminal outcome. Voicemail uses a fixed message; other outcomes use a
// human-readable rendering of the raw end-reason code.
func TerminalErrorMessage(status CallStatus, reason string) string {
	switch status {
	case StatusCompleted:
		return ""
	case StatusVoicemail:
		return "Call reached voicemail"
	}
	if msg := HumanizeEndReason(reason); msg != "" {
		return msg
	}
	return "Call failed"
}

// HumanizeEndReason turns a raw end-reason code like "customer-did-not-answer"
// into "Customer did not answer": separators collapse to spaces, first letter
// capitalized.
func HumanizeEndReason(reason string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '.':
			return ' '
		}
		return r
	}, strings.TrimSpace(reason))

	words := strings.Fields(replaced)
	if len(words) == 0 {
		return ""
	}

	sentence := strings.ToLower(strings.Join(words, " "))
	runes := []rune(sentence)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
