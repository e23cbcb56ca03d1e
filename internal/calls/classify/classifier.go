// Package classify derives a call summary from a finished call record.
// Classification is deliberately heuristic (keyword matching, not NLU); the
// Classifier interface keeps the strategy pluggable so a stronger
// implementation can replace it without touching the lifecycle controller.
package classify

import (
	"fmt"
	"strings"

	"callops_backend/internal/calls/domain"
)

// Classifier produces a summary for a call that has reached a terminal status.
// Implementations must never fail: absent data degrades to conservative
// defaults.
type Classifier interface {
	Summarize(record *domain.CallRecord) domain.CallSummary
}

// KeywordClassifier classifies interest by scanning the transcript against
// ordered keyword sets.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Keyword sets evaluated in precedence order: explicit disinterest always
// wins, then strong-affirmative/price markers, then tentative consideration.
var (
	notInterestedMarkers = []string{
		"not interested",
		"no thanks",
		"don't call",
		"do not call",
		"stop calling",
		"remove me",
		"leave me alone",
	}
	hotMarkers = []string{
		"very interested",
		"definitely",
		"absolutely",
		"how much",
		"what's the price",
		"asking price",
		"interested",
		"make an offer",
		"sounds great",
	}
	warmMarkers = []string{
		"maybe",
		"think about it",
		"not sure",
		"call me back",
		"call back later",
		"possibly",
		"depends",
	}
	appointmentMarkers = []string{
		"appointment",
		"schedule a visit",
		"schedule a viewing",
		"see you then",
		"book a time",
	}
)

// Summarize implements Classifier.
func (c *KeywordClassifier) Summarize(record *domain.CallRecord) domain.CallSummary {
	text := transcriptText(record.Transcript)
	interest := classifyInterest(text)

	summary := domain.CallSummary{
		DurationSeconds:      callDuration(record),
		InterestLevel:        interest,
		KeyPoints:            keyPoints(record, interest),
		AppointmentScheduled: containsAny(text, appointmentMarkers),
	}

	summary.Outcome, summary.NextAction = outcomeAndNextAction(record.Status, interest)
	return summary
}

// classifyInterest scans the concatenated transcript text case-insensitively
// against the ordered keyword sets.
func classifyInterest(text string) domain.InterestLevel {
	switch {
	case containsAny(text, notInterestedMarkers):
		return domain.InterestNotInterested
	case containsAny(text, hotMarkers):
		return domain.InterestHot
	case containsAny(text, warmMarkers):
		return domain.InterestWarm
	}
	return domain.InterestCold
}

// outcomeAndNextAction is the decision table keyed by terminal status and
// interest level. NO_ANSWER and VOICEMAIL map to retry suggestions regardless
// of interest, since the transcript is empty or irrelevant there.
func outcomeAndNextAction(status domain.CallStatus, interest domain.InterestLevel) (string, string) {
	switch status {
	case domain.StatusNoAnswer:
		return "No answer", "Retry at a different time of day"
	case domain.StatusVoicemail:
		return "Reached voicemail", "Retry later in the day"
	case domain.StatusFailed:
		return "Call did not complete", "Verify the phone number and retry"
	}

	switch interest {
	case domain.InterestHot:
		return "Lead expressed strong interest", "Send offer and follow up within 24 hours"
	case domain.InterestWarm:
		return "Lead is considering", "Schedule a follow-up call this week"
	case domain.InterestNotInterested:
		return "Lead declined", "Mark as do-not-contact"
	}
	return "Conversation completed without clear signal", "Add to nurture list"
}

// keyPoints assembles the summary bullet list: a lead descriptor when
// metadata is present, a progress note from the conversation state, and a
// transcript-length note.
func keyPoints(record *domain.CallRecord, interest domain.InterestLevel) []string {
	points := make([]string, 0, 3)

	if descriptor := record.Lead.Descriptor(); descriptor != "" {
		points = append(points, "Lead: "+descriptor)
	}

	points = append(points, progressNote(record.ConversationState))

	if n := len(record.Transcript); n > 0 {
		points = append(points, fmt.Sprintf("Transcript captured (%d messages)", n))
	} else {
		points = append(points, "No conversation captured")
	}

	return points
}

func progressNote(state domain.ConversationState) string {
	switch state {
	case domain.StateQualification:
		return "Conversation reached qualification"
	case domain.StateClosing:
		return "Conversation reached closing"
	case domain.StateEnd:
		return "Conversation ran to completion"
	}
	return "Conversation ended during greeting"
}

// callDuration prefers completedAt − startedAt, falls back to the last
// message's time offset, and degrades to zero.
func callDuration(record *domain.CallRecord) int {
	if record.StartedAt != nil && record.CompletedAt != nil {
		if d := record.CompletedAt.Sub(*record.StartedAt); d > 0 {
			return int(d.Seconds())
		}
	}

	var last float64
	for _, entry := range record.Transcript {
		if entry.TimeOffset > last {
			last = entry.TimeOffset
		}
	}
	return int(last)
}

func transcriptText(entries []domain.TranscriptEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(strings.ToLower(entry.Text))
		b.WriteByte(' ')
	}
	return b.String()
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Compile-time check that KeywordClassifier implements Classifier.
var _ Classifier = (*KeywordClassifier)(nil)
