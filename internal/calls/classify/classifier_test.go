package classify

import (
	"strings"
	"testing"
	"time"

	"callops_backend/internal/calls/domain"
)

func record(status domain.CallStatus, lines ...string) *domain.CallRecord {
	rec := &domain.CallRecord{
		Status:            status,
		ConversationState: domain.StateQualification,
	}
	for i, line := range lines {
		rec.Transcript = append(rec.Transcript, domain.TranscriptEntry{
			Role:       domain.RoleUser,
			Text:       line,
			TimeOffset: float64(i + 1),
		})
	}
	return rec
}

func TestInterestPrecedence(t *testing.T) {
	c := NewKeywordClassifier()

	cases := []struct {
		name string
		text string
		want domain.InterestLevel
	}{
		{"disinterest wins over everything", "I'm definitely not interested in the asking price", domain.InterestNotInterested},
		{"hot on price inquiry", "sounds good, how much are you asking", domain.InterestHot},
		{"warm on tentative", "maybe, let me think about it", domain.InterestWarm},
		{"cold by default", "okay. bye.", domain.InterestCold},
		{"case insensitive", "NOT INTERESTED", domain.InterestNotInterested},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Summarize(record(domain.StatusCompleted, tc.text))
			if got.InterestLevel != tc.want {
				t.Errorf("interest = %s, want %s", got.InterestLevel, tc.want)
			}
		})
	}
}

func TestDecisionTable(t *testing.T) {
	c := NewKeywordClassifier()

	t.Run("no answer ignores transcript", func(t *testing.T) {
		got := c.Summarize(record(domain.StatusNoAnswer))
		if got.Outcome != "No answer" {
			t.Errorf("outcome = %q", got.Outcome)
		}
		if !strings.Contains(got.NextAction, "Retry") {
			t.Errorf("next action should suggest a retry, got %q", got.NextAction)
		}
	})

	t.Run("hot completed suggests offer", func(t *testing.T) {
		got := c.Summarize(record(domain.StatusCompleted, "yes, how much?"))
		if !strings.Contains(got.NextAction, "offer") {
			t.Errorf("next action = %q, want offer follow-up", got.NextAction)
		}
	})

	t.Run("declined suggests do-not-contact", func(t *testing.T) {
		got := c.Summarize(record(domain.StatusCompleted, "please do not call again"))
		if !strings.Contains(got.NextAction, "do-not-contact") {
			t.Errorf("next action = %q", got.NextAction)
		}
	})
}

func TestKeyPointsIncludeLeadDescriptor(t *testing.T) {
	c := NewKeywordClassifier()
	rec := record(domain.StatusCompleted, "hello")
	rec.Lead = domain.LeadData{PropertyType: "townhouse", Location: "Springfield"}

	got := c.Summarize(rec)
	if len(got.KeyPoints) != 3 {
		t.Fatalf("expected 3 key points, got %v", got.KeyPoints)
	}
	if got.KeyPoints[0] != "Lead: townhouse in Springfield" {
		t.Errorf("descriptor point = %q", got.KeyPoints[0])
	}
}

func TestDurationFallbacks(t *testing.T) {
	c := NewKeywordClassifier()

	t.Run("from timestamps", func(t *testing.T) {
		rec := record(domain.StatusCompleted, "hi")
		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		end := start.Add(95 * time.Second)
		rec.StartedAt = &start
		rec.CompletedAt = &end

		if got := c.Summarize(rec); got.DurationSeconds != 95 {
			t.Errorf("duration = %d, want 95", got.DurationSeconds)
		}
	})

	t.Run("from message timing", func(t *testing.T) {
		rec := record(domain.StatusCompleted, "a", "b", "c")
		if got := c.Summarize(rec); got.DurationSeconds != 3 {
			t.Errorf("duration = %d, want 3", got.DurationSeconds)
		}
	})

	t.Run("degrades to zero", func(t *testing.T) {
		rec := record(domain.StatusFailed)
		if got := c.Summarize(rec); got.DurationSeconds != 0 {
			t.Errorf("duration = %d, want 0", got.DurationSeconds)
		}
	})
}

func TestEmptyCallDegradesGracefully(t *testing.T) {
	c := NewKeywordClassifier()
	got := c.Summarize(&domain.CallRecord{Status: domain.StatusFailed})

	if got.InterestLevel != domain.InterestCold {
		t.Errorf("interest = %s, want COLD default", got.InterestLevel)
	}
	if len(got.KeyPoints) == 0 {
		t.Error("key points should never be empty")
	}
	if got.NextAction == "" {
		t.Error("next action should have a generic default")
	}
}
