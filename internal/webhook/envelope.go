package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"callops_backend/internal/calls/domain"
)

// Envelope kinds sent by the voice platform.
const (
	typeStatusUpdate       = "status-update"
	typeConversationUpdate = "conversation-update"
	typeEndOfCallReport    = "end-of-call-report"
)

var (
	// ErrMalformed means the body is not a structurally valid envelope.
	ErrMalformed = errors.New("malformed webhook envelope")
	// ErrMissingCallID means the envelope carries no call correlation id.
	ErrMissingCallID = errors.New("envelope has no call id")
	// ErrUnhandled means the envelope kind is valid but not one we process.
	ErrUnhandled = errors.New("unhandled envelope type")
)

// envelope mirrors the platform's webhook wire format. Every event wraps its
// payload in a "message" object discriminated by "type".
type envelope struct {
	Message struct {
		Type            string            `json:"type"`
		Status          string            `json:"status"`
		EndedReason     string            `json:"endedReason"`
		DurationSeconds float64           `json:"durationSeconds"`
		Call            struct {
			ID string `json:"id"`
		} `json:"call"`
		Conversation []envelopeMessage `json:"conversation"`
		Artifact     struct {
			Messages []envelopeMessage `json:"messages"`
		} `json:"artifact"`
	} `json:"message"`
}

type envelopeMessage struct {
	Role             string  `json:"role"`
	Message          string  `json:"message"`
	SecondsFromStart float64 `json:"secondsFromStart"`
}

// Normalize parses a raw webhook body into the external call id and the
// lifecycle signal it represents. Unknown envelope kinds and unknown status
// values return ErrUnhandled: they are acknowledged upstream but ignored, so
// new platform event types never break ingestion.
func Normalize(raw []byte) (string, domain.PlatformSignal, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	msg := env.Message
	if msg.Type == "" {
		return "", nil, fmt.Errorf("%w: missing message.type", ErrMalformed)
	}

	externalID := msg.Call.ID
	if externalID == "" {
		return "", nil, ErrMissingCallID
	}

	switch msg.Type {
	case typeStatusUpdate:
		phase, ok := mapPhase(msg.Status)
		if !ok {
			return externalID, nil, fmt.Errorf("%w: status %q", ErrUnhandled, msg.Status)
		}
		return externalID, domain.StatusSignal{Phase: phase, EndedReason: msg.EndedReason}, nil

	case typeConversationUpdate:
		return externalID, domain.TranscriptUpdateSignal{Messages: mapMessages(msg.Conversation)}, nil

	case typeEndOfCallReport:
		return externalID, domain.FinalTranscriptSignal{
			Messages:        mapMessages(msg.Artifact.Messages),
			EndedReason:     msg.EndedReason,
			DurationSeconds: msg.DurationSeconds,
		}, nil

	default:
		return externalID, nil, fmt.Errorf("%w: %q", ErrUnhandled, msg.Type)
	}
}

func mapPhase(status string) (domain.CallPhase, bool) {
	switch strings.ToLower(status) {
	case "queued", "ringing":
		return domain.PhaseRinging, true
	case "in-progress":
		return domain.PhaseInProgress, true
	case "ended":
		return domain.PhaseEnded, true
	default:
		return "", false
	}
}

// mapMessages converts wire transcript lines into domain entries. The
// platform labels its own side "assistant" or "bot" depending on the event
// kind; both map to the bot role. Tool calls and other unknown roles pass
// through unchanged and get filtered during the merge.
func mapMessages(in []envelopeMessage) []domain.TranscriptEntry {
	out := make([]domain.TranscriptEntry, 0, len(in))
	for _, m := range in {
		out = append(out, domain.TranscriptEntry{
			Role:       mapRole(m.Role),
			Text:       m.Message,
			TimeOffset: m.SecondsFromStart,
		})
	}
	return out
}

func mapRole(role string) domain.Role {
	switch strings.ToLower(role) {
	case "assistant", "bot":
		return domain.RoleBot
	case "user", "customer", "human":
		return domain.RoleUser
	case "system":
		return domain.RoleSystem
	default:
		return domain.Role(role)
	}
}
