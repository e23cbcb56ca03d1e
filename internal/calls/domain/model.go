// Package domain provides core business rules for the calls bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus is the lifecycle status of a call record.
type CallStatus string

const (
	StatusPending    CallStatus = "PENDING"
	StatusCalling    CallStatus = "CALLING"
	StatusInProgress CallStatus = "IN_PROGRESS"
	StatusCompleted  CallStatus = "COMPLETED"
	StatusFailed     CallStatus = "FAILED"
	StatusNoAnswer   CallStatus = "NO_ANSWER"
	StatusVoicemail  CallStatus = "VOICEMAIL"
)

// terminalStatuses are call statuses where no further transition is permitted.
var terminalStatuses = map[CallStatus]bool{
	StatusCompleted: true,
	StatusFailed:    true,
	StatusNoAnswer:  true,
	StatusVoicemail: true,
}

// IsTerminal returns true if the status is a sink state.
func (s CallStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsTransient returns true for statuses that still expect further events.
func (s CallStatus) IsTransient() bool {
	return !terminalStatuses[s]
}

// Valid returns true if the status is one of the known values.
func (s CallStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCalling, StatusInProgress,
		StatusCompleted, StatusFailed, StatusNoAnswer, StatusVoicemail:
		return true
	}
	return false
}

// ConversationState tracks dialogue progress independently of call status.
type ConversationState string

const (
	StateGreeting      ConversationState = "GREETING"
	StateQualification ConversationState = "QUALIFICATION"
	StateClosing       ConversationState = "CLOSING"
	StateEnd           ConversationState = "END"
)

// Role identifies who produced a transcript line.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// RecognizedRole reports whether a role is one of the conversational roles
// we persist. Anything else (tool calls, function results) is filtered out.
func RecognizedRole(r Role) bool {
	return r == RoleUser || r == RoleBot || r == RoleSystem
}

// TranscriptEntry is a single line of the call transcript. TimeOffset is
// seconds from call start as reported by the voice platform; zero when the
// platform did not supply one.
type TranscriptEntry struct {
	Role       Role    `json:"role"`
	Text       string  `json:"text"`
	TimeOffset float64 `json:"timeOffset"`
}

// InterestLevel is the classified buying interest of the lead.
type InterestLevel string

const (
	InterestHot           InterestLevel = "HOT"
	InterestWarm          InterestLevel = "WARM"
	InterestCold          InterestLevel = "COLD"
	InterestNotInterested InterestLevel = "NOT_INTERESTED"
)

// LeadData is the business metadata supplied when the call is requested.
// Immutable after creation.
type LeadData struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	Location     string `json:"location,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Descriptor returns a short human-readable description of the lead,
// or "" when no metadata is present.
func (l LeadData) Descriptor() string {
	switch {
	case l.PropertyType != "" && l.Location != "":
		return l.PropertyType + " in " + l.Location
	case l.PropertyType != "":
		return l.PropertyType
	case l.Location != "":
		return l.Location
	}
	return ""
}

// CallSummary is the classified outcome of a finished call.
// Written at most once, at the terminal transition.
type CallSummary struct {
	DurationSeconds      int           `json:"durationSeconds"`
	Outcome              string        `json:"outcome"`
	InterestLevel        InterestLevel `json:"interestLevel"`
	KeyPoints            []string      `json:"keyPoints"`
	NextAction           string        `json:"nextAction,omitempty"`
	AppointmentScheduled bool          `json:"appointmentScheduled"`
}

// CallRecord is the authoritative record for one placed call.
type CallRecord struct {
	ID                uuid.UUID         `json:"id"`
	ExternalCallID    string            `json:"externalCallId,omitempty"`
	Phone             string            `json:"phone"`
	Lead              LeadData          `json:"leadData"`
	Status            CallStatus        `json:"status"`
	ConversationState ConversationState `json:"conversationState"`
	Transcript        []TranscriptEntry `json:"transcript"`
	Summary           *CallSummary      `json:"summary,omitempty"`
	ErrorMessage      string            `json:"errorMessage,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	StartedAt         *time.Time        `json:"startedAt,omitempty"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`

	// Version supports optimistic concurrency on save. Managed by the repository.
	Version int64 `json:"-"`
}

// IsTerminal reports whether the record has reached a sink status.
func (r *CallRecord) IsTerminal() bool {
	return r.Status.IsTerminal()
}
