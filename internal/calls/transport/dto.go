package transport

import (
	"time"

	"callops_backend/internal/calls/domain"

	"github.com/google/uuid"
)

// Request DTOs

type PlaceCallRequest struct {
	Phone        string `json:"phone" validate:"required,min=5,max=20"`
	Name         string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	PropertyType string `json:"propertyType,omitempty" validate:"omitempty,max=100"`
	Location     string `json:"location,omitempty" validate:"omitempty,max=200"`
	Notes        string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r PlaceCallRequest) Lead() domain.LeadData {
	return domain.LeadData{
		Name:         r.Name,
		Email:        r.Email,
		PropertyType: r.PropertyType,
		Location:     r.Location,
		Notes:        r.Notes,
	}
}

// Response DTOs

type CallResponse struct {
	ID                uuid.UUID                `json:"id"`
	ExternalCallID    string                   `json:"externalCallId,omitempty"`
	Phone             string                   `json:"phone"`
	Lead              domain.LeadData          `json:"lead"`
	Status            domain.CallStatus        `json:"status"`
	ConversationState domain.ConversationState `json:"conversationState"`
	Transcript        []domain.TranscriptEntry `json:"transcript"`
	Summary           *domain.CallSummary      `json:"summary,omitempty"`
	ErrorMessage      string                   `json:"errorMessage,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	StartedAt         *time.Time               `json:"startedAt,omitempty"`
	CompletedAt       *time.Time               `json:"completedAt,omitempty"`
}

func ToCallResponse(record *domain.CallRecord) CallResponse {
	transcript := record.Transcript
	if transcript == nil {
		transcript = []domain.TranscriptEntry{}
	}
	return CallResponse{
		ID:                record.ID,
		ExternalCallID:    record.ExternalCallID,
		Phone:             record.Phone,
		Lead:              record.Lead,
		Status:            record.Status,
		ConversationState: record.ConversationState,
		Transcript:        transcript,
		Summary:           record.Summary,
		ErrorMessage:      record.ErrorMessage,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
		StartedAt:         record.StartedAt,
		CompletedAt:       record.CompletedAt,
	}
}

func ToCallResponses(records []*domain.CallRecord) []CallResponse {
	out := make([]CallResponse, 0, len(records))
	for _, record := range records {
		out = append(out, ToCallResponse(record))
	}
	return out
}
