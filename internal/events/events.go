// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"callops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
var NewInMemoryBus = events.NewInMemoryBus

// =============================================================================
// Calls Domain Events
// =============================================================================

// CallPlaced is published when the voice platform accepts an outbound call.
type CallPlaced struct {
	BaseEvent
	CallID         uuid.UUID `json:"callId"`
	ExternalCallID string    `json:"externalCallId"`
	Phone          string    `json:"phone"`
}

func (e CallPlaced) EventName() string { return "calls.placed" }

// CallEnded is published once per call, when the record reaches a terminal
// status (via webhook or the stale-call sweep).
type CallEnded struct {
	BaseEvent
	CallID         uuid.UUID `json:"callId"`
	ExternalCallID string    `json:"externalCallId"`
	Phone          string    `json:"phone"`
	LeadName       string    `json:"leadName,omitempty"`
	Status         string    `json:"status"`
	InterestLevel  string    `json:"interestLevel,omitempty"`
	NextAction     string    `json:"nextAction,omitempty"`
}

func (e CallEnded) EventName() string { return "calls.ended" }
