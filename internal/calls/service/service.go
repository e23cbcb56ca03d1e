// Package service implements the call lifecycle controller: it reconciles
// normalized voice platform signals into the authoritative call record.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callops_backend/internal/calls/classify"
	"callops_backend/internal/calls/domain"
	"callops_backend/internal/calls/repository"
	"callops_backend/internal/events"
	"callops_backend/platform/apperr"
	"callops_backend/platform/logger"
	"callops_backend/platform/phone"

	"github.com/google/uuid"
)

// saveRetries bounds the re-fetch/re-apply loop on optimistic save conflicts.
const saveRetries = 3

// Store is the persistence contract the lifecycle controller depends on.
// Implemented by the pgx repository; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, phoneNumber string, lead domain.LeadData) (*domain.CallRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.CallRecord, error)
	Save(ctx context.Context, record *domain.CallRecord) error
	ListByStatus(ctx context.Context, status domain.CallStatus) ([]*domain.CallRecord, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.CallRecord, error)
	ListTerminalWithoutSummary(ctx context.Context, limit int) ([]*domain.CallRecord, error)
}

// Placer starts an outbound call on the voice platform.
type Placer interface {
	Place(ctx context.Context, phoneNumber string, lead domain.LeadData) (externalCallID string, err error)
}

// Service is the call lifecycle controller.
type Service struct {
	store      Store
	classifier classify.Classifier
	placer     Placer
	bus        events.Bus
	log        *logger.Logger
}

// New creates the lifecycle controller.
func New(store Store, classifier classify.Classifier, placer Placer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		classifier: classifier,
		placer:     placer,
		bus:        bus,
		log:        log,
	}
}

// PlaceCall creates a call record and asks the voice platform to dial the
// lead. Placement failure marks the record FAILED with the placement error;
// the record is always returned so the caller can see the outcome.
func (s *Service) PlaceCall(ctx context.Context, rawPhone string, lead domain.LeadData) (*domain.CallRecord, error) {
	normalized := phone.NormalizeE164(rawPhone)

	record, err := s.store.Create(ctx, normalized, lead)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create call record", err)
	}

	if s.placer == nil {
		s.log.Warn("call placement disabled; record stays pending", "call_id", record.ID)
		return record, nil
	}

	externalID, err := s.placer.Place(ctx, normalized, lead)
	if err != nil {
		record.Status = domain.StatusFailed
		record.ConversationState = domain.StateEnd
		record.ErrorMessage = "Call placement failed: " + err.Error()
		now := time.Now()
		record.CompletedAt = &now
		if saveErr := s.store.Save(ctx, record); saveErr != nil {
			s.log.DatabaseError("mark placement failure", saveErr)
		}
		return record, nil
	}

	record.ExternalCallID = externalID
	record.Status = domain.StatusCalling
	if err := s.store.Save(ctx, record); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to save placed call", err)
	}

	s.bus.Publish(ctx, events.CallPlaced{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         record.ID,
		ExternalCallID: externalID,
		Phone:          normalized,
	})

	s.log.Info("call placed", "call_id", record.ID, "external_call_id", externalID)
	return record, nil
}

// GetCall returns the current record for dashboards and reporting.
func (s *Service) GetCall(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	record, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrCallNotFound) {
		return nil, apperr.NotFound("call not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load call", err)
	}
	return record, nil
}

// ListCalls returns all records in the given status.
func (s *Service) ListCalls(ctx context.Context, status domain.CallStatus) ([]*domain.CallRecord, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown call status")
	}
	records, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list calls", err)
	}
	return records, nil
}

// ProcessSignal applies one normalized platform signal to the record joined by
// the external call id. A signal with no matching record is absorbed: events
// can race ahead of record creation, and dropping beats creating a spurious
// record. Concurrent writers are handled by re-fetching on version conflicts.
func (s *Service) ProcessSignal(ctx context.Context, externalCallID string, signal domain.PlatformSignal) error {
	for attempt := 0; attempt < saveRetries; attempt++ {
		record, err := s.store.GetByExternalID(ctx, externalCallID)
		if errors.Is(err, repository.ErrCallNotFound) {
			s.log.WebhookDropped("no matching call record", externalCallID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load call by external id: %w", err)
		}

		changed, ended := s.apply(record, signal)
		if !changed {
			return nil
		}

		err = s.store.Save(ctx, record)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("save call %s: %w", record.ID, err)
		}

		if ended {
			s.publishEnded(ctx, record)
		}
		return nil
	}

	return fmt.Errorf("call %s: gave up after %d conflicting saves", externalCallID, saveRetries)
}

// apply mutates the record according to the signal. It returns whether the
// record changed and whether this application completed a terminal transition.
func (s *Service) apply(record *domain.CallRecord, signal domain.PlatformSignal) (changed, ended bool) {
	switch sig := signal.(type) {
	case domain.StatusSignal:
		return s.applyStatus(record, sig)

	case domain.TranscriptUpdateSignal:
		if record.IsTerminal() {
			// The final transcript already won; late partials are noise.
			return false, false
		}
		before := len(record.Transcript)
		record.Transcript = domain.MergeIncremental(record.Transcript, sig.Messages)
		advanceConversation(record)
		return len(record.Transcript) != before, false

	case domain.FinalTranscriptSignal:
		if record.IsTerminal() {
			// The ended status update often lands before the end-of-call
			// report. The report's transcript is still ground truth, so
			// install it; status, summary and completedAt stay untouched.
			// Replace is idempotent, so re-delivery converges.
			record.Transcript = domain.ReplaceFinal(sig.Messages)
			return true, false
		}
		record.Transcript = domain.ReplaceFinal(sig.Messages)
		if sig.EndedReason != "" {
			s.terminate(record, sig.EndedReason)
			// The platform measured the call; its duration beats our
			// timestamp arithmetic.
			if sig.DurationSeconds > 0 && record.Summary != nil {
				record.Summary.DurationSeconds = int(sig.DurationSeconds)
			}
			return true, true
		}
		return true, false
	}

	return false, false
}

func (s *Service) applyStatus(record *domain.CallRecord, sig domain.StatusSignal) (changed, ended bool) {
	switch sig.Phase {
	case domain.PhaseRinging:
		if record.IsTerminal() || record.Status == domain.StatusInProgress {
			return false, false
		}
		if record.Status == domain.StatusCalling {
			return false, false
		}
		s.log.CallTransition(record.ID.String(), string(record.Status), string(domain.StatusCalling))
		record.Status = domain.StatusCalling
		return true, false

	case domain.PhaseInProgress:
		if record.IsTerminal() || record.Status == domain.StatusInProgress {
			return false, false
		}
		// Deliberately also accepts PENDING → IN_PROGRESS: if the ringing
		// update was lost, the in-progress update must not wedge the record.
		s.log.CallTransition(record.ID.String(), string(record.Status), string(domain.StatusInProgress))
		record.Status = domain.StatusInProgress
		if record.StartedAt == nil {
			now := time.Now()
			record.StartedAt = &now
		}
		return true, false

	case domain.PhaseEnded:
		if record.IsTerminal() {
			// Idempotent re-delivery: no status mutation, no reclassification.
			return false, false
		}
		s.terminate(record, sig.EndedReason)
		return true, true
	}

	return false, false
}

// terminate performs the one-time terminal transition: classify the end
// reason, stamp completion, summarize against the freshest transcript, then
// force the conversation state to END.
func (s *Service) terminate(record *domain.CallRecord, endedReason string) {
	status := domain.ClassifyEndReason(endedReason)
	s.log.CallTransition(record.ID.String(), string(record.Status), string(status))

	record.Status = status
	record.ErrorMessage = domain.TerminalErrorMessage(status, endedReason)
	if record.CompletedAt == nil {
		now := time.Now()
		record.CompletedAt = &now
	}

	// Summary is generated at most once; the classifier reads the
	// conversation state as it was when the call ended.
	if record.Summary == nil {
		summary := s.classifier.Summarize(record)
		record.Summary = &summary
	}

	record.ConversationState = domain.StateEnd
}

func (s *Service) publishEnded(ctx context.Context, record *domain.CallRecord) {
	ended := events.CallEnded{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         record.ID,
		ExternalCallID: record.ExternalCallID,
		Phone:          record.Phone,
		LeadName:       record.Lead.Name,
		Status:         string(record.Status),
	}
	if record.Summary != nil {
		ended.InterestLevel = string(record.Summary.InterestLevel)
		ended.NextAction = record.Summary.NextAction
	}
	s.bus.Publish(ctx, ended)
}

// advanceConversation moves the dialogue-progress marker forward based on how
// much of the conversation has happened. It never moves backwards and never
// sets END; only the terminal transition does that.
func advanceConversation(record *domain.CallRecord) {
	userLines := 0
	for _, entry := range record.Transcript {
		if entry.Role == domain.RoleUser {
			userLines++
		}
	}

	next := record.ConversationState
	switch {
	case userLines >= 4:
		next = domain.StateClosing
	case userLines >= 1:
		next = domain.StateQualification
	}

	if conversationRank(next) > conversationRank(record.ConversationState) {
		record.ConversationState = next
	}
}

func conversationRank(state domain.ConversationState) int {
	switch state {
	case domain.StateGreeting:
		return 0
	case domain.StateQualification:
		return 1
	case domain.StateClosing:
		return 2
	case domain.StateEnd:
		return 3
	}
	return 0
}
