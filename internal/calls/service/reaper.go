package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callops_backend/internal/calls/domain"
	"callops_backend/internal/calls/repository"
)

// summaryRetryBatch caps how many summary-less terminal records one sweep
// repairs.
const summaryRetryBatch = 50

// ReapStale force-fails every transient call that has not been touched within
// the timeout. This is the guarantee that a lost terminal webhook cannot leave
// a call open forever. Returns the number of records reaped.
func (s *Service) ReapStale(ctx context.Context, timeout time.Duration) (int, error) {
	cutoff := time.Now().Add(-timeout)
	stale, err := s.store.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale calls: %w", err)
	}

	reaped := 0
	for _, record := range stale {
		if err := s.reapOne(ctx, record, timeout); err != nil {
			s.log.Error("failed to reap stale call", "call_id", record.ID, "error", err)
			continue
		}
		reaped++
	}

	if reaped > 0 {
		s.log.Info("stale call sweep complete", "reaped", reaped)
	}
	return reaped, nil
}

func (s *Service) reapOne(ctx context.Context, record *domain.CallRecord, timeout time.Duration) error {
	for attempt := 0; attempt < saveRetries; attempt++ {
		if record.IsTerminal() {
			// A terminal webhook won the race while we were sweeping.
			return nil
		}

		s.log.CallTransition(record.ID.String(), string(record.Status), string(domain.StatusFailed))
		record.Status = domain.StatusFailed
		record.ErrorMessage = fmt.Sprintf("Call timed out: no platform event for %s", timeout)
		if record.CompletedAt == nil {
			now := time.Now()
			record.CompletedAt = &now
		}
		if record.Summary == nil {
			summary := s.classifier.Summarize(record)
			record.Summary = &summary
		}
		record.ConversationState = domain.StateEnd

		err := s.store.Save(ctx, record)
		if err == nil {
			s.publishEnded(ctx, record)
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}

		// Lost a race against a live webhook; reload and re-check.
		record, err = s.store.Get(ctx, record.ID)
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("call %s: gave up after %d conflicting saves", record.ID, saveRetries)
}

// RetryMissingSummaries generates summaries for terminal records whose
// classification was skipped or lost. Summary generation is best-effort on
// the terminal path; this sweep makes it eventually consistent.
func (s *Service) RetryMissingSummaries(ctx context.Context) (int, error) {
	records, err := s.store.ListTerminalWithoutSummary(ctx, summaryRetryBatch)
	if err != nil {
		return 0, fmt.Errorf("list terminal calls without summary: %w", err)
	}

	repaired := 0
	for _, record := range records {
		summary := s.classifier.Summarize(record)
		record.Summary = &summary
		if err := s.store.Save(ctx, record); err != nil {
			s.log.Error("failed to backfill summary", "call_id", record.ID, "error", err)
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.log.Info("summary backfill complete", "repaired", repaired)
	}
	return repaired, nil
}
