// Package repository provides data access for call records.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"callops_backend/internal/calls/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCallNotFound is returned when no record matches the lookup.
	ErrCallNotFound = errors.New("call record not found")
	// ErrVersionConflict is returned when a save races another writer.
	// Callers should re-fetch the record and re-apply their change.
	ErrVersionConflict = errors.New("call record was modified concurrently")
)

const callColumns = `
	id, external_call_id, phone, lead_data, status, conversation_state,
	transcript, summary, error_message, created_at, updated_at,
	started_at, completed_at, version`

// Repository provides persistence for call records backed by Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new calls repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new PENDING call record.
func (r *Repository) Create(ctx context.Context, phone string, lead domain.LeadData) (*domain.CallRecord, error) {
	leadJSON, err := json.Marshal(lead)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO calls (id, phone, lead_data, status, conversation_state, transcript)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb)
		RETURNING `+callColumns,
		uuid.New(), phone, leadJSON, domain.StatusPending, domain.StateGreeting)

	return scanCall(row)
}

// Get retrieves a record by its local id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	return scanCall(row)
}

// GetByExternalID retrieves a record by the voice platform's call identifier.
// External ids are unique once assigned.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*domain.CallRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE external_call_id = $1`, externalID)
	return scanCall(row)
}

// Save persists all mutable fields of the record. The update only applies when
// the stored version matches the record's version (optimistic concurrency);
// otherwise ErrVersionConflict is returned and the caller must re-fetch.
func (r *Repository) Save(ctx context.Context, record *domain.CallRecord) error {
	transcriptJSON, err := json.Marshal(record.Transcript)
	if err != nil {
		return err
	}

	var summaryJSON []byte
	if record.Summary != nil {
		summaryJSON, err = json.Marshal(record.Summary)
		if err != nil {
			return err
		}
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET external_call_id = NULLIF($2, ''),
		    status = $3,
		    conversation_state = $4,
		    transcript = $5,
		    summary = $6,
		    error_message = NULLIF($7, ''),
		    started_at = $8,
		    completed_at = $9,
		    updated_at = now(),
		    version = version + 1
		WHERE id = $1 AND version = $10
	`, record.ID, record.ExternalCallID, record.Status, record.ConversationState,
		transcriptJSON, summaryJSON, record.ErrorMessage,
		record.StartedAt, record.CompletedAt, record.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	record.Version++
	record.UpdatedAt = time.Now()
	return nil
}

// ListByStatus returns records in the given status, newest first.
func (r *Repository) ListByStatus(ctx context.Context, status domain.CallStatus) ([]*domain.CallRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+` FROM calls
		WHERE status = $1
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

// ListStale returns transient records not updated since the cutoff. These are
// candidates for the stale-call sweep.
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.CallRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+` FROM calls
		WHERE status = ANY($1) AND updated_at < $2
		ORDER BY updated_at ASC
	`, []string{string(domain.StatusCalling), string(domain.StatusInProgress)}, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

// ListTerminalWithoutSummary returns terminal records whose summary generation
// has not succeeded yet.
func (r *Repository) ListTerminalWithoutSummary(ctx context.Context, limit int) ([]*domain.CallRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+` FROM calls
		WHERE summary IS NULL
		  AND status = ANY($1)
		ORDER BY completed_at ASC
		LIMIT $2
	`, []string{
		string(domain.StatusCompleted), string(domain.StatusFailed),
		string(domain.StatusNoAnswer), string(domain.StatusVoicemail),
	}, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCalls(rows)
}

func scanCalls(rows pgx.Rows) ([]*domain.CallRecord, error) {
	var records []*domain.CallRecord
	for rows.Next() {
		record, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanCall(row pgx.Row) (*domain.CallRecord, error) {
	var (
		record         domain.CallRecord
		externalID     *string
		leadJSON       []byte
		transcriptJSON []byte
		summaryJSON    []byte
		errorMessage   *string
	)

	err := row.Scan(
		&record.ID, &externalID, &record.Phone, &leadJSON, &record.Status,
		&record.ConversationState, &transcriptJSON, &summaryJSON, &errorMessage,
		&record.CreatedAt, &record.UpdatedAt, &record.StartedAt, &record.CompletedAt,
		&record.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCallNotFound
	}
	if err != nil {
		return nil, err
	}

	if externalID != nil {
		record.ExternalCallID = *externalID
	}
	if errorMessage != nil {
		record.ErrorMessage = *errorMessage
	}
	if err := json.Unmarshal(leadJSON, &record.Lead); err != nil {
		return nil, err
	}
	if len(transcriptJSON) > 0 {
		if err := json.Unmarshal(transcriptJSON, &record.Transcript); err != nil {
			return nil, err
		}
	}
	if len(summaryJSON) > 0 {
		record.Summary = &domain.CallSummary{}
		if err := json.Unmarshal(summaryJSON, record.Summary); err != nil {
			return nil, err
		}
	}

	return &record, nil
}
