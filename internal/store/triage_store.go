package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hqv/mailsweep/internal/model"
)

// UpsertTriageRecord inserts or replaces the triage record for an item.
// One record exists per item; a re-dispatch after rollback overwrites
// the failed row.
func (s *SQLiteStore) UpsertTriageRecord(
	ctx context.Context,
	rec model.TriageRecord,
) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO triage_records (
			item_id, action, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?)`,
		rec.ItemID, string(rec.Action), string(rec.Status),
		rec.CreatedAt.UTC(), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting triage record for item %s: %w", rec.ItemID, err)
	}

	return nil
}

// GetTriageRecord retrieves the triage record for an item, if any.
func (s *SQLiteStore) GetTriageRecord(
	ctx context.Context,
	itemID string,
) (*model.TriageRecord, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM triage_records WHERE item_id = ?", itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting triage record for item %s: %w", itemID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting triage record for item %s: %w", itemID, err)
		}
		return nil, fmt.Errorf("getting triage record for item %s: %w", itemID, sql.ErrNoRows)
	}

	rec, err := scanTriageRecord(rows)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetTriageRecords retrieves triage records, optionally filtered by
// status, ordered by creation time.
func (s *SQLiteStore) GetTriageRecords(
	ctx context.Context,
	status *model.TriageStatus,
) ([]model.TriageRecord, error) {
	query := "SELECT * FROM triage_records"
	var args []interface{}
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying triage records: %w", err)
	}
	defer rows.Close()

	var records []model.TriageRecord
	for rows.Next() {
		rec, err := scanTriageRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteTriageRecord removes the triage record for an item. Used to
// roll back an optimistic mark after a failed collaborator call.
func (s *SQLiteStore) DeleteTriageRecord(
	ctx context.Context,
	itemID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM triage_records WHERE item_id = ?", itemID,
	)
	if err != nil {
		return fmt.Errorf("deleting triage record for item %s: %w", itemID, err)
	}
	return nil
}

// scanTriageRecord scans a triage record row from a sqlx.Rows result set.
func scanTriageRecord(rows *sqlx.Rows) (model.TriageRecord, error) {
	var (
		rec       model.TriageRecord
		action    string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	err := rows.Scan(&rec.ItemID, &action, &status, &createdAt, &updatedAt)
	if err != nil {
		return model.TriageRecord{}, fmt.Errorf("scanning triage record row: %w", err)
	}

	rec.Action = model.TriageAction(action)
	rec.Status = model.TriageStatus(status)
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt

	return rec, nil
}
