package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hqv/mailsweep/internal/model"
)

// CreateNote inserts a voice-note transcript.
func (s *SQLiteStore) CreateNote(ctx context.Context, note model.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, item_id, transcript, created_at)
		VALUES (?, ?, ?, ?)`,
		note.ID, note.ItemID, note.Transcript, note.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating note for item %s: %w", note.ItemID, err)
	}

	return nil
}

// GetNotesForItem retrieves all notes recorded against an item, oldest
// first.
func (s *SQLiteStore) GetNotesForItem(
	ctx context.Context,
	itemID string,
) ([]model.Note, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notes WHERE item_id = ? ORDER BY created_at", itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notes for item %s: %w", itemID, err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

// scanNote scans a note row from a sqlx.Rows result set.
func scanNote(rows *sqlx.Rows) (model.Note, error) {
	var (
		n         model.Note
		createdAt time.Time
	)

	err := rows.Scan(&n.ID, &n.ItemID, &n.Transcript, &createdAt)
	if err != nil {
		return model.Note{}, fmt.Errorf("scanning note row: %w", err)
	}

	n.CreatedAt = createdAt
	return n, nil
}
