package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hqv/mailsweep/internal/model"
)

// UpsertSubscription inserts or updates a subscription record keyed by
// sender address. Discovery runs on every sync, so an existing row's
// unsubscribed flag must survive the refresh.
func (s *SQLiteStore) UpsertSubscription(
	ctx context.Context,
	sub model.Subscription,
) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (
			id, sender, unsubscribe_url, unsubscribe_mailto,
			one_click, unsubscribed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sender) DO UPDATE SET
			unsubscribe_url = excluded.unsubscribe_url,
			unsubscribe_mailto = excluded.unsubscribe_mailto,
			one_click = excluded.one_click,
			updated_at = excluded.updated_at`,
		sub.ID, sub.Sender, sub.UnsubscribeURL, sub.UnsubscribeMailto,
		boolToInt(sub.OneClick), boolToInt(sub.Unsubscribed),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting subscription for %s: %w", sub.Sender, err)
	}

	return nil
}

// GetSubscriptionByID retrieves a subscription record by its ID.
func (s *SQLiteStore) GetSubscriptionByID(
	ctx context.Context,
	id string,
) (*model.Subscription, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM subscriptions WHERE id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting subscription %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting subscription %s: %w", id, err)
		}
		return nil, fmt.Errorf("getting subscription %s: %w", id, sql.ErrNoRows)
	}

	sub, err := scanSubscription(rows)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// GetSubscriptionBySender retrieves the subscription record for a
// sender address.
func (s *SQLiteStore) GetSubscriptionBySender(
	ctx context.Context,
	sender string,
) (*model.Subscription, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM subscriptions WHERE sender = ?", sender,
	)
	if err != nil {
		return nil, fmt.Errorf("getting subscription for %s: %w", sender, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting subscription for %s: %w", sender, err)
		}
		return nil, fmt.Errorf("getting subscription for %s: %w", sender, sql.ErrNoRows)
	}

	sub, err := scanSubscription(rows)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

// GetSubscriptions retrieves all subscription records ordered by sender.
func (s *SQLiteStore) GetSubscriptions(
	ctx context.Context,
) ([]model.Subscription, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM subscriptions ORDER BY sender",
	)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// MarkUnsubscribed flags a subscription as unsubscribed.
func (s *SQLiteStore) MarkUnsubscribed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE subscriptions SET unsubscribed = 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking subscription %s unsubscribed: %w", id, err)
	}
	return nil
}

// scanSubscription scans a subscription row from a sqlx.Rows result set.
func scanSubscription(rows *sqlx.Rows) (model.Subscription, error) {
	var (
		sub          model.Subscription
		oneClick     int
		unsubscribed int
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := rows.Scan(
		&sub.ID, &sub.Sender, &sub.UnsubscribeURL, &sub.UnsubscribeMailto,
		&oneClick, &unsubscribed, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("scanning subscription row: %w", err)
	}

	sub.OneClick = oneClick != 0
	sub.Unsubscribed = unsubscribed != 0
	sub.CreatedAt = createdAt
	sub.UpdatedAt = updatedAt

	return sub, nil
}
