package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"waitlist_funnel/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriberRepository struct {
	db *pgxpool.Pool
}

func NewSubscriberRepository(db *pgxpool.Pool) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

const subscriberSelectCols = `id::text, name, email, interests, created_at`

func scanSubscriber(row pgx.Row) (entities.Subscriber, error) {
	var (
		s         entities.Subscriber
		interests []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &interests, &s.CreatedAt); err != nil {
		return s, err
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &s.Interests); err != nil {
			return s, fmt.Errorf("decode interests for %s: %w", s.ID, err)
		}
	}
	return s, nil
}

// ListNewestFirst returns the whole waitlist ordered by submission time, newest first.
func (r *SubscriberRepository) ListNewestFirst(ctx context.Context) ([]entities.Subscriber, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+subscriberSelectCols+` FROM waitlist ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query waitlist: %w", err)
	}
	defer rows.Close()

	var subscribers []entities.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist row: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waitlist: %w", err)
	}
	return subscribers, nil
}

// Insert adds a subscriber and fills in ID and CreatedAt.
// A duplicate email yields ErrDuplicateEmail.
func (r *SubscriberRepository) Insert(ctx context.Context, s *entities.Subscriber) error {
	interests, err := json.Marshal(s.Interests)
	if err != nil {
		return fmt.Errorf("encode interests: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO waitlist (name, email, interests) VALUES ($1, $2, $3)
		 RETURNING id::text, created_at`,
		s.Name, s.Email, interests).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}
