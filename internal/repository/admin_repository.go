package repository

import (
	"context"
	"errors"
	"fmt"

	"waitlist_funnel/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByEmail returns the admin row whose email matches exactly.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*entities.AdminCredential, error) {
	var (
		admin  entities.AdminCredential
		stored string
	)
	err := r.db.QueryRow(ctx,
		"SELECT id, email, password FROM admins WHERE email = $1 LIMIT 1",
		email).Scan(&admin.ID, &admin.Email, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query admin: %w", err)
	}
	admin.Password = entities.ParsePasswordValue(stored)
	return &admin, nil
}

// Create inserts an admin row. storedPassword is written as given.
func (r *AdminRepository) Create(ctx context.Context, email, storedPassword string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO admins (email, password) VALUES ($1, $2)",
		email, storedPassword)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
