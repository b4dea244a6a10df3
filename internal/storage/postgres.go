package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads users and their plants from PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// GetUser loads a single user by id.
func (s *PostgresStore) GetUser(ctx context.Context, id int) (User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(email, ''), COALESCE(address, '') FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// ListUsers returns every user ordered by id.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, COALESCE(email, ''), COALESCE(address, '') FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		var u User
		err := row.Scan(&u.ID, &u.Email, &u.Address)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

// UpdateUserAddress overwrites the stored address.
func (s *PostgresStore) UpdateUserAddress(ctx context.Context, id int, address string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET address = $2 WHERE id = $1`, id, address)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReportPlantNames returns the non-empty plant names in the user's growth reports.
func (s *PostgresStore) ReportPlantNames(ctx context.Context, userID int) ([]string, error) {
	return s.names(ctx, `SELECT DISTINCT plant_name FROM growth_reports
        WHERE user_id = $1 AND plant_name IS NOT NULL AND plant_name <> ''`, userID)
}

// RegisteredPlantNames returns catalog plant names in registration order.
func (s *PostgresStore) RegisteredPlantNames(ctx context.Context, userID int) ([]string, error) {
	return s.names(ctx, `SELECT p.name FROM user_plants up
        JOIN plants p ON p.id = up.plant_id
        WHERE up.user_id = $1
        ORDER BY up.id`, userID)
}

func (s *PostgresStore) names(ctx context.Context, query string, userID int) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query plant names: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan plant names: %w", err)
	}
	return names, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
