package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that a user could not be located in the backing store.
var ErrNotFound = errors.New("user not found")

// User is the slice of the account record this service reads and writes.
type User struct {
	ID      int    `json:"id"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// GrowthReport is a diary entry a user filed about one of their plants.
type GrowthReport struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	PlantName string    `json:"plant_name"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the persistence behaviors the application relies on.
type Store interface {
	GetUser(ctx context.Context, id int) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserAddress(ctx context.Context, id int, address string) error
	// ReportPlantNames returns the plant names found in the user's growth reports.
	// Names may repeat and come back in no particular order.
	ReportPlantNames(ctx context.Context, userID int) ([]string, error)
	// RegisteredPlantNames returns catalog names joined through user_plants.
	RegisteredPlantNames(ctx context.Context, userID int) ([]string, error)
	Close()
}

// NewStore connects to PostgreSQL, or returns an in-memory store when
// databaseURL is empty (DB_IN_MEMORY and tests).
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewInMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// ensureSchema creates the tables on an empty database. Existing tables owned by
// the account service are left untouched.
func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []struct {
		table string
		ddl   string
	}{
		{"users", `CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        email TEXT UNIQUE,
        address TEXT
    )`},
		{"plants", `CREATE TABLE IF NOT EXISTS plants (
        id SERIAL PRIMARY KEY,
        name TEXT NOT NULL UNIQUE
    )`},
		{"user_plants", `CREATE TABLE IF NOT EXISTS user_plants (
        id SERIAL PRIMARY KEY,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        plant_id INTEGER NOT NULL REFERENCES plants(id) ON DELETE CASCADE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`},
		{"growth_reports", `CREATE TABLE IF NOT EXISTS growth_reports (
        id TEXT PRIMARY KEY,
        user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        plant_name TEXT,
        summary TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`},
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", stmt.table, err)
		}
	}

	return nil
}
