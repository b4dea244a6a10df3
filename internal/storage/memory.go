package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe store used when a database is not configured.
type InMemoryStore struct {
	mu         sync.RWMutex
	users      map[int]User
	registered map[int][]string
	reports    []GrowthReport
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[int]User),
		registered: make(map[int][]string),
	}
}

// PutUser inserts or replaces a user.
func (s *InMemoryStore) PutUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// RegisterPlant links a catalog plant to a user.
func (s *InMemoryStore) RegisterPlant(userID int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[userID] = append(s.registered[userID], name)
}

// AddGrowthReport records a report, assigning an id and timestamp when missing.
func (s *InMemoryStore) AddGrowthReport(report GrowthReport) GrowthReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	s.reports = append(s.reports, report)
	return report
}

// GetUser returns a user by id.
func (s *InMemoryStore) GetUser(_ context.Context, id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// ListUsers returns a snapshot of stored users ordered by id.
func (s *InMemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// UpdateUserAddress replaces the address on an existing user.
func (s *InMemoryStore) UpdateUserAddress(_ context.Context, id int, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Address = address
	s.users[id] = user
	return nil
}

// ReportPlantNames returns the non-empty plant names from the user's reports.
func (s *InMemoryStore) ReportPlantNames(_ context.Context, userID int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for _, r := range s.reports {
		if r.UserID == userID && strings.TrimSpace(r.PlantName) != "" {
			names = append(names, r.PlantName)
		}
	}
	return names, nil
}

// RegisteredPlantNames returns a copy of the user's registered plants.
func (s *InMemoryStore) RegisteredPlantNames(_ context.Context, userID int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.registered[userID]))
	copy(names, s.registered[userID])
	return names, nil
}

// Close satisfies the Store interface.
func (s *InMemoryStore) Close() {}
