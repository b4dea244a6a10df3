// Package profile resolves a user's address and the plants they own.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"plantmate/internal/storage"
)

var (
	// ErrNoAddress means the user has no usable address on file.
	ErrNoAddress = errors.New("no address on file")
	// ErrNoPlants means neither growth reports nor registrations name a plant.
	ErrNoPlants = errors.New("no plants on file")
)

// Profile is what care advice needs to know about a user.
type Profile struct {
	UserID  int
	Address string
	Plants  []string
}

// Lookup applies the address and plant resolution policy over a store.
type Lookup struct {
	Store storage.Store
}

// Address returns the stored address, failing with ErrNoAddress when it is absent or blank.
func (l Lookup) Address(ctx context.Context, userID int) (string, error) {
	user, err := l.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("user %d: %w: %w", userID, ErrNoAddress, err)
		}
		return "", fmt.Errorf("load user %d: %w", userID, err)
	}
	address := strings.TrimSpace(user.Address)
	if address == "" {
		return "", fmt.Errorf("user %d: %w", userID, ErrNoAddress)
	}
	return address, nil
}

// PlantNames prefers names from growth reports, deduplicated and sorted. Only when
// reports name nothing does it fall back to registered plants, in registration order.
func (l Lookup) PlantNames(ctx context.Context, userID int) ([]string, error) {
	reported, err := l.Store.ReportPlantNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load report plants: %w", err)
	}
	if names := uniqueSorted(reported); len(names) > 0 {
		return names, nil
	}

	registered, err := l.Store.RegisteredPlantNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load registered plants: %w", err)
	}
	return uniqueInOrder(registered), nil
}

// Resolve returns the user's address and plants. A non-blank addressOverride
// replaces the stored address without reading it.
func (l Lookup) Resolve(ctx context.Context, userID int, addressOverride string) (Profile, error) {
	address := strings.TrimSpace(addressOverride)
	if address == "" {
		stored, err := l.Address(ctx, userID)
		if err != nil {
			return Profile{}, err
		}
		address = stored
	}

	plants, err := l.PlantNames(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if len(plants) == 0 {
		return Profile{}, fmt.Errorf("user %d: %w", userID, ErrNoPlants)
	}

	return Profile{UserID: userID, Address: address, Plants: plants}, nil
}

func uniqueSorted(names []string) []string {
	out := uniqueInOrder(names)
	sort.Strings(out)
	return out
}

func uniqueInOrder(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
