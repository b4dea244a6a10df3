package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"plantmate/internal/config"
	"plantmate/internal/profile"
	"plantmate/internal/storage"
)

func main() {
	var (
		userID  = flag.Int("user", 0, "User id to update")
		address = flag.String("address", "", "New address for the user")
		list    = flag.Bool("list", false, "List users with their address and plants")
	)
	flag.Parse()

	cfg := config.FromEnv()
	dbURL := cfg.Database.DatabaseURL()
	if dbURL == "" {
		log.Fatal("a PostgreSQL database is required to manage addresses (set DB_HOST, unset DB_IN_MEMORY)")
	}

	ctx := context.Background()
	store, err := storage.NewStore(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect store: %v", err)
	}
	defer store.Close()

	if *list {
		if err := listUsers(ctx, store); err != nil {
			log.Fatalf("list users: %v", err)
		}
		return
	}

	if *userID <= 0 {
		log.Fatal("user id is required (use -user)")
	}
	clean, err := profile.ValidateAddress(*address)
	if err != nil {
		log.Fatalf("invalid address: %v", err)
	}

	if err := store.UpdateUserAddress(ctx, *userID, clean); err != nil {
		log.Fatalf("update user: %v", err)
	}
	fmt.Printf("User %d address=%q\n", *userID, clean)
}

func listUsers(ctx context.Context, store storage.Store) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	lookup := profile.Lookup{Store: store}

	fmt.Printf("%-6s %-30s %-40s %s\n", "ID", "EMAIL", "ADDRESS", "PLANTS")
	for _, u := range users {
		plants, err := lookup.PlantNames(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("plants for user %d: %w", u.ID, err)
		}
		fmt.Printf("%-6d %-30s %-40s %s\n", u.ID, u.Email, u.Address, strings.Join(plants, ", "))
	}
	return nil
}
