package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/saedev/sae-portal/config"
	"github.com/saedev/sae-portal/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	teachers := []struct {
		username string
		email    string
		password string
	}{
		{"profesora.ana", "ana@sae.edu", "secret1"},
		{"profesor.luis", "luis@sae.edu", "secret2"},
	}

	for _, t := range teachers {
		hash, err := helpers.HashPassword(t.password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		var id string
		err = db.QueryRow(`
			INSERT INTO users (id, username, email, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET username = EXCLUDED.username
			RETURNING id
		`, uuid.NewString(), t.username, t.email, hash).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", t.email, err)
		}
		fmt.Printf("seeded teacher: id=%s username=%s email=%s password=%s\n", id, t.username, t.email, t.password)
	}
}
