package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NoisimRo/Flashcards-sub000/internal/migrations"
)

// runMigrationCommand dispatches the -migrate flag to the embedded
// migration set.
func runMigrationCommand(ctx context.Context, db *sql.DB, command string) error {
	switch command {
	case "up":
		return migrations.Up(ctx, db)
	case "down":
		return migrations.Down(ctx, db)
	case "status":
		return migrations.Status(ctx, db)
	default:
		return fmt.Errorf("unknown migration command %q (expected up, down or status)", command)
	}
}
