package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/bentansusanto/travel-api/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL
func Schema() string {
	return schemaSQL
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *database.PostgresDB) error {
	if _, err := db.Pool().Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
