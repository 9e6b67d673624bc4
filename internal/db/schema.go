package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the embedded DDL.
func Schema() string { return schemaSQL }

// Apply creates all tables. Safe to run repeatedly; statements use IF NOT EXISTS.
func Apply(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func containsTable(ddl, table string) bool {
	return strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS "+table+" ")
}
