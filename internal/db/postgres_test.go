package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(1, 3); got != "$1, $2, $3" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Placeholders(4, 1); got != "$4" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Placeholders(1, 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestPoolConfigDefaults(t *testing.T) {
	c := PoolConfig{MaxOpenConns: 8}.withDefaults()
	if c.MaxIdleConns != 8 {
		t.Fatalf("expected idle to follow open conns, got %d", c.MaxIdleConns)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout %s", c.PingTimeout)
	}
}

func TestSchemaMentionsEveryTable(t *testing.T) {
	for _, table := range []string{"team_members", "reference_items", "migrations", "end_users", "phone_numbers", "magic_links", "migration_subscribers"} {
		if !containsTable(Schema(), table) {
			t.Fatalf("schema missing %s", table)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "end_users_migration_id_upn_key"})
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation")
	}
	if IsForeignKeyViolation(err) {
		t.Fatalf("did not expect fk violation")
	}
	if got := Constraint(err); got != "end_users_migration_id_upn_key" {
		t.Fatalf("unexpected constraint %q", got)
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a violation")
	}
}
