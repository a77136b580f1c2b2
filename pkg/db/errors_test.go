package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	err := fmt.Errorf("create asset: %w", &pgconn.PgError{Code: "23505", ConstraintName: "assets_serial_number_key"})

	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err, "assets_serial_number_key") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(err, "bases_code_key") {
		t.Fatal("unexpected constraint match")
	}
}

func TestIsUniqueViolationPq(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "transfers_code_key"}
	if !IsUniqueViolation(err, "transfers_code_key") {
		t.Fatal("expected constraint match")
	}

	notUnique := &pq.Error{Code: "23503"}
	if IsUniqueViolation(notUnique, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
}

func TestIsUniqueViolationFallback(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: assets.serial_number"), "") {
		t.Fatal("expected sqlite fallback to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is never a violation")
	}
}
