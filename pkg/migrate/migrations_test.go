package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pollpulse/pollpulse-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestSurveysMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_surveys.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no surveys migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE question_type AS ENUM ('word_cloud', 'poll', 'scale', 'ranking', 'video')",
		"REFERENCES users (id) ON DELETE CASCADE",
		"REFERENCES surveys (id) ON DELETE CASCADE",
		"REFERENCES questions (id) ON DELETE CASCADE",
		"editable_until TIMESTAMPTZ NOT NULL",
		"DROP TYPE question_type",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPaymentsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payments.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payments migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE payment_status AS ENUM ('unpaid', 'paid', 'failed')",
		"CREATE UNIQUE INDEX idx_payments_authority ON payments (authority)",
		"amount_rial NUMERIC(14, 0) NOT NULL",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
