package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKYCMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_vendors_kyc_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no vendors/kyc migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE kyc_status AS ENUM ('PENDING', 'UNDER_REVIEW', 'APPROVED', 'REJECTED')",
		"CREATE TYPE kyc_document_type AS ENUM ('CNIC', 'PASSPORT', 'LICENSE')",
		"CREATE TABLE IF NOT EXISTS vendors",
		"CREATE TABLE IF NOT EXISTS kyc_records",
		"CREATE TABLE IF NOT EXISTS kyc_documents",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_kyc_records_vendor_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_kyc_documents_record_type",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationFilenamesAreValid(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations found")
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		if len(name) < 15 || name[14] != '_' {
			t.Errorf("migration %q does not follow YYYYMMDDHHMMSS_name.sql", name)
		}
	}
}
