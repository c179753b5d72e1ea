package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comnyando/craftstock-backend/pkg/migrate"
)

func TestCraftsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_crafts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no crafts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS crafts",
		"status craft_status_enum NOT NULL DEFAULT 'planned'",
		"CREATE TABLE IF NOT EXISTS craft_ingredients",
		"FOREIGN KEY (craft_id) REFERENCES crafts(id) ON DELETE CASCADE",
		"CHECK (required_quantity > 0)",
		"UNIQUE (craft_id, position)",
		"DROP TABLE IF EXISTS craft_ingredients",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
