// Package database provides connection setup for MariaDB and Redis.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

func upMigrations(t *testing.T) map[string]string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(migrationsDir(t), "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migration files found")
	}

	contents := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		contents[filepath.Base(f)] = string(data)
	}
	return contents
}

// enumPattern extracts the quoted values of an ENUM(...) column definition.
var enumPattern = regexp.MustCompile(`(?i)(\w+)\s+ENUM\s*\(([^)]+)\)`)

// TestMigrations_EmotionEnumMatchesCode checks every emotion ENUM in the
// schema against the emotion set the code validates with. A value added on
// one side but not the other causes either silent truncation (Error 1265)
// or permanently unreachable values.
func TestMigrations_EmotionEnumMatchesCode(t *testing.T) {
	found := false
	for file, content := range upMigrations(t) {
		for _, m := range enumPattern.FindAllStringSubmatch(content, -1) {
			if m[1] != "emotion" {
				continue
			}
			found = true

			values := parseEnumValues(m[2])
			if len(values) != len(events.ValidEmotions) {
				t.Errorf("%s: emotion ENUM has %d values, code accepts %d", file, len(values), len(events.ValidEmotions))
			}
			for _, v := range values {
				if !events.ValidEmotions[v] {
					t.Errorf("%s: emotion ENUM value %q not accepted by code", file, v)
				}
			}
		}
	}
	if !found {
		t.Fatal("no emotion ENUM found in migrations")
	}
}

// TestMigrations_KeywordSourceEnumMatchesCode checks the keywords.source
// ENUM against the source constants the code writes.
func TestMigrations_KeywordSourceEnumMatchesCode(t *testing.T) {
	valid := map[string]bool{
		keywords.SourceUser:  true,
		keywords.SourcePhoto: true,
	}

	found := false
	for file, content := range upMigrations(t) {
		for _, m := range enumPattern.FindAllStringSubmatch(content, -1) {
			if m[1] != "source" {
				continue
			}
			found = true

			values := parseEnumValues(m[2])
			if len(values) != len(valid) {
				t.Errorf("%s: source ENUM has %d values, code writes %d", file, len(values), len(valid))
			}
			for _, v := range values {
				if !valid[v] {
					t.Errorf("%s: source ENUM value %q not written by code", file, v)
				}
			}
		}
	}
	if !found {
		t.Fatal("no source ENUM found in migrations")
	}
}

// TestMigrations_DiaryUniquePerUserDate checks the one-diary-per-day
// constraint exists in the schema, since the idempotent create path relies
// on the database enforcing it.
func TestMigrations_DiaryUniquePerUserDate(t *testing.T) {
	for _, content := range upMigrations(t) {
		if !strings.Contains(content, "CREATE TABLE diaries") {
			continue
		}
		normalized := strings.Join(strings.Fields(content), " ")
		if !strings.Contains(normalized, "UNIQUE KEY uq_diaries_user_date (user_id, date)") {
			t.Error("diaries table is missing the UNIQUE (user_id, date) constraint")
		}
		return
	}
	t.Fatal("no diaries table found in migrations")
}

// TestMigrations_EveryUpHasDown checks that each up migration has a
// matching down migration so rollbacks stay possible.
func TestMigrations_EveryUpHasDown(t *testing.T) {
	dir := migrationsDir(t)
	ups, _ := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}

// parseEnumValues splits the inside of ENUM(...) into its quoted values.
func parseEnumValues(inner string) []string {
	var values []string
	for _, part := range strings.Split(inner, ",") {
		v := strings.TrimSpace(part)
		v = strings.Trim(v, "'")
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
