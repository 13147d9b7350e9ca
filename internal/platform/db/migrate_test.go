package db

import (
	"testing"
	"testing/fstest"
	"time"
)

func TestLoad_SortsByVersion(t *testing.T) {
	src := fstest.MapFS{
		"003_bills.sql":        {Data: []byte("CREATE TABLE bills ();")},
		"001_profiles.sql":     {Data: []byte("CREATE TABLE profiles ();")},
		"002_appointments.sql": {Data: []byte("CREATE TABLE appointments ();")},
	}

	migrations, err := NewMigrator(nil, src).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []int{1, 2, 3} {
		if migrations[i].Version != want {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, want)
		}
	}
	if migrations[0].SQL != "CREATE TABLE profiles ();" {
		t.Errorf("unexpected SQL: %s", migrations[0].SQL)
	}
}

func TestLoad_SkipsUnrelatedFiles(t *testing.T) {
	src := fstest.MapFS{
		"001_portal.sql": {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("docs")},
		"seed.sql":       {Data: []byte("SELECT 2;")},
		"abc_portal.sql": {Data: []byte("SELECT 3;")},
		"old/002_x.sql":  {Data: []byte("SELECT 4;")},
	}

	migrations, err := NewMigrator(nil, src).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Name != "001_portal.sql" {
		t.Fatalf("expected only 001_portal.sql, got %+v", migrations)
	}
}

func TestLoad_RejectsDuplicateVersion(t *testing.T) {
	src := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"01_b.sql":  {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, src).Load(); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestLoad_EmptySource(t *testing.T) {
	migrations, err := NewMigrator(nil, fstest.MapFS{}).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations, got %d", len(migrations))
	}
}

func TestMergeStatus(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	migrations := []Migration{
		{Version: 1, Name: "001_portal.sql"},
		{Version: 2, Name: "002_slots.sql"},
	}

	statuses := mergeStatus(migrations, map[int]time.Time{1: at})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(at) {
		t.Errorf("expected first migration applied at %v, got %+v", at, statuses[0])
	}
	if statuses[1].Applied || statuses[1].AppliedAt != nil {
		t.Errorf("expected second migration pending, got %+v", statuses[1])
	}
}

func TestSchemaPattern(t *testing.T) {
	valid := []string{"public", "portal", "portal_test", "_x"}
	invalid := []string{"", "1abc", "a-b", "a;DROP", "a b"}
	for _, s := range valid {
		if !schemaPattern.MatchString(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if schemaPattern.MatchString(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
