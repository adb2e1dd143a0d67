package shared

import (
	"database/sql"
	"errors"
	"testing"
)

func newMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func indexExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&count); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrations(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		want := []struct {
			version int
			name    string
		}{
			{0, "create_filter_jobs"},
			{1, "index_filter_jobs_status"},
		}
		if len(migrations) != len(want) {
			t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
		}
		for i, w := range want {
			if migrations[i].Version != w.version || migrations[i].Name != w.name {
				t.Errorf("migration %d: expected %d %s, got %d %s", i, w.version, w.name, migrations[i].Version, migrations[i].Name)
			}
			if migrations[i].Up == "" || migrations[i].Down == "" {
				t.Errorf("migration %d missing up or down SQL", w.version)
			}
		}
	})

	t.Run("migrationName", func(t *testing.T) {
		tests := []struct {
			file string
			ok   bool
		}{
			{"0000_create_filter_jobs_up.sql", true},
			{"0012_drop_x_down.sql", true},
			{"create_filter_jobs_up.sql", false},
			{"0000_create_filter_jobs.sql", false},
			{"0000_up.sql", false},
		}
		for _, tt := range tests {
			if got := migrationName.MatchString(tt.file); got != tt.ok {
				t.Errorf("%s: expected match %v, got %v", tt.file, tt.ok, got)
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db := newMemoryDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM filter_jobs LIMIT 1"); err != nil {
			t.Errorf("filter_jobs table should exist after migrations: %v", err)
		}
		if !indexExists(t, db, "idx_filter_jobs_status") {
			t.Error("expected status index after migrations")
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list applied migrations: %v", err)
		}
		if len(applied) != 2 || applied[0].Version != 0 || applied[1].Version != 1 {
			t.Errorf("expected versions 0 and 1 applied, got %+v", applied)
		}
		if applied[0].AppliedAt.IsZero() {
			t.Error("expected applied_at to be recorded")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := newMemoryDB(t)

		for i := range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d: failed to run migrations: %v", i+1, err)
			}
		}

		applied, err := AppliedMigrations(db)
		if err != nil {
			t.Fatalf("failed to list applied migrations: %v", err)
		}
		migrations, _ := loadMigrations()
		if len(applied) != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), len(applied))
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db := newMemoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if indexExists(t, db, "idx_filter_jobs_status") {
			t.Error("expected latest migration to be reverted first")
		}
		if _, err := db.Exec("SELECT 1 FROM filter_jobs LIMIT 1"); err != nil {
			t.Errorf("filter_jobs should survive the first rollback: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM filter_jobs LIMIT 1"); err == nil {
			t.Error("expected filter_jobs to be dropped")
		}

		if err := RollbackMigration(db); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound with nothing to rollback, got %v", err)
		}
	})

	t.Run("Reapply After Rollback", func(t *testing.T) {
		db := newMemoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to reapply migrations: %v", err)
		}
		if !indexExists(t, db, "idx_filter_jobs_status") {
			t.Error("expected status index to be recreated")
		}
	})
}
