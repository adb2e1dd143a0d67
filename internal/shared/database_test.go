package shared

import (
	"path/filepath"
	"testing"
)

func TestDataSourceName(t *testing.T) {
	tc := []struct {
		name string
		path string
		want string
	}{
		{name: "memory", path: ":memory:", want: ":memory:"},
		{name: "file", path: "./genrefy.db", want: "file:./genrefy.db?_busy_timeout=5000&_journal_mode=WAL"},
		{name: "explicit options", path: "file:test.db?cache=shared", want: "file:test.db?cache=shared"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataSourceName(tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOpenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genrefy.db")

	db, err := OpenConfigured(DatabaseConfig{Path: path, MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to read journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %s", mode)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM filter_jobs").Scan(&count); err != nil {
		t.Fatalf("expected filter_jobs table after migrations: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty filter_jobs, got %d rows", count)
	}
}
