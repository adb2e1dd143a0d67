package repositories

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/genrefy/internal/models"
	"github.com/desertthunder/genrefy/internal/shared"
)

var _ models.Store[*models.FilterJob] = (*FilterJobRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func completedJob(source, name string, genres ...string) *models.FilterJob {
	job := models.NewFilterJob(source, name, genres, "artist")
	job.Complete("created_"+name, 10, 3)
	return job
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "filter_jobs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}

	for _, name := range []string{"", "filter_jobs; DROP TABLE filter_jobs", "Filter-Jobs"} {
		if _, err := NextSequence(db, name); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", name, err)
		}
	}

	if _, err := db.Exec("DELETE FROM filter_jobs_sequence"); err != nil {
		t.Fatalf("failed to clear sequence: %v", err)
	}
	if _, err := NextSequence(db, "filter_jobs"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound without a counter row, got %v", err)
	}
}

func TestFilterJobRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := completedJob("src1", "Pop", "pop")

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
		if job.ID() == "" {
			t.Error("job ID should be set after creation")
		}
		if job.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", job.Sequence())
		}
	})

	t.Run("Create Rejects Invalid Job", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := models.NewFilterJob("src1", "Pop", []string{"pop"}, "artist")

		if err := repo.Create(job); err == nil {
			t.Error("expected validation error for job without status")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := completedJob("src1", "Rock", "rock", "indie rock")
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		got, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}

		if got.SourcePlaylistID != "src1" || got.PlaylistName != "Rock" || got.CreatedPlaylistID != "created_Rock" {
			t.Errorf("unexpected job %+v", got)
		}
		if !reflect.DeepEqual(got.Genres, []string{"rock", "indie rock"}) {
			t.Errorf("expected genres to round trip, got %v", got.Genres)
		}
		if got.Status != models.JobCompleted || got.TotalTracks != 10 || got.MatchedTracks != 3 {
			t.Errorf("unexpected outcome %+v", got)
		}
		if got.CreatedAt().IsZero() {
			t.Error("expected created_at to be set")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))

		_, err := repo.Get("nope")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Failed Job Keeps Error", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := models.NewFilterJob("src1", "Jazz", []string{"jazz"}, "album")
		job.Fail(errors.New("playlist creation failed"))
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		got, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}
		if got.Status != models.JobFailed || got.Error != "playlist creation failed" || got.CreatedPlaylistID != "" {
			t.Errorf("unexpected job %+v", got)
		}
		if got.Strategy != "album" {
			t.Errorf("expected album strategy, got %s", got.Strategy)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := models.NewFilterJob("src1", "Pop", []string{"pop"}, "artist")
		job.Fail(errors.New("boom"))
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		job.Complete("new1", 5, 2)
		if err := repo.Update(job); err != nil {
			t.Fatalf("failed to update job: %v", err)
		}

		got, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get job: %v", err)
		}
		if got.Status != models.JobCompleted || got.Error != "" || got.CreatedPlaylistID != "new1" {
			t.Errorf("unexpected job after update %+v", got)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := completedJob("src1", "Pop", "pop")
		job.SetID("nope")

		if err := repo.Update(job); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		job := completedJob("src1", "Pop", "pop")
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		if err := repo.Delete(job.ID()); err != nil {
			t.Fatalf("failed to delete job: %v", err)
		}
		if _, err := repo.Get(job.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted job to be gone, got %v", err)
		}
		if err := repo.Delete(job.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewFilterJobRepository(setupTestDB(t))
		for _, job := range []*models.FilterJob{
			completedJob("src1", "A", "pop"),
			completedJob("src2", "B", "rock"),
			completedJob("src1", "C", "jazz"),
		} {
			if err := repo.Create(job); err != nil {
				t.Fatalf("failed to create job: %v", err)
			}
		}
		failed := models.NewFilterJob("src1", "D", []string{"metal"}, "artist")
		failed.Fail(errors.New("boom"))
		if err := repo.Create(failed); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []string
		}{
			{name: "All", criteria: map[string]any{}, want: []string{"A", "B", "C", "D"}},
			{name: "By Source", criteria: map[string]any{"source_playlist_id": "src1"}, want: []string{"A", "C", "D"}},
			{name: "By Status", criteria: map[string]any{"status": models.JobFailed}, want: []string{"D"}},
			{name: "By Status String", criteria: map[string]any{"status": "completed"}, want: []string{"A", "B", "C"}},
			{name: "Limit", criteria: map[string]any{"limit": 2}, want: []string{"A", "B"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				jobs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list jobs: %v", err)
				}
				names := []string{}
				for _, j := range jobs {
					names = append(names, j.PlaylistName)
				}
				if !reflect.DeepEqual(names, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, names)
				}
			})
		}

		t.Run("Recent", func(t *testing.T) {
			jobs, err := repo.Recent(2)
			if err != nil {
				t.Fatalf("failed to list recent jobs: %v", err)
			}
			if len(jobs) != 2 || jobs[0].PlaylistName != "D" || jobs[1].PlaylistName != "C" {
				t.Errorf("expected newest first, got %d jobs", len(jobs))
			}
		})
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFilterJobRepository(db)
		db.Close()

		if err := repo.Create(completedJob("src1", "A", "pop")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
	})
}
