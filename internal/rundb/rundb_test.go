package rundb

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordStartAndFinish(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	if err := db.RecordStart(ctx, "run-1", started); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	finished := started.Add(2 * time.Second)
	if err := db.RecordFinish(ctx, "run-1", finished, true, ""); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	run, err := db.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !run.Success.Valid || !run.Success.Bool {
		t.Errorf("expected success = true, got %+v", run.Success)
	}
	if !run.FinishedAt.Valid {
		t.Errorf("expected FinishedAt to be set")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := db.RecordStart(ctx, id, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordStart(%s): %v", id, err)
		}
	}

	runs, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "run-c" || runs[1].RunID != "run-b" {
		t.Errorf("unexpected order: %v", runs)
	}
}
