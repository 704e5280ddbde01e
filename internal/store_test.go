package internal

import (
	"context"
	"path/filepath"
	"testing"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "pulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreActivityRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := &ActivityRecord{
		ProjectRoot:  "/p",
		FilePath:     "/p/main.go",
		Language:     "go",
		Timestamp:    1700000000000,
		Duration:     2500,
		EditorID:     "pulse",
		RevisionHash: "a1b2c3",
	}

	id, err := store.InsertActivity(ctx, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := store.UnsyncedActivities(ctx, 10)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	want := *rec
	want.ID = id
	if *got[0] != want {
		t.Errorf("round trip = %+v, want %+v", *got[0], want)
	}
}

func TestStoreRevisionRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec := &RevisionRecord{
		ProjectRoot:  "/p",
		RevisionHash: "b2",
		Message:      "fix things",
		Author:       "dev",
		AuthorEmail:  "dev@local",
		Timestamp:    1700000001000,
		FilesChanged: 3,
		LinesAdded:   10,
		LinesDeleted: 2,
		Branch:       "main",
	}

	id, err := store.InsertRevision(ctx, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.UnsyncedRevisions(ctx, 10)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	want := *rec
	want.ID = id
	if *got[0] != want {
		t.Errorf("round trip = %+v, want %+v", *got[0], want)
	}
}

func TestStoreUnsyncedLimitAndOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := store.InsertActivity(ctx, &ActivityRecord{
			FilePath:  "/p/f.go",
			Timestamp: int64(1000 + i),
			EditorID:  "pulse",
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	got, err := store.UnsyncedActivities(ctx, 3)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, rec := range got {
		if rec.ID != ids[i] {
			t.Errorf("got[%d].ID = %d, want %d (oldest first)", i, rec.ID, ids[i])
		}
	}
}

func TestStoreDeleteActivities(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id1, _ := store.InsertActivity(ctx, &ActivityRecord{FilePath: "/a", EditorID: "pulse"})
	id2, _ := store.InsertActivity(ctx, &ActivityRecord{FilePath: "/b", EditorID: "pulse"})

	if err := store.DeleteActivities(ctx, []int64{id1}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := store.UnsyncedActivities(ctx, 10)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(got) != 1 || got[0].ID != id2 {
		t.Errorf("remaining = %+v, want only id %d", got, id2)
	}
}

func TestStoreDeleteEmptyIsNoop(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.DeleteActivities(ctx, nil); err != nil {
		t.Fatalf("delete nil: %v", err)
	}
	if err := store.DeleteRevisions(ctx, nil); err != nil {
		t.Fatalf("delete nil: %v", err)
	}
}

func TestStoreCountUnsynced(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.InsertActivity(ctx, &ActivityRecord{FilePath: "/a", EditorID: "pulse"})
	store.InsertActivity(ctx, &ActivityRecord{FilePath: "/b", EditorID: "pulse"})
	store.InsertRevision(ctx, &RevisionRecord{ProjectRoot: "/p", RevisionHash: "a1"})

	activities, revisions, err := store.CountUnsynced(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if activities != 2 || revisions != 1 {
		t.Errorf("counts = %d/%d, want 2/1", activities, revisions)
	}
}

func TestStoreIDsAreDistinctPerKind(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	aid1, _ := store.InsertActivity(ctx, &ActivityRecord{FilePath: "/a", EditorID: "pulse"})
	aid2, _ := store.InsertActivity(ctx, &ActivityRecord{FilePath: "/b", EditorID: "pulse"})
	rid1, _ := store.InsertRevision(ctx, &RevisionRecord{ProjectRoot: "/p", RevisionHash: "a1"})
	rid2, _ := store.InsertRevision(ctx, &RevisionRecord{ProjectRoot: "/p", RevisionHash: "b2"})

	if aid1 == aid2 {
		t.Error("activity ids collide")
	}
	if rid1 == rid2 {
		t.Error("revision ids collide")
	}
}
