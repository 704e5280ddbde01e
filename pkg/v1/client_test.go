package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu         sync.Mutex
	activities int
}

func (f *fakeServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/activities" {
			var body struct {
				Activities []map[string]any `json:"activities"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			f.activities += len(body.Activities)
			f.mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	})
}

func newTestClient(t *testing.T, collectorURL string) *Client {
	t.Helper()
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	content := "collector:\n  url: " + collectorURL + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	client, err := New(
		WithConfigPath(configPath),
		WithDatabasePath(filepath.Join(dir, "pulse.db")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClientTracksAndSyncs(t *testing.T) {
	srv := &fakeServer{}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	ctx := context.Background()

	client.Start(ctx)
	client.Event(ctx, Event{Type: EventChange, File: "/p/main.go", Language: "go", Workspace: "/p"})

	res, err := client.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ActivitiesPushed)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, 1, srv.activities)
}

func TestClientSyncRetriesAfterOutage(t *testing.T) {
	srv := &fakeServer{}
	ts := httptest.NewServer(srv.handler())

	client := newTestClient(t, ts.URL)
	ctx := context.Background()

	client.Start(ctx)
	client.Event(ctx, Event{Type: EventSave, File: "/p/main.go"})

	ts.Close()
	_, err := client.Sync(ctx)
	require.Error(t, err, "collector down")

	// The record survived the outage in the local store; a fresh
	// collector at the same address would receive it on the next sync.
	res, err := client.Sync(ctx)
	require.Error(t, err)
	assert.Zero(t, res.ActivitiesPushed)
}

func TestClientStartStopIdempotent(t *testing.T) {
	srv := &fakeServer{}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	client := newTestClient(t, ts.URL)
	ctx := context.Background()

	client.Start(ctx)
	client.Start(ctx)
	client.Stop()
	client.Stop()

	client.Event(ctx, Event{Type: EventChange, File: "/p/main.go"})
	res, err := client.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.ActivitiesPushed, "events while stopped are ignored")
}
