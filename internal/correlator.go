package internal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// projectRevisionState is process-local and rebuilt on every run by
// re-querying the inspector; it is never persisted.
type projectRevisionState struct {
	current    string
	observedAt map[string]int64 // revision hash -> first seen, ms
}

// Correlator tracks the checked-out revision per project root and
// persists a RevisionRecord whenever it changes. Inspector failures
// degrade to "no revision"; they never surface to callers.
type Correlator struct {
	store     RecordStore
	inspector Inspector
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	projects map[string]*projectRevisionState
}

func NewCorrelator(store RecordStore, inspector Inspector, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		store:     store,
		inspector: inspector,
		logger:    logger,
		now:       time.Now,
		projects:  make(map[string]*projectRevisionState),
	}
}

// CurrentRevision is a pure state read; no inspector I/O happens here.
func (c *Correlator) CurrentRevision(projectRoot string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.projects[projectRoot]
	if !ok || state.current == "" {
		return "", false
	}
	return state.current, true
}

// ActiveRevisionForPath resolves the project root owning filePath and
// returns its current revision, if any.
func (c *Correlator) ActiveRevisionForPath(filePath string) (string, bool) {
	root, ok := c.inspector.RepositoryRoot(filePath)
	if !ok {
		return "", false
	}
	return c.CurrentRevision(root)
}

// InitializeProject seeds state for a project seen for the first time.
// Calling it again for a known root is a no-op.
func (c *Correlator) InitializeProject(ctx context.Context, projectRoot string) {
	c.mu.Lock()
	_, known := c.projects[projectRoot]
	c.mu.Unlock()
	if known {
		return
	}
	c.DetectChange(ctx, projectRoot)
}

// DetectChange queries HEAD and, when it differs from the stored
// revision, fetches metadata, persists a RevisionRecord, and updates
// state. Re-detecting an unchanged HEAD is a no-op.
func (c *Correlator) DetectChange(ctx context.Context, projectRoot string) {
	head, err := c.inspector.Head(ctx, projectRoot)
	if err != nil {
		c.logger.Debug("head unavailable", "project", projectRoot, "error", err)
		c.ensureState(projectRoot)
		return
	}

	c.mu.Lock()
	state := c.projects[projectRoot]
	if state == nil {
		state = &projectRevisionState{observedAt: make(map[string]int64)}
		c.projects[projectRoot] = state
	}
	unchanged := state.current == head
	c.mu.Unlock()

	if unchanged {
		return
	}

	details, err := c.inspector.Details(ctx, projectRoot, head)
	if err != nil {
		// All-or-nothing: without full details the revision is not
		// recorded and the previous revision stays current.
		c.logger.Debug("revision details unavailable", "project", projectRoot, "revision", head, "error", err)
		return
	}

	branch, err := c.inspector.Branch(ctx, projectRoot)
	if err != nil {
		branch = ""
	}

	// Claim the hash under the lock; of any concurrent detections of
	// the same revision, exactly one persists it.
	c.mu.Lock()
	state.current = head
	_, seen := state.observedAt[head]
	if !seen {
		state.observedAt[head] = c.now().UnixMilli()
	}
	c.mu.Unlock()

	if !seen {
		rec := &RevisionRecord{
			ProjectRoot:  projectRoot,
			RevisionHash: head,
			Message:      details.Message,
			Author:       details.Author,
			AuthorEmail:  details.AuthorEmail,
			Timestamp:    details.Timestamp,
			FilesChanged: details.FilesChanged,
			LinesAdded:   details.LinesAdded,
			LinesDeleted: details.LinesDeleted,
			Branch:       branch,
		}
		if _, err := c.store.InsertRevision(ctx, rec); err != nil {
			c.logger.Error("persist revision", "project", projectRoot, "revision", head, "error", err)
		}
	}

	c.logger.Info("revision detected", "project", projectRoot, "revision", head, "branch", branch)
}

func (c *Correlator) ensureState(projectRoot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.projects[projectRoot]; !ok {
		c.projects[projectRoot] = &projectRevisionState{observedAt: make(map[string]int64)}
	}
}
