package internal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type RawEventType string

const (
	EventTextChanged      RawEventType = "change"
	EventSelectionChanged RawEventType = "selection"
	EventDocumentSaved    RawEventType = "save"
)

// RawEvent is one high-frequency notification from the host editor.
type RawEvent struct {
	Type          RawEventType
	FilePath      string
	WorkspaceRoot string
	Language      string
}

// PendingBatch holds records emitted by the tracker until the sync
// loop flushes them to the store. Append and Drain exclude each other,
// so no record is lost between reading the batch and emptying it.
type PendingBatch struct {
	mu   sync.Mutex
	recs []*ActivityRecord
}

func NewPendingBatch() *PendingBatch {
	return &PendingBatch{}
}

func (b *PendingBatch) Append(rec *ActivityRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs = append(b.recs, rec)
}

// Drain atomically swaps the batch for an empty one and returns the
// previous contents.
func (b *PendingBatch) Drain() []*ActivityRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	recs := b.recs
	b.recs = nil
	return recs
}

func (b *PendingBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.recs)
}

// syncLoop is the piece of the sync engine the tracker owns the
// lifecycle of.
type syncLoop interface {
	Run(ctx context.Context)
}

// Tracker collapses dense editor event streams into sparse, debounced
// ActivityRecords. Events closer together than the debounce interval
// are discarded; a gap at or beyond the idle limit starts a fresh
// session with zero duration.
type Tracker struct {
	batch      *PendingBatch
	correlator *Correlator
	inspector  Inspector
	syncer     syncLoop
	source     EventSource
	status     StatusSink
	logger     *slog.Logger
	now        func() time.Time

	editorID string
	debounce time.Duration
	maxIdle  time.Duration

	mu           sync.Mutex
	enabled      bool
	lastActivity int64 // ms, 0 = never
	cancel       context.CancelFunc
}

type TrackerOptions struct {
	EditorID string
	Debounce time.Duration
	MaxIdle  time.Duration
	Source   EventSource // subscribed on Start, unsubscribed on Stop
	Status   StatusSink
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewTracker(batch *PendingBatch, correlator *Correlator, inspector Inspector, syncer syncLoop, opts TrackerOptions) *Tracker {
	if opts.EditorID == "" {
		opts.EditorID = DefaultEditorID
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounceMS * time.Millisecond
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = DefaultMaxIdleMS * time.Millisecond
	}
	if opts.Status == nil {
		opts.Status = NopStatusSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		batch:      batch,
		correlator: correlator,
		inspector:  inspector,
		syncer:     syncer,
		source:     opts.Source,
		status:     opts.Status,
		logger:     opts.Logger,
		now:        opts.Now,
		editorID:   opts.EditorID,
		debounce:   opts.Debounce,
		maxIdle:    opts.MaxIdle,
	}
}

// Start enables tracking and launches the sync loop. Starting an
// already-tracking tracker is a no-op.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.enabled {
		t.mu.Unlock()
		return
	}
	t.enabled = true
	t.lastActivity = 0 // each tracking session starts fresh
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	if t.syncer != nil {
		go t.syncer.Run(loopCtx)
	}
	if t.source != nil {
		t.source.Subscribe(t.OnEvent)
	}
	t.status.Notify(StatusActive)
	t.logger.Info("tracking started")
}

// Stop disables tracking and cancels the sync loop so no further
// iteration fires. Stopping an already-stopped tracker is a no-op. An
// in-flight sync iteration finishes on its own and simply does not
// reschedule.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	t.enabled = false
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if t.source != nil {
		t.source.Unsubscribe()
	}
	t.status.Notify(StatusPaused)
	t.logger.Info("tracking stopped")
}

func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// OnEvent processes one raw editor event. Events arriving within the
// debounce interval of the previous accepted event emit nothing.
func (t *Tracker) OnEvent(ctx context.Context, ev RawEvent) {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}

	now := t.now().UnixMilli()
	gap := now - t.lastActivity

	if t.lastActivity != 0 && gap < t.debounce.Milliseconds() {
		t.mu.Unlock()
		return
	}

	var duration int64
	if t.lastActivity != 0 && gap < t.maxIdle.Milliseconds() {
		duration = gap
	}
	t.lastActivity = now
	t.mu.Unlock()

	projectRoot := t.resolveProjectRoot(ev)

	rec := &ActivityRecord{
		ProjectRoot: projectRoot,
		FilePath:    ev.FilePath,
		Language:    ev.Language,
		Timestamp:   now,
		Duration:    duration,
		EditorID:    t.editorID,
	}
	if t.correlator != nil {
		if hash, ok := t.correlator.ActiveRevisionForPath(ev.FilePath); ok {
			rec.RevisionHash = hash
		}
	}

	t.batch.Append(rec)
}

// resolveProjectRoot prefers the source-control root owning the file
// over the editor-supplied workspace root; empty when neither exists.
func (t *Tracker) resolveProjectRoot(ev RawEvent) string {
	if t.inspector != nil {
		if root, ok := t.inspector.RepositoryRoot(ev.FilePath); ok {
			return root
		}
	}
	return ev.WorkspaceRoot
}
