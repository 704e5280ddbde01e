package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/4thel00z/pulse/internal"
)

// Client embeds the activity pipeline in another process, typically an
// editor plugin host. Events flow in through Event; delivery to the
// collector happens on the configured interval while started, or on
// demand through Sync.
type Client struct {
	cfg        *internal.Config
	store      *internal.Store
	batch      *internal.PendingBatch
	correlator *internal.Correlator
	tracker    *internal.Tracker
	syncer     *internal.Syncer
}

// New assembles a Client from the given options.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	cfg, err := internal.LoadConfig(cc.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cc.databasePath != "" {
		cfg.DatabasePath = cc.databasePath
	}

	store, err := internal.OpenStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var inspector internal.Inspector
	if cfg.Inspector == "git" {
		inspector, err = internal.NewGitCLIInspector()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create inspector: %w", err)
		}
	} else {
		inspector = internal.NewGitInspector()
	}

	correlator := internal.NewCorrelator(store, inspector, cc.logger)
	collector := internal.NewHTTPCollector(cfg.Collector.URL, cfg.Collector.Token, cc.httpClient)

	batch := internal.NewPendingBatch()
	syncer := internal.NewSyncer(batch, store, collector, internal.SyncerOptions{
		Interval: time.Duration(cfg.SyncIntervalMS) * time.Millisecond,
		Logger:   cc.logger,
	})
	tracker := internal.NewTracker(batch, correlator, inspector, syncer, internal.TrackerOptions{
		EditorID: cfg.EditorID,
		Debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
		MaxIdle:  time.Duration(cfg.MaxIdleMS) * time.Millisecond,
		Logger:   cc.logger,
	})

	return &Client{
		cfg:        cfg,
		store:      store,
		batch:      batch,
		correlator: correlator,
		tracker:    tracker,
		syncer:     syncer,
	}, nil
}

// Start enables tracking and the periodic sync loop. Idempotent.
func (c *Client) Start(ctx context.Context) {
	for _, root := range c.cfg.Projects {
		c.correlator.InitializeProject(ctx, root)
	}
	c.tracker.Start(ctx)
}

// Stop disables tracking and cancels the sync loop. Idempotent.
func (c *Client) Stop() {
	c.tracker.Stop()
}

// Event forwards one editor notification to the tracker.
func (c *Client) Event(ctx context.Context, ev Event) {
	c.tracker.OnEvent(ctx, internal.RawEvent{
		Type:          internal.RawEventType(ev.Type),
		FilePath:      ev.File,
		WorkspaceRoot: ev.Workspace,
		Language:      ev.Language,
	})
}

// Sync forces a single flush-and-push iteration.
func (c *Client) Sync(ctx context.Context) (SyncResult, error) {
	res, err := c.syncer.SyncOnce(ctx)
	return SyncResult{
		ActivitiesPushed: res.ActivitiesPushed,
		RevisionsPushed:  res.RevisionsPushed,
	}, err
}

// Close stops tracking and releases the store.
func (c *Client) Close() error {
	c.tracker.Stop()
	return c.store.Close()
}
