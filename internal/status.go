package internal

import "log/slog"

// Status is the coarse user-facing tracker state.
type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusSynced  Status = "synced"
	StatusOffline Status = "offline"
)

// StatusSink receives best-effort state notifications. Implementations
// must never fail in a way that reaches the core; there is nothing to
// return.
type StatusSink interface {
	Notify(status Status)
}

// LogStatusSink reports state changes through the logger.
type LogStatusSink struct {
	logger *slog.Logger
}

func NewLogStatusSink(logger *slog.Logger) *LogStatusSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogStatusSink{logger: logger}
}

func (s *LogStatusSink) Notify(status Status) {
	s.logger.Info("status", "state", string(status))
}

// NopStatusSink discards notifications.
type NopStatusSink struct{}

func (NopStatusSink) Notify(Status) {}
