package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// EventHandler consumes raw editor events.
type EventHandler func(ctx context.Context, ev RawEvent)

// EventSource is the subscription boundary to the host editor. The
// tracker subscribes on start and unsubscribes on stop.
type EventSource interface {
	Subscribe(handler EventHandler)
	Unsubscribe()
}

type rawEventPayload struct {
	Type      string `json:"type"`
	File      string `json:"file"`
	Language  string `json:"language,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// JSONLEventSource reads line-delimited JSON events, one per line:
//
//	{"type":"change","file":"/abs/path.go","language":"go","workspace":"/abs"}
//
// Editor plugins pipe this into `pulse track`. Malformed lines are
// logged and skipped.
type JSONLEventSource struct {
	r      io.Reader
	logger *slog.Logger

	mu      sync.Mutex
	handler EventHandler
}

var _ EventSource = (*JSONLEventSource)(nil)

func NewJSONLEventSource(r io.Reader, logger *slog.Logger) *JSONLEventSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLEventSource{r: r, logger: logger}
}

func (s *JSONLEventSource) Subscribe(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *JSONLEventSource) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
}

// Run reads until EOF or ctx cancellation. Events arriving while no
// handler is subscribed are dropped.
func (s *JSONLEventSource) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var payload rawEventPayload
		if err := json.Unmarshal(line, &payload); err != nil {
			s.logger.Warn("skip malformed event", "error", err)
			continue
		}

		ev, ok := payload.toEvent()
		if !ok {
			s.logger.Warn("skip unknown event type", "type", payload.Type)
			continue
		}

		s.mu.Lock()
		handler := s.handler
		s.mu.Unlock()
		if handler != nil {
			handler(ctx, ev)
		}
	}

	return scanner.Err()
}

func (p rawEventPayload) toEvent() (RawEvent, bool) {
	var typ RawEventType
	switch RawEventType(p.Type) {
	case EventTextChanged, EventSelectionChanged, EventDocumentSaved:
		typ = RawEventType(p.Type)
	default:
		return RawEvent{}, false
	}

	if p.File == "" {
		return RawEvent{}, false
	}

	return RawEvent{
		Type:          typ,
		FilePath:      p.File,
		WorkspaceRoot: p.Workspace,
		Language:      p.Language,
	}, true
}
