package v1

// EventType names a raw editor notification.
type EventType string

const (
	EventChange    EventType = "change"
	EventSelection EventType = "selection"
	EventSave      EventType = "save"
)

// Event is one editor notification forwarded to the tracker.
type Event struct {
	Type      EventType `json:"type"`
	File      string    `json:"file"`
	Language  string    `json:"language,omitempty"`
	Workspace string    `json:"workspace,omitempty"`
}

// SyncResult reports what a forced sync pushed.
type SyncResult struct {
	ActivitiesPushed int `json:"activities_pushed"`
	RevisionsPushed  int `json:"revisions_pushed"`
}
