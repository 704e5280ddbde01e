package internal

import (
	"context"
	"errors"
)

var (
	ErrNoRepository = errors.New("not a repository")
	ErrNoDetails    = errors.New("revision details unavailable")
)

// ActivityRecord is one unit of observed editor work. ID is zero until
// the record has been persisted; only persisted records may appear in a
// sync or delete batch.
type ActivityRecord struct {
	ID           int64  `json:"-"`
	ProjectRoot  string `json:"projectRoot"`
	FilePath     string `json:"filePath"`
	Language     string `json:"language"`
	Timestamp    int64  `json:"timestamp"` // ms since epoch
	Duration     int64  `json:"duration"`  // ms attributed to this record
	EditorID     string `json:"editorId"`
	RevisionHash string `json:"revisionHash,omitempty"`
}

// RevisionRecord is a detected source-control commit.
type RevisionRecord struct {
	ID           int64  `json:"-"`
	ProjectRoot  string `json:"projectRoot"`
	RevisionHash string `json:"revisionHash"`
	Message      string `json:"message"`
	Author       string `json:"author"`
	AuthorEmail  string `json:"authorEmail"`
	Timestamp    int64  `json:"timestamp"` // ms since epoch
	FilesChanged int    `json:"filesChanged"`
	LinesAdded   int    `json:"linesAdded"`
	LinesDeleted int    `json:"linesDeleted"`
	Branch       string `json:"branch,omitempty"`
}

// RecordStore is the durable, append-only home of records awaiting
// delivery. Rows are deleted only after the remote collector has
// acknowledged them; everything still present is unsynced.
type RecordStore interface {
	InsertActivity(ctx context.Context, rec *ActivityRecord) (int64, error)
	InsertRevision(ctx context.Context, rec *RevisionRecord) (int64, error)
	UnsyncedActivities(ctx context.Context, limit int) ([]*ActivityRecord, error)
	UnsyncedRevisions(ctx context.Context, limit int) ([]*RevisionRecord, error)
	DeleteActivities(ctx context.Context, ids []int64) error
	DeleteRevisions(ctx context.Context, ids []int64) error
}

// Collector is the remote endpoint records are delivered to. A true
// result means every record in the batch was durably accepted; false
// or an error leaves the batch unsynced for a later attempt.
type Collector interface {
	SubmitActivities(ctx context.Context, batch []*ActivityRecord) (bool, error)
	SubmitRevisions(ctx context.Context, batch []*RevisionRecord) (bool, error)
}
