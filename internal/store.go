package internal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const storeSchemaVersion = 1

// Store is the SQLite-backed RecordStore. Rows present in either table
// are unsynced; acknowledged rows are deleted. SQLite allocates ids,
// callers never do.
type Store struct {
	db *sql.DB
}

var _ RecordStore = (*Store)(nil)

// OpenStore creates or opens the database at path. WAL mode keeps
// reads cheap while the sync loop writes; a single connection avoids
// SQLITE_BUSY between the flush and push steps.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < storeSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", storeSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

func (s *Store) InsertActivity(ctx context.Context, rec *ActivityRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (project_root, file_path, language, timestamp, duration, editor_id, revision_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ProjectRoot, rec.FilePath, rec.Language, rec.Timestamp, rec.Duration, rec.EditorID, rec.RevisionHash,
	)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("activity id: %w", err)
	}
	return id, nil
}

func (s *Store) InsertRevision(ctx context.Context, rec *RevisionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO revisions (project_root, revision_hash, message, author, author_email, timestamp, files_changed, lines_added, lines_deleted, branch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ProjectRoot, rec.RevisionHash, rec.Message, rec.Author, rec.AuthorEmail,
		rec.Timestamp, rec.FilesChanged, rec.LinesAdded, rec.LinesDeleted, rec.Branch,
	)
	if err != nil {
		return 0, fmt.Errorf("insert revision: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("revision id: %w", err)
	}
	return id, nil
}

// UnsyncedActivities returns up to limit records, oldest first.
func (s *Store) UnsyncedActivities(ctx context.Context, limit int) ([]*ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_root, file_path, language, timestamp, duration, editor_id, revision_hash
		FROM activities ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var recs []*ActivityRecord
	for rows.Next() {
		rec := &ActivityRecord{}
		if err := rows.Scan(&rec.ID, &rec.ProjectRoot, &rec.FilePath, &rec.Language,
			&rec.Timestamp, &rec.Duration, &rec.EditorID, &rec.RevisionHash); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *Store) UnsyncedRevisions(ctx context.Context, limit int) ([]*RevisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_root, revision_hash, message, author, author_email, timestamp, files_changed, lines_added, lines_deleted, branch
		FROM revisions ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	var recs []*RevisionRecord
	for rows.Next() {
		rec := &RevisionRecord{}
		if err := rows.Scan(&rec.ID, &rec.ProjectRoot, &rec.RevisionHash, &rec.Message,
			&rec.Author, &rec.AuthorEmail, &rec.Timestamp, &rec.FilesChanged,
			&rec.LinesAdded, &rec.LinesDeleted, &rec.Branch); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *Store) DeleteActivities(ctx context.Context, ids []int64) error {
	return s.deleteByID(ctx, "activities", ids)
}

func (s *Store) DeleteRevisions(ctx context.Context, ids []int64) error {
	return s.deleteByID(ctx, "revisions", ids)
}

func (s *Store) deleteByID(ctx context.Context, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	return nil
}

// CountUnsynced reports how many records of each kind are waiting.
func (s *Store) CountUnsynced(ctx context.Context) (activities, revisions int64, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&activities); err != nil {
		return 0, 0, fmt.Errorf("count activities: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM revisions").Scan(&revisions); err != nil {
		return 0, 0, fmt.Errorf("count revisions: %w", err)
	}
	return activities, revisions, nil
}
