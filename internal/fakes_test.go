package internal

import (
	"context"
	"errors"
	"sync"
)

// fakeInspector serves canned answers and records call counts.
type fakeInspector struct {
	mu          sync.Mutex
	head        map[string]string // root -> hash
	headErr     error
	branch      map[string]string
	details     map[string]*RevisionDetails // hash -> details
	detailsErr  error
	roots       map[string]string // path -> root
	detailCalls int
}

func newFakeInspector() *fakeInspector {
	return &fakeInspector{
		head:    make(map[string]string),
		branch:  make(map[string]string),
		details: make(map[string]*RevisionDetails),
		roots:   make(map[string]string),
	}
}

func (f *fakeInspector) Head(ctx context.Context, root string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return "", f.headErr
	}
	hash, ok := f.head[root]
	if !ok {
		return "", ErrNoRepository
	}
	return hash, nil
}

func (f *fakeInspector) Branch(ctx context.Context, root string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch[root], nil
}

func (f *fakeInspector) Details(ctx context.Context, root, hash string) (*RevisionDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	d, ok := f.details[hash]
	if !ok {
		return nil, ErrNoDetails
	}
	return d, nil
}

func (f *fakeInspector) RepositoryRoot(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	root, ok := f.roots[path]
	return root, ok
}

// memStore is an in-memory RecordStore with injectable failures.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	activities []*ActivityRecord
	revisions  []*RevisionRecord
	insertErr  error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) InsertActivity(ctx context.Context, rec *ActivityRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	clone := *rec
	clone.ID = m.nextID
	m.nextID++
	m.activities = append(m.activities, &clone)
	return clone.ID, nil
}

func (m *memStore) InsertRevision(ctx context.Context, rec *RevisionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	clone := *rec
	clone.ID = m.nextID
	m.nextID++
	m.revisions = append(m.revisions, &clone)
	return clone.ID, nil
}

func (m *memStore) UnsyncedActivities(ctx context.Context, limit int) ([]*ActivityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(limit, len(m.activities))
	out := make([]*ActivityRecord, n)
	copy(out, m.activities[:n])
	return out, nil
}

func (m *memStore) UnsyncedRevisions(ctx context.Context, limit int) ([]*RevisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(limit, len(m.revisions))
	out := make([]*RevisionRecord, n)
	copy(out, m.revisions[:n])
	return out, nil
}

func (m *memStore) DeleteActivities(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.activities[:0]
	for _, rec := range m.activities {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	m.activities = kept
	return nil
}

func (m *memStore) DeleteRevisions(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.revisions[:0]
	for _, rec := range m.revisions {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	m.revisions = kept
	return nil
}

var errCollectorDown = errors.New("collector unreachable")

// fakeCollector acknowledges batches after failing a configured number
// of times and remembers everything it accepted.
type fakeCollector struct {
	mu            sync.Mutex
	failuresLeft  int
	rejectNextN   int
	gotActivities [][]*ActivityRecord
	gotRevisions  [][]*RevisionRecord
}

func (f *fakeCollector) SubmitActivities(ctx context.Context, batch []*ActivityRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return false, errCollectorDown
	}
	if f.rejectNextN > 0 {
		f.rejectNextN--
		return false, nil
	}
	cp := make([]*ActivityRecord, len(batch))
	copy(cp, batch)
	f.gotActivities = append(f.gotActivities, cp)
	return true, nil
}

func (f *fakeCollector) SubmitRevisions(ctx context.Context, batch []*RevisionRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return false, errCollectorDown
	}
	if f.rejectNextN > 0 {
		f.rejectNextN--
		return false, nil
	}
	cp := make([]*RevisionRecord, len(batch))
	copy(cp, batch)
	f.gotRevisions = append(f.gotRevisions, cp)
	return true, nil
}
