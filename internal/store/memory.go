package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/crop-advisor/internal/advisor"
	"github.com/i474232898/crop-advisor/internal/report"
)

var (
	// ErrNotFound is returned when no snapshot is available for a given location.
	ErrNotFound = errors.New("no survey data for location")
)

// SnapshotHistory holds a time-ordered list of survey snapshots for a location.
type SnapshotHistory struct {
	Snapshots []advisor.Snapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of advisor.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: coordinates key, value: history
	data map[string]*SnapshotHistory

	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(c report.Coordinates, snapshot advisor.Snapshot) {
	key := c.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age; the newest snapshot always survives.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots)-1; i++ {
			if !history.Snapshots[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Snapshots = history.Snapshots[i:]
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(c report.Coordinates) (advisor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[c.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return advisor.Snapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a location fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(c report.Coordinates, from, to time.Time) ([]advisor.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[c.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []advisor.Snapshot
	for _, snap := range history.Snapshots {
		if !snap.FetchedAt.Before(from) && !snap.FetchedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
