package client

import (
	"sync"

	"github.com/rumfor/market-tracker/internal/tracking"
)

// trackingAPI is the slice of the API the tracking store needs.
type trackingAPI interface {
	Track(marketID int64, status ...tracking.Status) (*tracking.Tracking, error)
	Untrack(marketID int64) error
	ListTrackings() ([]*tracking.Tracking, error)
}

// TrackingStore caches which markets the user tracks. Mutations apply
// optimistically so the UI reflects intent immediately, then roll back
// if the server rejects the call. The store is safe for concurrent use.
type TrackingStore struct {
	api trackingAPI

	mu       sync.Mutex
	statuses map[int64]tracking.Status
	lastErr  error
}

// NewTrackingStore creates a tracking store backed by the given API.
func NewTrackingStore(api trackingAPI) *TrackingStore {
	return &TrackingStore{
		api:      api,
		statuses: make(map[int64]tracking.Status),
	}
}

// Load replaces the cache with the server's tracking list.
func (s *TrackingStore) Load() error {
	trackings, err := s.api.ListTrackings()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = make(map[int64]tracking.Status, len(trackings))
	for _, tr := range trackings {
		s.statuses[tr.MarketID] = tr.Status
	}
	return nil
}

// Track marks the market tracked immediately, then confirms with the
// server. On failure the optimistic entry is rolled back and the error
// recorded.
func (s *TrackingStore) Track(marketID int64, status ...tracking.Status) error {
	optimistic := tracking.StatusInterested
	if len(status) > 0 {
		optimistic = status[0]
	}

	s.mu.Lock()
	if _, ok := s.statuses[marketID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.statuses[marketID] = optimistic
	s.mu.Unlock()

	tr, err := s.api.Track(marketID, status...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		delete(s.statuses, marketID)
		s.lastErr = err
		return err
	}
	s.statuses[marketID] = tr.Status
	return nil
}

// Untrack removes the market immediately, then confirms with the
// server. On failure the previous entry is restored.
func (s *TrackingStore) Untrack(marketID int64) error {
	s.mu.Lock()
	prev, ok := s.statuses[marketID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.statuses, marketID)
	s.mu.Unlock()

	err := s.api.Untrack(marketID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.statuses[marketID] = prev
		s.lastErr = err
		return err
	}
	return nil
}

// IsTracked reports whether the market is in the cache.
func (s *TrackingStore) IsTracked(marketID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.statuses[marketID]
	return ok
}

// Status returns the cached tracking status for a market.
func (s *TrackingStore) Status(marketID int64) (tracking.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[marketID]
	return status, ok
}

// Count returns how many markets are tracked.
func (s *TrackingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statuses)
}

// Err returns the last mutation error, if any.
func (s *TrackingStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the recorded error.
func (s *TrackingStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}
