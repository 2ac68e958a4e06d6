package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDownloadTTL is how long a generated file stays downloadable.
const DefaultDownloadTTL = 10 * time.Minute

// Download is a generated file waiting to be fetched.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
	expires     time.Time
}

// DownloadStore keeps generated files in memory until they are fetched once
// or expire.
type DownloadStore struct {
	mu    sync.Mutex
	items map[string]Download
	ttl   time.Duration
	now   func() time.Time
}

// NewDownloadStore creates a store. A non-positive ttl uses DefaultDownloadTTL.
func NewDownloadStore(ttl time.Duration) *DownloadStore {
	if ttl <= 0 {
		ttl = DefaultDownloadTTL
	}
	return &DownloadStore{
		items: make(map[string]Download),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores a file and returns its id.
func (s *DownloadStore) Put(name, contentType string, data []byte) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = Download{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		expires:     s.now().Add(s.ttl),
	}
	return id
}

// Take removes and returns the file for id. Unknown and expired ids report false.
func (s *DownloadStore) Take(id string) (Download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.items[id]
	if !ok {
		return Download{}, false
	}
	delete(s.items, id)
	if !s.now().Before(d.expires) {
		return Download{}, false
	}
	return d, true
}

// Len returns the number of stored files, expired ones included until the
// next Sweep.
func (s *DownloadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired files and returns how many were removed.
func (s *DownloadStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, d := range s.items {
		if !now.Before(d.expires) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *DownloadStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
