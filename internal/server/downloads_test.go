package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadStore_TakeIsOneShot(t *testing.T) {
	s := NewDownloadStore(time.Minute)
	id := s.Put("agenda.xlsx", xlsxContentType, []byte("data"))
	require.NotEmpty(t, id)
	assert.Equal(t, 1, s.Len())

	d, ok := s.Take(id)
	require.True(t, ok)
	assert.Equal(t, "agenda.xlsx", d.Name)
	assert.Equal(t, []byte("data"), d.Data)

	_, ok = s.Take(id)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestDownloadStore_UniqueIDs(t *testing.T) {
	s := NewDownloadStore(0)
	a := s.Put("a", "", nil)
	b := s.Put("b", "", nil)
	assert.NotEqual(t, a, b)
}

func TestDownloadStore_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewDownloadStore(10 * time.Minute)
	s.now = func() time.Time { return now }

	expired := s.Put("old", "", nil)
	now = now.Add(5 * time.Minute)
	fresh := s.Put("new", "", nil)
	now = now.Add(5 * time.Minute)

	_, ok := s.Take(expired)
	assert.False(t, ok)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Sweep())

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, ok = s.Take(fresh)
	assert.False(t, ok)
}

func TestDownloadStore_UnknownID(t *testing.T) {
	_, ok := NewDownloadStore(0).Take("missing")
	assert.False(t, ok)
}

func TestDownloadStore_RunStopsOnCancel(t *testing.T) {
	s := NewDownloadStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
