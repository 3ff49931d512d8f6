// fakes.go - In-memory fakes for provider and cache collaborators
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/floor-layout/backend/internal/models"
)

// ErrFake is returned by fakes configured to fail.
var ErrFake = errors.New("fake failure")

// MemoryCache implements provider.Cache in memory. Expiry is ignored.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	Gets    int
	Sets    int
	Fail    bool
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Gets++
	if c.Fail {
		return nil, false, ErrFake
	}
	b, ok := c.entries[key]
	return b, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sets++
	if c.Fail {
		return ErrFake
	}
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SpyProvider implements provider.Provider with canned data and records calls.
// Codes without canned data come back empty.
type SpyProvider struct {
	mu        sync.Mutex
	Cassettes map[string][]models.Cassette
	Counts    map[string]int
	Err       error
	WipCalls  [][]string
	CntCalls  [][]string
}

// NewSpyProvider creates a SpyProvider with no canned data.
func NewSpyProvider() *SpyProvider {
	return &SpyProvider{
		Cassettes: make(map[string][]models.Cassette),
		Counts:    make(map[string]int),
	}
}

func (s *SpyProvider) Mode() string { return "spy" }

func (s *SpyProvider) WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.WipCalls = append(s.WipCalls, append([]string(nil), codes...))
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string][]models.Cassette, len(codes))
	for _, code := range codes {
		if c, ok := s.Cassettes[code]; ok {
			out[code] = c
		} else {
			out[code] = []models.Cassette{}
		}
	}
	return out, nil
}

func (s *SpyProvider) CountsByBins(ctx context.Context, codes []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CntCalls = append(s.CntCalls, append([]string(nil), codes...))
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]int, len(codes))
	for _, code := range codes {
		out[code] = s.Counts[code]
	}
	return out, nil
}

// Calls returns the total number of provider calls made.
func (s *SpyProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.WipCalls) + len(s.CntCalls)
}
