package provider

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/floor-layout/backend/internal/models"
)

var (
	mockGrades = []string{"A", "A", "A", "B", "P", "B", "A"}
	mockModels = []string{"TX-2024", "RX-9900", "AI-CHIP-V1", "TX-PRO", "NM-100"}
	mockStages = []string{"LITH", "ETCH", "DEP", "CMP", "CLEAN", "PHOTO"}
)

// MockProvider generates random cassettes. A seeded source makes the
// output reproducible.
type MockProvider struct {
	mu        sync.Mutex
	rng       *rand.Rand
	emptyRate float64
}

// NewMockProvider creates a MockProvider drawing from rng. emptyRate is the
// probability that a bin reports no cassettes.
func NewMockProvider(rng *rand.Rand, emptyRate float64) *MockProvider {
	return &MockProvider{rng: rng, emptyRate: emptyRate}
}

// Mode implements Provider.
func (m *MockProvider) Mode() string { return ModeMock }

// between returns a random int in [lo, hi]. Caller holds mu.
func (m *MockProvider) between(lo, hi int) int {
	return lo + m.rng.Intn(hi-lo+1)
}

// WipByBins implements Provider.
func (m *MockProvider) WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error) {
	codes = uniqueCodes(codes)
	result := make(map[string][]models.Cassette, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, code := range codes {
		if m.rng.Float64() < m.emptyRate {
			result[code] = []models.Cassette{}
			continue
		}

		n := m.between(1, 5)
		cassettes := make([]models.Cassette, 0, n)
		for i := 0; i < n; i++ {
			wipCount := m.between(10, 30)
			wips := make([]models.Wip, 0, wipCount)
			for j := 0; j < wipCount; j++ {
				wips = append(wips, models.Wip{
					ChipID:  fmt.Sprintf("S%d-CH%d", m.between(10, 99), m.between(100, 999)),
					Grade:   mockGrades[m.rng.Intn(len(mockGrades))],
					ModelNo: mockModels[m.rng.Intn(len(mockModels))],
					StageID: mockStages[m.rng.Intn(len(mockStages))],
					OpID:    fmt.Sprintf("OP-%d", m.between(200, 500)),
				})
			}
			cassettes = append(cassettes, models.Cassette{
				CassetteID: fmt.Sprintf("CST-%d", m.between(1000, 9999)),
				Position:   i + 1,
				Wips:       wips,
			})
		}
		result[code] = cassettes
	}
	return result, nil
}

// CountsByBins implements Provider.
func (m *MockProvider) CountsByBins(ctx context.Context, codes []string) (map[string]int, error) {
	codes = uniqueCodes(codes)
	result := make(map[string]int, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, code := range codes {
		if m.rng.Float64() < m.emptyRate {
			result[code] = 0
			continue
		}
		result[code] = m.between(1, 5)
	}
	return result, nil
}
