// fixtures.go - Seeded stores and tokens for handler tests
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/floor-layout/backend/internal/auth"
	"github.com/floor-layout/backend/internal/models"
	"github.com/floor-layout/backend/internal/store"
	"github.com/stretchr/testify/require"
)

// TestSecret signs tokens issued by fixtures.
const TestSecret = "test-secret"

// Fixture bundles a seeded store with an issuer for its users.
type Fixture struct {
	Store   *store.MemoryStore
	Issuer  *auth.Issuer
	Dataset *models.Dataset
}

// NewFixture seeds a fresh MemoryStore with the demo dataset.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	s := store.NewMemoryStore()
	ds, err := store.Seed(context.Background(), s)
	require.NoError(t, err)

	issuer, err := auth.NewIssuer(TestSecret, time.Hour)
	require.NoError(t, err)

	return &Fixture{Store: s, Issuer: issuer, Dataset: ds}
}

// TokenFor issues a token for the seeded user with the given username.
func (f *Fixture) TokenFor(t *testing.T, username string) string {
	t.Helper()

	u, err := f.Store.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	token, err := f.Issuer.Issue(u.ID)
	require.NoError(t, err)
	return token
}

// BearerFor returns an Authorization header value for username.
func (f *Fixture) BearerFor(t *testing.T, username string) string {
	return "Bearer " + f.TokenFor(t, username)
}

// FirstLayout returns the first seeded layout.
func (f *Fixture) FirstLayout() models.Layout {
	return f.Dataset.Layouts[0]
}
