package provider

import (
	"context"
	"testing"

	"github.com/floor-layout/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Mock(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.MockSeed = 99

	p, closeFn, err := New(cfg, nil)
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, ModeMock, p.Mode())
	assert.IsType(t, &MockProvider{}, p)

	res, err := p.WipByBins(context.Background(), []string{"A-01"})
	require.NoError(t, err)
	assert.Contains(t, res, "A-01")
}

func TestNew_CachedWhenRedisConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.RedisAddr = "127.0.0.1:0"

	p, closeFn, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachedProvider{}, p)
	assert.Equal(t, ModeMock, p.Mode())
	assert.NoError(t, closeFn())
}

func TestNew_LiveRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.UseMock = false
	cfg.Data.Live.Driver = "sqlite"
	cfg.Data.Live.DSN = ":memory:"
	cfg.Data.Live.WipTable = "bad table"

	_, _, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_LiveResolvesDriverAlias(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.UseMock = false
	cfg.Data.Live.Driver = "postgres"
	cfg.Data.Live.DSN = "postgres://fab@127.0.0.1:1/wip"

	p, closeFn, err := New(cfg, nil)
	require.NoError(t, err, "opening does not connect")
	defer closeFn()

	lp, ok := p.(*LiveProvider)
	require.True(t, ok)
	assert.Equal(t, "pgx", lp.opts.Driver)
	assert.Equal(t, "$1", lp.builder.placeholder(1))
}

func TestNew_LiveRejectsUnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.UseMock = false
	cfg.Data.Live.Driver = "oracle"
	cfg.Data.Live.DSN = "oracle://fab"

	_, _, err := New(cfg, nil)
	assert.ErrorContains(t, err, "unsupported live source driver")
}

func TestSQLDriverName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "sqlserver", want: "sqlserver"},
		{name: "MSSQL", want: "sqlserver"},
		{name: "postgres", want: "pgx"},
		{name: " postgresql ", want: "pgx"},
		{name: "pgx", want: "pgx"},
		{name: "duckdb", want: "duckdb"},
		{name: "sqlite", want: "sqlite"},
		{name: "", wantErr: true},
		{name: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sqlDriverName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUniqueCodes(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, uniqueCodes([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, uniqueCodes(nil))
}
