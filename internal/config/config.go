// Package config provides YAML-based configuration for the layout server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Modes reported by the health endpoint.
const (
	ModeDev  = "DEV"
	ModeProd = "PROD"
	ModeTest = "TEST"
)

// AppConfig represents the root configuration document.
type AppConfig struct {
	Mode string `yaml:"mode"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
	FrontendDir  string `yaml:"frontendDir"` // built editor served at /; empty disables
}

// DatabaseConfig selects the layout store.
// Driver is one of memory, sqlite, postgres or duckdb.
type DatabaseConfig struct {
	Driver         string `yaml:"driver"`
	DSN            string `yaml:"dsn"`
	DuckDBThreads  int    `yaml:"duckdbThreads"`
	DuckDBMemLimit string `yaml:"duckdbMemoryLimit"`
}

// DataConfig selects and tunes the WIP data provider.
type DataConfig struct {
	UseMock   bool       `yaml:"useMock"`
	MockSeed  int64      `yaml:"mockSeed"`  // 0 seeds from the clock
	EmptyRate float64    `yaml:"emptyRate"` // share of bins the mock reports empty
	Live      LiveConfig `yaml:"live"`
}

// LiveConfig describes the external manufacturing database.
type LiveConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	LinkedServer string `yaml:"linkedServer"` // wraps queries in OPENQUERY when set
	ChunkSize    int    `yaml:"chunkSize"`

	CassetteTable    string `yaml:"cassetteTable"`
	CassetteIDColumn string `yaml:"cassetteIdColumn"`
	PositionColumn   string `yaml:"positionColumn"`
	LocationColumn   string `yaml:"locationColumn"`

	WipTable      string `yaml:"wipTable"`
	ChipIDColumn  string `yaml:"chipIdColumn"`
	GradeColumn   string `yaml:"gradeColumn"`
	ModelNoColumn string `yaml:"modelNoColumn"`
	StageIDColumn string `yaml:"stageIdColumn"`
	OpIDColumn    string `yaml:"opIdColumn"`
	WipCstColumn  string `yaml:"wipCassetteIdColumn"`
}

// CacheConfig enables the Redis response cache for provider lookups.
type CacheConfig struct {
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	TTLSeconds    int    `yaml:"ttlSeconds"`
}

// AuthConfig contains bearer token settings
type AuthConfig struct {
	Secret        string `yaml:"secret"`
	TokenTTLHours int    `yaml:"tokenTtlHours"`
}

// AdvancedConfig contains logging and tuning options
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
	EnableMetrics        bool   `yaml:"enableMetrics"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Mode: ModeDev,
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "10M",
		},
		Database: DatabaseConfig{
			Driver:         "sqlite",
			DSN:            "./data/layout_manager.db",
			DuckDBThreads:  4,
			DuckDBMemLimit: "1GB",
		},
		Data: DataConfig{
			UseMock:   true,
			EmptyRate: 0.1,
			Live: LiveConfig{
				Driver:    "sqlserver",
				ChunkSize: 500,

				CassetteTable:    "beolpptsn.r_cst_cst",
				CassetteIDColumn: "cassette_id",
				PositionColumn:   "position",
				LocationColumn:   "location",

				WipTable:      "celods.r_chip_wip_ods",
				ChipIDColumn:  "sheet_id_chip_id",
				GradeColumn:   "grade",
				ModelNoColumn: "model_no",
				StageIDColumn: "stage_id",
				OpIDColumn:    "op_id",
				WipCstColumn:  "cassette_id",
			},
		},
		Cache: CacheConfig{
			TTLSeconds: 30,
		},
		Auth: AuthConfig{
			Secret:        "dev-secret-key-123",
			TokenTTLHours: 12,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableMetrics:        true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults on first run.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Unmarshal over the defaults so omitted keys keep their default values.
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Floor Layout Server configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if mode := os.Getenv("APP_MODE"); mode != "" {
		c.Mode = strings.ToUpper(mode)
	}
	if driver := os.Getenv("LAYOUT_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("LAYOUT_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if useMock := os.Getenv("USE_MOCK_DATA"); useMock != "" {
		if b, err := strconv.ParseBool(useMock); err == nil {
			c.Data.UseMock = b
		}
	}
	if dsn := os.Getenv("LIVE_DB_DSN"); dsn != "" {
		c.Data.Live.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Cache.RedisAddr = addr
	}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		c.Auth.Secret = secret
	}
}

// resolvePaths makes relative file paths absolute against the config directory.
func (c *AppConfig) resolvePaths(configDir string) {
	if dir := c.Server.FrontendDir; dir != "" && !filepath.IsAbs(dir) {
		c.Server.FrontendDir = filepath.Join(configDir, dir)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "duckdb":
		dsn := c.Database.DSN
		if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
			return
		}
		c.Database.DSN = filepath.Join(configDir, dsn)
	}
}

// Validate checks cross-field constraints.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "memory", "sqlite", "postgres", "pgx", "duckdb":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Data.EmptyRate < 0 || c.Data.EmptyRate > 1 {
		return fmt.Errorf("data.emptyRate must be within [0,1], got %v", c.Data.EmptyRate)
	}
	if !c.Data.UseMock && c.Data.Live.DSN == "" {
		return fmt.Errorf("data.live.dsn is required when data.useMock is false")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must not be empty")
	}
	return nil
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// TokenTTL returns the bearer token lifetime.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// CacheTTL returns the provider cache lifetime.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// EnsureDirectories creates the directory holding a file-backed layout database.
func (c *AppConfig) EnsureDirectories() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "duckdb":
	default:
		return nil
	}
	dsn := c.Database.DSN
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
