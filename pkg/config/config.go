package config

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Defaults applied when a setting is missing from the file.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 5000
	DefaultBackend           = "bolt"
	DefaultRecentLimit       = 10
	DefaultMaxParallel       = 4
	DefaultModel             = "gpt-4"
	DefaultRequestsPerMinute = 60
	DefaultSourceTimeout     = 90 * time.Second
)

// Store backends understood by store.Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Server     ServerConfig          `toml:"server"`
	Store      StoreConfig           `toml:"store"`
	Cache      CacheConfig           `toml:"cache"`
	Aggregator AggregatorConfig      `toml:"aggregator"`
	Relevance  RelevanceConfig       `toml:"relevance"`
	Log        LogConfig             `toml:"log"`
	Sources    map[string]SourceInfo `toml:"sources"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StoreConfig struct {
	Backend string      `toml:"backend"`
	Path    string      `toml:"path"`
	Redis   RedisConfig `toml:"redis"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type CacheConfig struct {
	// MaxAge ignores cached searches older than the given duration.
	// Zero means cached searches never go stale.
	MaxAge      Duration `toml:"max_age"`
	RecentLimit int      `toml:"recent_limit"`
}

type AggregatorConfig struct {
	MaxParallel int `toml:"max_parallel"`
	// Order lists source names in the order their results are merged.
	// Sources not listed follow in alphabetical order.
	Order []string `toml:"order"`
}

type RelevanceConfig struct {
	Enabled bool   `toml:"enabled"`
	Model   string `toml:"model"`
	// APIKey falls back to OPENAI_API_KEY when empty. The fallback is
	// resolved when the filter is built so it never ends up in saved files.
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

type LogConfig struct {
	DebugServices []string `toml:"debug_services"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type SourceInfo struct {
	Type string `toml:"type"`
	// Timeout bounds a single search against this source.
	// If not specified, defaults to 90 seconds.
	Timeout *Duration `toml:"timeout,omitempty"`
	Config  any       `toml:"config"`
}

func GetDefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a TOML document and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() error {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	if c.Store.Path == "" && (c.Store.Backend == BackendBolt || c.Store.Backend == BackendSQLite) {
		path, err := GetDefaultStorePath(c.Store.Backend)
		if err != nil {
			return fmt.Errorf("getting default store path: %w", err)
		}
		c.Store.Path = path
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}

	if c.Cache.RecentLimit <= 0 {
		c.Cache.RecentLimit = DefaultRecentLimit
	}

	if c.Aggregator.MaxParallel <= 0 {
		c.Aggregator.MaxParallel = DefaultMaxParallel
	}

	if c.Relevance.Model == "" {
		c.Relevance.Model = DefaultModel
	}
	if c.Relevance.RequestsPerMinute <= 0 {
		c.Relevance.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if c.Sources == nil {
		c.Sources = make(map[string]SourceInfo)
	}
	return nil
}

// Validate reports settings that can't be fixed with a default.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendBolt, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Cache.MaxAge.Duration < 0 {
		return fmt.Errorf("cache.max_age must not be negative")
	}

	for name, info := range c.Sources {
		if info.Type == "" {
			return fmt.Errorf("source %s: missing type", name)
		}
		if info.Timeout != nil && info.Timeout.Duration <= 0 {
			return fmt.Errorf("source %s: timeout must be positive", name)
		}
	}

	for _, name := range c.Aggregator.Order {
		if _, ok := c.Sources[name]; !ok {
			return fmt.Errorf("aggregator.order references unknown source %s", name)
		}
	}

	return nil
}

// ServerAddr returns the host:port the API server listens on.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	path := c.Store.Path
	if path == "" {
		var err error
		path, err = GetDefaultStorePath(BackendBolt)
		if err != nil {
			return "", fmt.Errorf("getting default store path: %w", err)
		}
	}

	return strings.Replace(configTemplate, "/home/user/.local/share/basket/basket.db", path, 1), nil
}

func (c *Config) AddSource(name, sourceType string, sourceConfig any) {
	c.Sources[name] = SourceInfo{
		Type:   sourceType,
		Config: sourceConfig,
	}
}

func (c *Config) GetSourceConfig(name string) (string, any, error) {
	info, exists := c.Sources[name]
	if !exists {
		return "", nil, fmt.Errorf("source %s not found", name)
	}

	return info.Type, info.Config, nil
}

func (c *Config) GetSourceTimeout(name string) time.Duration {
	info, exists := c.Sources[name]
	if !exists || info.Timeout == nil {
		return DefaultSourceTimeout
	}
	return info.Timeout.Duration
}

// ListSources returns source names in merge order: aggregator.order first,
// the rest sorted by name.
func (c *Config) ListSources() []string {
	seen := make(map[string]bool, len(c.Sources))
	names := make([]string, 0, len(c.Sources))
	for _, name := range c.Aggregator.Order {
		if _, ok := c.Sources[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var rest []string
	for name := range c.Sources {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func (c *Config) RemoveSource(name string) {
	delete(c.Sources, name)
}

// GetDefaultStorageDir returns the default data directory, creating it when
// missing.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "basket")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultStorePath returns the database file used by file-backed stores.
func GetDefaultStorePath(backend string) (string, error) {
	dir, err := GetDefaultStorageDir()
	if err != nil {
		return "", err
	}
	if backend == BackendSQLite {
		return filepath.Join(dir, "basket.sqlite"), nil
	}
	return filepath.Join(dir, "basket.db"), nil
}

// GetConfigDir returns the configuration directory for basket
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "basket")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
