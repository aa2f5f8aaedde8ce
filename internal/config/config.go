package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/stockpile/internal/inventory"
	"github.com/gravitas-games/stockpile/internal/weight"
)

// EnvPrefix prefixes every environment override, e.g. STOCKPILE_SERVER_PORT.
const EnvPrefix = "STOCKPILE_"

// Config holds all server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	JWT       JWTConfig       `yaml:"jwt" envPrefix:"JWT_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Session   SessionConfig   `yaml:"session" envPrefix:"SESSION_"`
	Catalog   CatalogConfig   `yaml:"catalog" envPrefix:"CATALOG_"`
	Inventory InventoryConfig `yaml:"inventory" envPrefix:"INVENTORY_"`
	Weight    weight.Policy   `yaml:"weight" envPrefix:"WEIGHT_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer" env:"ISSUER"`
	PublicKeyURL        string `yaml:"public_key_url" env:"PUBLIC_KEY_URL"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours" env:"PUBLIC_KEY_REFRESH_HOURS"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address" env:"ADDRESS"`
	Password        string `yaml:"password" env:"PASSWORD"`
	DB              int    `yaml:"db" env:"DB"`
	BlacklistPrefix string `yaml:"blacklist_prefix" env:"BLACKLIST_PREFIX"`
}

// SessionConfig holds session settings
type SessionConfig struct {
	MaxPlayers int `yaml:"max_players" env:"MAX_PLAYERS"`
}

// CatalogConfig points at the item catalog file. An empty path loads the
// built-in sample catalog.
type CatalogConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// InventoryConfig holds collection sizing and the containers every player
// stash is created with.
type InventoryConfig struct {
	// Sizes overrides category slot counts, e.g. toolbar: 6.
	Sizes map[string]int `yaml:"sizes" env:"SIZES"`
	// Containers names the categories each stash holds.
	Containers []string `yaml:"containers" env:"CONTAINERS"`
}

// CategorySizes converts Sizes for inventory.NewSizes.
func (c InventoryConfig) CategorySizes() map[inventory.Category]int {
	out := make(map[inventory.Category]int, len(c.Sizes))
	for name, n := range c.Sizes {
		out[inventory.Category(name)] = n
	}
	return out
}

// Categories converts Containers to inventory categories.
func (c InventoryConfig) Categories() []inventory.Category {
	out := make([]inventory.Category, 0, len(c.Containers))
	for _, name := range c.Containers {
		out = append(out, inventory.Category(name))
	}
	return out
}

// LogConfig selects logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // "json" or "text"
}

// Default returns the configuration used for any value a file or the
// environment leaves unset.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		JWT:    JWTConfig{PublicKeyRefreshHrs: 24},
		Redis:  RedisConfig{Address: "localhost:6379", BlacklistPrefix: "blacklist:"},
		Session: SessionConfig{
			MaxPlayers: 100,
		},
		Inventory: InventoryConfig{
			Containers: []string{string(inventory.CategoryInventory), string(inventory.CategoryToolbar)},
		},
		Weight: weight.DefaultPolicy(),
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Set defaults if emptied explicitly
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Weight.Ceiling < 0 {
		errs = append(errs, fmt.Errorf("weight.ceiling must not be negative: %v", c.Weight.Ceiling))
	}
	sizes, err := inventory.NewSizes(c.Inventory.CategorySizes())
	if err != nil {
		errs = append(errs, fmt.Errorf("inventory.sizes: %w", err))
	}
	if len(c.Inventory.Containers) == 0 {
		errs = append(errs, errors.New("inventory.containers must not be empty"))
	}
	seen := make(map[string]bool, len(c.Inventory.Containers))
	for _, name := range c.Inventory.Containers {
		if seen[name] {
			errs = append(errs, fmt.Errorf("inventory.containers: duplicate %q", name))
		}
		seen[name] = true
		if sizes == nil {
			continue
		}
		if _, ok := sizes.Get(inventory.Category(name)); !ok {
			errs = append(errs, fmt.Errorf("inventory.containers: %q has no size", name))
		}
	}
	return errors.Join(errs...)
}
