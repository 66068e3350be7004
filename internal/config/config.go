package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	MCP       MCPConfig       `yaml:"mcp"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// AuthConfig controls bearer-token verification. Tokens are issued elsewhere.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReconcileConfig schedules the count reconciler. An empty schedule disables it.
type ReconcileConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "data/portal.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "studyportal",
		},
		Log: LogConfig{
			Level: "info",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Reconcile: ReconcileConfig{
			Schedule: "@every 1h",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file and PORTAL_* environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PORTAL_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("store.mongo_uri and store.mongo_database are required for the mongo driver")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("PORTAL_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PORTAL_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return errors.Wrap(err, "invalid PORTAL_SERVER_PORT")
		}
		cfg.Server.Port = port
	}
	if driver := os.Getenv("PORTAL_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = strings.ToLower(driver)
	}
	if path := os.Getenv("PORTAL_SQLITE_PATH"); path != "" {
		cfg.Store.SQLitePath = path
	}
	if uri := os.Getenv("PORTAL_MONGO_URI"); uri != "" {
		cfg.Store.MongoURI = uri
	}
	if name := os.Getenv("PORTAL_MONGO_DATABASE"); name != "" {
		cfg.Store.MongoDatabase = name
	}
	if level := os.Getenv("PORTAL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if file := os.Getenv("PORTAL_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
	if v := os.Getenv("PORTAL_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "invalid PORTAL_AUTH_ENABLED")
		}
		cfg.Auth.Enabled = enabled
	}
	if secret := os.Getenv("PORTAL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if v := os.Getenv("PORTAL_MCP_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "invalid PORTAL_MCP_ENABLED")
		}
		cfg.MCP.Enabled = enabled
	}
	if schedule, ok := os.LookupEnv("PORTAL_RECONCILE_SCHEDULE"); ok {
		cfg.Reconcile.Schedule = schedule
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(err, "parse config file")
	}
	return nil
}
