// Package config loads grizzly settings from grizzly.yaml, GRIZZLY_*
// environment variables and defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"

	"github.com/roach88/grizzly/internal/executor"
	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/sqlgen"
)

const (
	maxWalkDepth = 25

	// EnvPrefix prefixes every environment override (GRIZZLY_DATABASE_DSN).
	EnvPrefix = "GRIZZLY"
)

// Config represents the grizzly configuration from grizzly.yaml.
type Config struct {
	// Dialect overrides the SQL dialect derived from the driver.
	Dialect string `mapstructure:"dialect"`

	Database DatabaseConfig `mapstructure:"database"`
	Show     ShowConfig     `mapstructure:"show"`
	History  HistoryConfig  `mapstructure:"history"`
}

// DatabaseConfig holds connection settings. DSN wins over the discrete
// fields when set.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ShowConfig holds the defaults for show.
type ShowConfig struct {
	Pretty      bool   `mapstructure:"pretty"`
	Delimiter   string `mapstructure:"delimiter"`
	MaxColWidth int    `mapstructure:"max_col_width"`
}

// HistoryConfig controls the query history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults. Flags are applied by the caller.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "")

	v.SetDefault("database.driver", executor.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "")

	defaults := frame.DefaultShowOptions()
	v.SetDefault("show.pretty", defaults.Pretty)
	v.SetDefault("show.delimiter", defaults.Delimiter)
	v.SetDefault("show.max_col_width", defaults.MaxColWidth)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(".grizzly", "history.db"))
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for grizzly.yaml or grizzly.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"grizzly.yaml", "grizzly.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// Validate checks driver and dialect names.
func (c *Config) Validate() error {
	driver, err := executor.NormalizeDriver(c.Database.Driver)
	if err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	c.Database.Driver = driver

	if c.Dialect != "" {
		if _, err := sqlgen.DialectByName(c.Dialect); err != nil {
			return fmt.Errorf("dialect: %w", err)
		}
	}
	if c.Show.MaxColWidth < 0 {
		c.Show.MaxColWidth = 0
	}
	return nil
}

// SQLDialect returns the configured dialect, or the driver's.
func (c *Config) SQLDialect() (sqlgen.Dialect, error) {
	if c.Dialect != "" {
		return sqlgen.DialectByName(c.Dialect)
	}
	return sqlgen.DialectByName(c.Database.Driver)
}

// ShowOptions converts the show section for frame.Show.
func (c *Config) ShowOptions() frame.ShowOptions {
	return frame.ShowOptions{
		Delimiter:   c.Show.Delimiter,
		Pretty:      c.Show.Pretty,
		MaxColWidth: c.Show.MaxColWidth,
	}
}

// ConnectionString returns the DSN for the configured driver.
// If database.dsn is set, it's returned directly. Otherwise a DSN is built
// from the discrete fields; SQLite falls back to grizzly.db.
func (c *Config) ConnectionString() (string, error) {
	db := c.Database
	if db.DSN != "" {
		return db.DSN, nil
	}

	driver, err := executor.NormalizeDriver(db.Driver)
	if err != nil {
		return "", err
	}

	switch driver {
	case executor.DriverSQLite:
		if db.Name != "" {
			return db.Name, nil
		}
		return "grizzly.db", nil
	case executor.DriverPostgres:
		return c.postgresDSN()
	case executor.DriverMySQL:
		return c.mysqlDSN()
	default:
		return "", fmt.Errorf("no DSN builder for driver %q", driver)
	}
}

func (c *Config) requireFields() error {
	db := c.Database
	if db.Host == "" {
		return fmt.Errorf("database.host is required when database.dsn is not set")
	}
	if db.Name == "" {
		return fmt.Errorf("database.name is required when database.dsn is not set")
	}
	if db.User == "" {
		return fmt.Errorf("database.user is required when database.dsn is not set")
	}
	return nil
}

func (c *Config) postgresDSN() (string, error) {
	if err := c.requireFields(); err != nil {
		return "", err
	}
	db := c.Database
	port := db.Port
	if port == 0 {
		port = 5432
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   db.Host + ":" + strconv.Itoa(port),
		Path:   "/" + db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Config) mysqlDSN() (string, error) {
	if err := c.requireFields(); err != nil {
		return "", err
	}
	db := c.Database
	port := db.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = db.User
	mc.Passwd = db.Password
	mc.Net = "tcp"
	mc.Addr = db.Host + ":" + strconv.Itoa(port)
	mc.DBName = db.Name
	if db.SSLMode != "" {
		mc.TLSConfig = db.SSLMode
	}
	return mc.FormatDSN(), nil
}
