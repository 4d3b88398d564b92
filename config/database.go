package config

import (
	"regexp"
	"strings"
	"time"
)

// Supported measurement store drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const defaultMeasurementTable = "historic_routes"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DBConfig contains the measurement store configuration.
// Credentials are only ever read from the environment.
type DBConfig struct {
	Driver   string `env:"DRIVER"   envDefault:"postgres"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"0"`
	User     string `env:"USER"`
	Password string `env:"PASS"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // postgres only
	// Path is the database file for the sqlite driver.
	Path string `env:"PATH" envDefault:"routewatch.db"`
	// Table holds the route-speed history.
	Table          string        `env:"TABLE"           envDefault:"historic_routes"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	// AutoMigrate creates the measurement table when it does not exist yet.
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"false"`
	// Seed fills an empty measurement table with synthetic readings for local runs.
	Seed bool `env:"SEED" envDefault:"false"`
}

// Sanitize normalises the driver name, fills the driver's default port and
// rejects table names that are not plain identifiers.
func (c *DBConfig) Sanitize() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "pgx", "postgresql":
		c.Driver = DriverPostgres
	case "sqlite3":
		c.Driver = DriverSQLite
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		c.Driver = DriverPostgres
	}

	if c.Port <= 0 {
		switch c.Driver {
		case DriverMySQL:
			c.Port = 3306
		case DriverPostgres:
			c.Port = 5432
		}
	}

	c.Table = strings.TrimSpace(c.Table)
	if !tableNamePattern.MatchString(c.Table) {
		c.Table = defaultMeasurementTable
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig controls the Redis-backed route report cache.
type CacheConfig struct {
	Enabled bool          `env:"REPORT_CACHE_ENABLED" envDefault:"false"`
	TTL     time.Duration `env:"REPORT_CACHE_TTL"     envDefault:"10m"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.TTL <= 0 {
		c.TTL = 10 * time.Minute
	}
}
