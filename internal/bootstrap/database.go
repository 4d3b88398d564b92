package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/routewatch/routewatch/config"
	apperrors "github.com/routewatch/routewatch/internal/errors"

	// database/sql drivers for the supported stores.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB opens the measurement store and verifies it with a ping bounded by
// DBConfig.ConnectTimeout. Failures are data_source, timeout or canceled errors.
func ConnectDB(ctx context.Context, cfg DatabaseConfig) (*sql.DB, error) {
	driverName, dsn, err := storeDSN(cfg.DBConfig)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperrors.DataSource("open measurement store", err)
	}

	if cfg.DBConfig.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	timeout := cfg.DBConfig.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		pingErr = apperrors.MapDBError(pingErr)
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping measurement store: %w", pingErr)
	}

	if cfg.Logger != nil {
		attrs := []any{"driver", cfg.DBConfig.Driver, "table", cfg.DBConfig.Table}
		if cfg.DBConfig.Driver == config.DriverSQLite {
			attrs = append(attrs, "path", cfg.DBConfig.Path)
		} else {
			attrs = append(attrs, "host", cfg.DBConfig.Host, "port", cfg.DBConfig.Port, "database", cfg.DBConfig.Name)
		}
		cfg.Logger.Info("measurement store connected", attrs...)
	}

	return db, nil
}

// storeDSN returns the database/sql driver name and DSN for cfg.
func storeDSN(cfg config.DBConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		// Build DSN using url.URL to safely handle special characters in credentials
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:   "/" + cfg.Name,
		}
		q := u.Query()
		q.Set("sslmode", cfg.SSLMode)
		if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
			q.Set("connect_timeout", strconv.Itoa(secs))
		}
		u.RawQuery = q.Encode()
		return "pgx", u.String(), nil

	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Timeout = cfg.ConnectTimeout
		return "mysql", mc.FormatDSN(), nil

	case config.DriverSQLite:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			return "", "", apperrors.ValidationField("path", "sqlite store requires DB_PATH")
		}
		return "sqlite", path, nil

	default:
		return "", "", apperrors.ValidationField("driver", fmt.Sprintf("unsupported store driver %q", cfg.Driver))
	}
}

// ConnectRedis establishes a connection to Redis.
//
//nolint:ireturn // returning redis.UniversalClient keeps the cache port independent of the client kind.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	client, addrDesc, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", addrDesc)
	}

	return client, nil
}

// newRedisClient accepts a redis:// or rediss:// URL, or a plain host:port.
func newRedisClient(cfg config.RedisConfig) (*redis.Client, string, error) {
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, "", errors.New("redis configuration requires a URI")
	}

	if isRedisURL(uri) {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, "", fmt.Errorf("parse redis url: %w", err)
		}
		if opt.Password == "" {
			opt.Password = cfg.Password
		}
		// Log connection without credentials
		return redis.NewClient(opt), opt.Addr, nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     uri,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), uri, nil
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
