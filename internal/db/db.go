package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/pkg/config"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultRetries = 5

type DatabaseConfig struct {
	ConnectionURL string
	MaxConns      int32
	MinConns      int32
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForDB pings the pool with a linear backoff and reports whether it answered.
func WaitForDB(ctx context.Context, pool Pinger, logger *zap.Logger) bool {
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		err := pool.Ping(ctx)
		if err == nil {
			logger.Info("Database connection successful")
			return true
		}

		wait := time.Duration(attempt) * 200 * time.Millisecond
		logger.Warn("Database ping failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultRetries),
			zap.Duration("wait_duration", wait),
			zap.Error(err),
		)
		if attempt == defaultRetries {
			break
		}
		select {
		case <-ctx.Done():
			logger.Error("Stopped waiting for database", zap.Error(ctx.Err()))
			return false
		case <-time.After(wait):
		}
	}
	logger.Error("Database connection failed after multiple retries")
	return false
}

// MigrationFiles lists the embedded migration file names.
func MigrationFiles() ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func RunMigrations(databaseURL string, logger *zap.Logger) error {
	if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
		return errors.New("invalid database URL scheme for migrate, expected postgresql://")
	}

	files, err := MigrationFiles()
	if err != nil {
		return err
	}
	logger.Info("Running database migrations", zap.Strings("files", files))

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Error closing migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Error closing migration database connection", zap.Error(dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case err != nil:
		logger.Warn("Could not determine migration version", zap.Error(err))
	case dirty:
		return fmt.Errorf("database migration state is dirty at version %d", version)
	default:
		logger.Info("Database migrations applied", zap.Uint("version", version))
	}
	return nil
}

// NewDatabaseConfig builds the connection URL from configuration.
func NewDatabaseConfig(cfg *config.Config, logger *zap.Logger) (*DatabaseConfig, error) {
	if cfg == nil || cfg.Repositories.Postgres.Host == "" {
		return nil, errors.New("postgres configuration is missing or invalid")
	}
	pg := cfg.Repositories.Postgres

	query := url.Values{}
	query.Set("sslmode", pg.SSLMode)
	query.Set("timezone", "utc")

	connURL := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(pg.Username, pg.Password),
		Host:     fmt.Sprintf("%s:%s", pg.Host, pg.Port),
		Path:     pg.DB,
		RawQuery: query.Encode(),
	}
	logger.Info("Database connection URL generated", zap.String("host", connURL.Host), zap.String("database", pg.DB))

	return &DatabaseConfig{
		ConnectionURL: connURL.String(),
		MaxConns:      pg.MaxConns,
		MinConns:      pg.MinConns,
	}, nil
}

// Init creates the pool and registers google/uuid on every connection.
func Init(dbCfg *DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbCfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing db config: %w", err)
	}
	if dbCfg.MaxConns > 0 {
		cfg.MaxConns = dbCfg.MaxConns
	}
	if dbCfg.MinConns > 0 {
		cfg.MinConns = dbCfg.MinConns
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed creating db pool: %w", err)
	}
	logger.Info("Database connection pool initialized",
		zap.Int32("max_conns", cfg.MaxConns), zap.Int32("min_conns", cfg.MinConns))
	return pool, nil
}
