package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/migrations"

	_ "github.com/jackc/pgx/v5/stdlib" //revive:disable:blank-imports
	_ "modernc.org/sqlite"             //revive:disable:blank-imports
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name        string
	driverName  string
	migrateDB   func(db *sql.DB) (database.Driver, error)
	maintenance []string
}

var (
	sqliteDialect = dialect{
		name:       "sqlite",
		driverName: "sqlite",
		migrateDB: func(db *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		},
		maintenance: []string{"VACUUM;", "PRAGMA optimize;"},
	}
	postgresDialect = dialect{
		name:       "postgres",
		driverName: "pgx",
		migrateDB: func(db *sql.DB) (database.Driver, error) {
			return migratepostgres.WithInstance(db, &migratepostgres.Config{})
		},
		maintenance: []string{"VACUUM ANALYZE listen_channels;"},
	}
)

// sqlStore keeps the listen set in the listen_channels table.
type sqlStore struct {
	db      *sqlx.DB
	dialect dialect
	logger  *slog.Logger
}

// NewSQLite opens the SQLite database file at dsn, applies migrations and
// returns a Store backed by it.
func NewSQLite(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	if dsn == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	s, err := openSQL(ctx, sqliteDialect, dsn, logger)
	if err != nil {
		return nil, err
	}

	// SQLite doesn't support concurrent writes
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(5 * time.Minute)
	return s, nil
}

// NewPostgres connects to the PostgreSQL database at dsn through pgx,
// applies migrations and returns a Store backed by it.
func NewPostgres(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	s, err := openSQL(ctx, postgresDialect, dsn, logger)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(10)
	s.db.SetConnMaxIdleTime(5 * time.Minute)
	return s, nil
}

func openSQL(ctx context.Context, d dialect, dsn string, logger *slog.Logger) (*sqlStore, error) {
	db, err := sqlx.ConnectContext(ctx, d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	log := discardIfNil(logger).With("component", "store", "backend", d.name)
	if err := applyMigrations(db.DB, d, log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Error closing database after migration failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database connected and migrations applied successfully")
	return &sqlStore{db: db, dialect: d, logger: log}, nil
}

// applyMigrations runs the embedded migrations against db.
func applyMigrations(db *sql.DB, d dialect, log *slog.Logger) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create embed source driver instance: %w", err)
	}

	dbDriver, err := d.migrateDB(db)
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", d.name, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, d.name, dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("No database migrations to apply.")
			return nil
		}
		return err
	}

	log.Info("Database migrations applied successfully.")
	return nil
}

func (s *sqlStore) Members(ctx context.Context) ([]gateway.ChannelID, error) {
	var raw []string
	if err := s.db.SelectContext(ctx, &raw, `SELECT channel_id FROM listen_channels ORDER BY created_at, channel_id;`); err != nil {
		return nil, fmt.Errorf("failed to query listen channels: %w", err)
	}
	ids, err := parseMembers(raw)
	if err != nil {
		return nil, fmt.Errorf("listen_channels holds an invalid row: %w", err)
	}
	s.logger.DebugContext(ctx, "Loaded listen set", "count", len(ids))
	return ids, nil
}

func (s *sqlStore) Add(ctx context.Context, id gateway.ChannelID) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
        INSERT INTO listen_channels (channel_id, created_at)
        VALUES (?, ?)
        ON CONFLICT (channel_id) DO NOTHING;
    `), id.String(), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert listen channel %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for channel %s: %w", id, err)
	}
	return affected == 1, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Maintain runs the dialect's maintenance statements in order.
func (s *sqlStore) Maintain(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance...")
	startTime := time.Now()

	for _, stmt := range s.dialect.maintenance {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(startTime))
	return nil
}

func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Info("Database connection closed successfully.")
	return nil
}
