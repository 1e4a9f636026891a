package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/core"
)

// PostgresStore is the PostgreSQL Store backed by a pgx connection pool.
type PostgresStore struct {
	pool           *pgxpool.Pool
	d              dialect
	ingestionReady bool
}

// OpenPostgres parses cfg.URL, applies the pool limits and verifies the
// connection with a ping.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "dialect", postgresDialect.Name, "name", strings.TrimPrefix(u.Path, "/"))
	}

	return NewPostgres(pool), nil
}

// NewPostgres wraps an existing pool. Close closes the pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, d: postgresDialect}
}

func (s *PostgresStore) Dialect() string { return s.d.Name }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.pool.QueryRow(ctx, s.d.tableExists, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresStore) execDDL(ctx context.Context, stmt string) error {
	_, err := s.pool.Exec(ctx, stmt)
	return err
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) ([]string, error) {
	return ensureTables(ctx, s, s.d.schemaTables())
}

func (s *PostgresStore) InsertUsers(ctx context.Context, users []*core.User) (LoadResult, error) {
	return s.load(ctx, "users", userColumns, userRows(users))
}

func (s *PostgresStore) InsertCards(ctx context.Context, cards []*core.Card) (LoadResult, error) {
	return s.load(ctx, "cards", cardColumns, cardRows(cards))
}

func (s *PostgresStore) load(ctx context.Context, table string, cols []string, rows []pendingRow) (LoadResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return LoadResult{Table: table}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := loadRows(ctx, pgxTx{tx}, s.d, table, cols, rows)
	if err != nil {
		return res, fmt.Errorf("load %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit %s: %w", table, err)
	}
	return res, nil
}

func (s *PostgresStore) LogIngestion(ctx context.Context, rec IngestionRecord) error {
	if !s.ingestionReady {
		if _, err := ensureTables(ctx, s, []tableDDL{s.d.ingestionTable()}); err != nil {
			return err
		}
		s.ingestionReady = true
	}

	if _, err := s.pool.Exec(ctx, s.d.insertIngestion(), ingestionArgs(rec)...); err != nil {
		return fmt.Errorf("insert ingestion record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ingestions(ctx context.Context, limit int) ([]IngestionRecord, error) {
	exists, err := s.tableExists(ctx, "retrieveinfo")
	if err != nil || !exists {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, s.d.recentIngestions(), limit)
	if err != nil {
		return nil, fmt.Errorf("query ingestions: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[ingestionRow])
	if err != nil {
		return nil, fmt.Errorf("scan ingestions: %w", err)
	}

	return ingestionRecords(scanned)
}

type pgxTx struct{ tx pgx.Tx }

func (t pgxTx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
