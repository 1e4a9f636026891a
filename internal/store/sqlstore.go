package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/core"
)

// SQLStore is the Store for engines reached through database/sql.
type SQLStore struct {
	db             *sqlx.DB
	d              dialect
	ingestionReady bool
}

// OpenSQLite opens (creating if needed) the SQLite database at path with
// foreign key enforcement on. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedURL)
	}

	dsn := "file:" + path
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases and transactions coherent.
	db.SetMaxOpenConns(1)

	slog.Info("connected to database", "dialect", sqliteDialect.Name, "path", path)
	return newSQL(db, sqliteDialect), nil
}

// OpenSQLServer connects to SQL Server with the pool limits from cfg.
func OpenSQLServer(ctx context.Context, cfg config.DatabaseConfig) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlserver", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlserver: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	slog.Info("connected to database", "dialect", sqlServerDialect.Name)
	return newSQL(db, sqlServerDialect), nil
}

// newSQL wraps an open handle. Close closes the handle.
func newSQL(db *sqlx.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

func (s *SQLStore) Dialect() string { return s.d.Name }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.d.tableExists, name); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) execDDL(ctx context.Context, stmt string) error {
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *SQLStore) EnsureSchema(ctx context.Context) ([]string, error) {
	return ensureTables(ctx, s, s.d.schemaTables())
}

func (s *SQLStore) InsertUsers(ctx context.Context, users []*core.User) (LoadResult, error) {
	return s.load(ctx, "users", userColumns, userRows(users))
}

func (s *SQLStore) InsertCards(ctx context.Context, cards []*core.Card) (LoadResult, error) {
	return s.load(ctx, "cards", cardColumns, cardRows(cards))
}

func (s *SQLStore) load(ctx context.Context, table string, cols []string, rows []pendingRow) (LoadResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return LoadResult{Table: table}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := loadRows(ctx, sqlxTx{tx}, s.d, table, cols, rows)
	if err != nil {
		return res, fmt.Errorf("load %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit %s: %w", table, err)
	}
	return res, nil
}

func (s *SQLStore) LogIngestion(ctx context.Context, rec IngestionRecord) error {
	if !s.ingestionReady {
		if _, err := ensureTables(ctx, s, []tableDDL{s.d.ingestionTable()}); err != nil {
			return err
		}
		s.ingestionReady = true
	}

	if _, err := s.db.ExecContext(ctx, s.d.insertIngestion(), ingestionArgs(rec)...); err != nil {
		return fmt.Errorf("insert ingestion record: %w", err)
	}
	return nil
}

func (s *SQLStore) Ingestions(ctx context.Context, limit int) ([]IngestionRecord, error) {
	exists, err := s.tableExists(ctx, "retrieveinfo")
	if err != nil || !exists {
		return nil, err
	}

	var scanned []ingestionRow
	if err := s.db.SelectContext(ctx, &scanned, s.d.recentIngestions(), limit); err != nil {
		return nil, fmt.Errorf("query ingestions: %w", err)
	}

	return ingestionRecords(scanned)
}

type sqlxTx struct{ tx *sqlx.Tx }

func (t sqlxTx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
