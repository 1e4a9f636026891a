// Package store persists normalized records and ingestion metadata.
//
// Three engines are supported behind the [Store] interface: PostgreSQL
// through pgxpool, and SQLite and SQL Server through sqlx. [Open] picks one
// from the database URL scheme.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/core"
)

// ErrUnsupportedURL is returned by Open for an unrecognized URL scheme.
var ErrUnsupportedURL = errors.New("unsupported database URL")

// Store is the persistence surface used by an ingestion run.
type Store interface {
	// Dialect names the database engine: postgres, sqlite or sqlserver.
	Dialect() string

	// EnsureSchema creates the users and cards tables if they are missing
	// and returns the names of the tables it created.
	EnsureSchema(ctx context.Context) ([]string, error)

	// InsertUsers and InsertCards insert records in one transaction each.
	// Rows whose id already exists are skipped; rows the database rejects
	// are reported in the result and do not abort the load.
	InsertUsers(ctx context.Context, users []*core.User) (LoadResult, error)
	InsertCards(ctx context.Context, cards []*core.Card) (LoadResult, error)

	// LogIngestion appends one row to retrieveinfo, creating it if needed.
	LogIngestion(ctx context.Context, rec IngestionRecord) error

	// Ingestions returns up to limit audit rows, newest first.
	Ingestions(ctx context.Context, limit int) ([]IngestionRecord, error)

	Close() error
}

// IngestionRecord is one audit row describing a processed source file.
type IngestionRecord struct {
	RunID         uuid.UUID
	SourceFile    string
	RetrievedAt   time.Time
	TotalRows     int
	ProcessedRows int
	Errors        int
	Notes         string
}

// FailedRow is a record the database refused.
type FailedRow struct {
	Line   int    // line of the record in the source file, header on line 1
	ID     string // record id, empty when the id was NULL
	Reason string
}

// LoadResult summarizes the insert of one table.
type LoadResult struct {
	Table    string
	Inserted int
	Skipped  int // id already present
	Failed   []FailedRow
}

// Open connects to the database named by cfg.URL.
//
//	postgres://, postgresql://  PostgreSQL (pgxpool)
//	sqlserver://                SQL Server (go-mssqldb)
//	sqlite://<path>, file:<path> SQLite (go-sqlite3)
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	url := strings.TrimSpace(cfg.URL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, cfg)
	case strings.HasPrefix(url, "sqlserver://"):
		return OpenSQLServer(ctx, cfg)
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "file:"))
	case url == "":
		return nil, config.ErrNoDatabase
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, config.MaskURL(url))
	}
}

// pendingRow is one record ready for insertion.
type pendingRow struct {
	Line int
	ID   pgtype.Int4
	Args []any
}

func userRows(users []*core.User) []pendingRow {
	rows := make([]pendingRow, len(users))
	for i, u := range users {
		rows[i] = pendingRow{
			Line: u.Line,
			ID:   u.ID,
			Args: []any{u.ID, u.Name, u.PhoneNumber, u.Email, u.CreatedAt, u.LastActiveAt, u.IsVIP, u.TotalBalance},
		}
	}
	return rows
}

func cardRows(cards []*core.Card) []pendingRow {
	rows := make([]pendingRow, len(cards))
	for i, c := range cards {
		rows[i] = pendingRow{
			Line: c.Line,
			ID:   c.ID,
			Args: []any{c.ID, c.UserID, c.CardNumber, c.Balance, c.CreatedAt, c.CardType, c.LimitAmount},
		}
	}
	return rows
}

func ingestionArgs(rec IngestionRecord) []any {
	return []any{
		rec.RunID, rec.SourceFile, rec.RetrievedAt,
		rec.TotalRows, rec.ProcessedRows, rec.Errors, rec.Notes,
	}
}

// ingestionRow is the scan target for retrieveinfo.
type ingestionRow struct {
	RunID         string    `db:"run_id"`
	SourceFile    string    `db:"source_file"`
	RetrievedAt   time.Time `db:"retrieved_at"`
	TotalRows     int       `db:"total_rows"`
	ProcessedRows int       `db:"processed_rows"`
	Errors        int       `db:"errors"`
	Notes         string    `db:"notes"`
}

func (r ingestionRow) record() (IngestionRecord, error) {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return IngestionRecord{}, fmt.Errorf("parse run_id %q of %s: %w", r.RunID, r.SourceFile, err)
	}
	return IngestionRecord{
		RunID:         id,
		SourceFile:    r.SourceFile,
		RetrievedAt:   r.RetrievedAt,
		TotalRows:     r.TotalRows,
		ProcessedRows: r.ProcessedRows,
		Errors:        r.Errors,
		Notes:         r.Notes,
	}, nil
}

func ingestionRecords(scanned []ingestionRow) ([]IngestionRecord, error) {
	out := make([]IngestionRecord, len(scanned))
	for i, r := range scanned {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// rowTx executes statements inside an open transaction.
type rowTx interface {
	exec(ctx context.Context, query string, args ...any) (int64, error)
}

// loadRows inserts rows one by one, each under its own savepoint so a
// rejected row does not poison the transaction. Only savepoint failures and
// cancellation are returned as errors.
func loadRows(ctx context.Context, tx rowTx, d dialect, table string, cols []string, rows []pendingRow) (LoadResult, error) {
	res := LoadResult{Table: table}
	query := d.insertIgnore(table, cols)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !row.ID.Valid {
			res.Failed = append(res.Failed, FailedRow{Line: row.Line, Reason: "missing id"})
			continue
		}
		id := fmt.Sprint(row.ID.Int32)

		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.exec(ctx, d.savepoint(sp)); err != nil {
			return res, fmt.Errorf("create savepoint: %w", err)
		}

		n, err := tx.exec(ctx, query, row.Args...)
		if err != nil {
			if _, rbErr := tx.exec(ctx, d.rollbackTo(sp)); rbErr != nil {
				return res, fmt.Errorf("rollback savepoint: %w", rbErr)
			}
			res.Failed = append(res.Failed, FailedRow{Line: row.Line, ID: id, Reason: describeError(err)})
			continue
		}

		if rel := d.release(sp); rel != "" {
			_, _ = tx.exec(ctx, rel)
		}

		if n == 0 {
			res.Skipped++
		} else {
			res.Inserted++
		}
	}

	return res, nil
}

// schemaConn is the minimum needed to create missing tables.
type schemaConn interface {
	tableExists(ctx context.Context, name string) (bool, error)
	execDDL(ctx context.Context, stmt string) error
}

// ensureTables creates each missing table in order and returns the ones it created.
func ensureTables(ctx context.Context, c schemaConn, tables []tableDDL) ([]string, error) {
	var created []string
	for _, t := range tables {
		exists, err := c.tableExists(ctx, t.Name)
		if err != nil {
			return created, fmt.Errorf("check table %s: %w", t.Name, err)
		}
		if exists {
			continue
		}
		if err := c.execDDL(ctx, t.Create); err != nil {
			return created, fmt.Errorf("create table %s: %w", t.Name, err)
		}
		created = append(created, t.Name)
	}
	return created, nil
}
