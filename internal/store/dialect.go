package store

import (
	"fmt"
	"strings"
)

// tableDDL is a CREATE statement for one table.
type tableDDL struct {
	Name   string
	Create string
}

var (
	userColumns = []string{
		"id", "name", "phone_number", "email",
		"created_at", "last_active_at", "is_vip", "total_balance",
	}
	cardColumns = []string{
		"id", "user_id", "card_number", "balance",
		"created_at", "card_type", "limit_amount",
	}
	ingestionColumns = []string{
		"run_id", "source_file", "retrieved_at",
		"total_rows", "processed_rows", "errors", "notes",
	}
)

// dialect holds the SQL text that differs between database engines.
type dialect struct {
	Name string

	// placeholder returns the bind parameter for 1-indexed position n.
	placeholder func(n int) string

	tableExists string // one bind parameter: the table name
	users       string
	cards       string
	ingestion   string

	savepointSQL  string // fmt pattern taking the savepoint name
	rollbackToSQL string
	releaseSQL    string // empty when the engine has no release statement

	topN bool // SELECT TOP (n) instead of LIMIT n
}

var postgresDialect = dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	tableExists: `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = $1`,
	users: `CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name VARCHAR(100),
    phone_number VARCHAR(16),
    email VARCHAR(100),
    created_at TIMESTAMP,
    last_active_at TIMESTAMP,
    is_vip BOOLEAN,
    total_balance NUMERIC(18,2)
)`,
	cards: `CREATE TABLE cards (
    id INTEGER PRIMARY KEY,
    user_id INTEGER REFERENCES users(id),
    card_number VARCHAR(16),
    balance NUMERIC(18,2),
    created_at TIMESTAMP,
    card_type VARCHAR(50),
    limit_amount NUMERIC(18,2)
)`,
	ingestion: `CREATE TABLE retrieveinfo (
    id BIGSERIAL PRIMARY KEY,
    run_id UUID NOT NULL,
    source_file TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL,
    total_rows INTEGER NOT NULL,
    processed_rows INTEGER NOT NULL,
    errors INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT ''
)`,
	savepointSQL:  "SAVEPOINT %s",
	rollbackToSQL: "ROLLBACK TO SAVEPOINT %s",
	releaseSQL:    "RELEASE SAVEPOINT %s",
}

var sqliteDialect = dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	users: `CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name VARCHAR(100),
    phone_number VARCHAR(16),
    email VARCHAR(100),
    created_at DATETIME,
    last_active_at DATETIME,
    is_vip BOOLEAN,
    total_balance DECIMAL(18,2)
)`,
	cards: `CREATE TABLE cards (
    id INTEGER PRIMARY KEY,
    user_id INTEGER REFERENCES users(id),
    card_number VARCHAR(16),
    balance DECIMAL(18,2),
    created_at DATETIME,
    card_type VARCHAR(50),
    limit_amount DECIMAL(18,2)
)`,
	ingestion: `CREATE TABLE retrieveinfo (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id VARCHAR(36) NOT NULL,
    source_file TEXT NOT NULL,
    retrieved_at DATETIME NOT NULL,
    total_rows INTEGER NOT NULL,
    processed_rows INTEGER NOT NULL,
    errors INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT ''
)`,
	savepointSQL:  "SAVEPOINT %s",
	rollbackToSQL: "ROLLBACK TO %s",
	releaseSQL:    "RELEASE %s",
}

var sqlServerDialect = dialect{
	Name:        "sqlserver",
	placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	tableExists: `SELECT COUNT(*) FROM sysobjects WHERE name = @p1 AND xtype = 'U'`,
	users: `CREATE TABLE users (
    id INT PRIMARY KEY,
    name NVARCHAR(100),
    phone_number NVARCHAR(16),
    email NVARCHAR(100),
    created_at DATETIME,
    last_active_at DATETIME,
    is_vip BIT,
    total_balance DECIMAL(18,2)
)`,
	cards: `CREATE TABLE cards (
    id INT PRIMARY KEY,
    user_id INT FOREIGN KEY REFERENCES users(id),
    card_number NVARCHAR(16),
    balance DECIMAL(18,2),
    created_at DATETIME,
    card_type NVARCHAR(50),
    limit_amount DECIMAL(18,2)
)`,
	ingestion: `CREATE TABLE retrieveinfo (
    id INT IDENTITY(1,1) PRIMARY KEY,
    run_id VARCHAR(36) NOT NULL,
    source_file NVARCHAR(400) NOT NULL,
    retrieved_at DATETIME2 NOT NULL,
    total_rows INT NOT NULL,
    processed_rows INT NOT NULL,
    errors INT NOT NULL DEFAULT 0,
    notes NVARCHAR(1000) NOT NULL DEFAULT ''
)`,
	savepointSQL:  "SAVE TRANSACTION %s",
	rollbackToSQL: "ROLLBACK TRANSACTION %s",
	topN:          true,
}

// schemaTables lists the destination tables in creation order.
func (d dialect) schemaTables() []tableDDL {
	return []tableDDL{
		{Name: "users", Create: d.users},
		{Name: "cards", Create: d.cards},
	}
}

func (d dialect) ingestionTable() tableDDL {
	return tableDDL{Name: "retrieveinfo", Create: d.ingestion}
}

func (d dialect) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

// insertIgnore builds an INSERT that leaves an existing row with the same
// id untouched. The first column must be id.
func (d dialect) insertIgnore(table string, cols []string) string {
	colList := strings.Join(cols, ", ")
	if d.Name == sqlServerDialect.Name {
		return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE id = %s)",
			table, colList, d.placeholders(len(cols)), table, d.placeholder(1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
		table, colList, d.placeholders(len(cols)))
}

func (d dialect) insertIngestion() string {
	return fmt.Sprintf("INSERT INTO retrieveinfo (%s) VALUES (%s)",
		strings.Join(ingestionColumns, ", "), d.placeholders(len(ingestionColumns)))
}

// recentIngestions selects the newest audit rows, newest first.
func (d dialect) recentIngestions() string {
	runID := "run_id"
	if d.Name == postgresDialect.Name {
		runID = "run_id::text AS run_id"
	}
	cols := append([]string{runID}, ingestionColumns[1:]...)

	if d.topN {
		return fmt.Sprintf("SELECT TOP (%s) %s FROM retrieveinfo ORDER BY id DESC",
			d.placeholder(1), strings.Join(cols, ", "))
	}
	return fmt.Sprintf("SELECT %s FROM retrieveinfo ORDER BY id DESC LIMIT %s",
		strings.Join(cols, ", "), d.placeholder(1))
}

func (d dialect) savepoint(name string) string  { return fmt.Sprintf(d.savepointSQL, name) }
func (d dialect) rollbackTo(name string) string { return fmt.Sprintf(d.rollbackToSQL, name) }

func (d dialect) release(name string) string {
	if d.releaseSQL == "" {
		return ""
	}
	return fmt.Sprintf(d.releaseSQL, name)
}
