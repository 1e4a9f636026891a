package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
)

// Row rejection reasons shared by every engine.
const (
	reasonForeignKey = "foreign key violation: referenced record does not exist"
	reasonDuplicate  = "duplicate key: a record with this id already exists"
	reasonTooLong    = "value too long for column"
	reasonNotNull    = "required value is missing"
)

// PostgreSQL SQLSTATE codes.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgNotNullViolation    = "23502"
	pgStringTooLong       = "22001"
)

// SQL Server error numbers.
const (
	msForeignKeyViolation = 547
	msPrimaryKeyViolation = 2627
	msUniqueIndex         = 2601
	msTruncated           = 8152
	msTruncatedVerbose    = 2628
	msNotNull             = 515
)

// fallbackPatterns map driver messages (lowercase substrings) to reasons
// when the error carries no structured code. The first match wins.
var fallbackPatterns = []struct {
	pattern string
	reason  string
}{
	{"foreign key", reasonForeignKey},
	{"duplicate key", reasonDuplicate},
	{"unique constraint", reasonDuplicate},
	{"primary key", reasonDuplicate},
	{"too long", reasonTooLong},
	{"truncated", reasonTooLong},
	{"not null", reasonNotNull},
}

// describeError turns a row insert error into a readable reason.
func describeError(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return reasonForeignKey
		case pgUniqueViolation:
			return reasonDuplicate
		case pgStringTooLong:
			return reasonTooLong
		case pgNotNullViolation:
			return reasonNotNull
		}
		return pgErr.Message
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return reasonForeignKey
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return reasonDuplicate
		case sqlite3.ErrConstraintNotNull:
			return reasonNotNull
		}
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case msForeignKeyViolation:
			return reasonForeignKey
		case msPrimaryKeyViolation, msUniqueIndex:
			return reasonDuplicate
		case msTruncated, msTruncatedVerbose:
			return reasonTooLong
		case msNotNull:
			return reasonNotNull
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range fallbackPatterns {
		if strings.Contains(msg, p.pattern) {
			return p.reason
		}
	}
	return err.Error()
}
