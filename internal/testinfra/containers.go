// Package testinfra starts throwaway databases for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "csvingest"

	SQLServerImage    = "mcr.microsoft.com/mssql/server:2022-CU14-ubuntu-22.04"
	SQLServerPassword = "Csvingest!Passw0rd"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres runs a PostgreSQL container and returns its connection string.
// Callers must Terminate the container.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

type SQLServerContainer struct {
	*mssql.MSSQLServerContainer
	ConnString string
}

// StartSQLServer runs a SQL Server container and returns its connection
// string. Callers must Terminate the container.
func StartSQLServer(ctx context.Context) (*SQLServerContainer, error) {
	ctr, err := mssql.Run(ctx,
		SQLServerImage,
		mssql.WithAcceptEULA(),
		mssql.WithPassword(SQLServerPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("start sqlserver: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "encrypt=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &SQLServerContainer{MSSQLServerContainer: ctr, ConnString: connStr}, nil
}
