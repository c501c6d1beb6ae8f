package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed schema.sql
var schema string

var lock = &sync.Mutex{}
var db *sqlx.DB

func GetDBInstance(user, password, host, port, dbName string) (*sqlx.DB, error) {
	lock.Lock()
	defer lock.Unlock()

	if db != nil {
		log.Info().Str("component", "GetDBInstance").Msg("instance is already created")
		return db, nil
	}

	sqlDB, err := otelsql.Open("postgres",
		fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbName),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBNameKey.String(dbName),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableQuery: true,
		}),
	)
	if err != nil {
		return nil, err
	}

	conn := sqlx.NewDb(sqlDB, "postgres")
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db = conn
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		log.Error().Err(err).Str("component", "Migrate").Msg("")
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}
