package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqDeadlockDetected    = "40P01"
)

// executor is satisfied by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// handleTrx runs fn inside one transaction: rollback on error or panic,
// commit otherwise. A commit failure is returned to the caller.
func handleTrx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandleTrx").Msg("")
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Ctx(ctx).Error().Err(rbErr).Str("component", "HandleTrx").Msg("rollback failed")
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)

	return err
}

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
