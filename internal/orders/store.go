package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore is the Postgres-backed Store.
type PGStore struct{ DB *pgxpool.Pool }

var _ Store = (*PGStore)(nil)

func (s *PGStore) Ledgers() Ledgers { return ledgersOn(s.DB, false) }

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, l Ledgers) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	// no-op after a successful commit; covers error returns and panics
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(ctx, ledgersOn(tx, true)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func ledgersOn(db dbtx, inTx bool) Ledgers {
	return Ledgers{
		Cart:   &CartRepo{DB: db, LockRows: inTx},
		Stock:  &StockRepo{DB: db},
		Orders: &OrderRepo{DB: db},
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
