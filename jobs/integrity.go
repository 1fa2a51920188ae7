package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// LedgerIntegrityJob verifies the two structural invariants of the
// ledger: every posted transaction balances to the cent, and the
// ledger mirror agrees with the entries leg for leg.
type LedgerIntegrityJob struct {
	Pool   *pgxpool.Pool
	Lock   *shared.JobLock
	Logger *slog.Logger
}

// NewLedgerIntegrityJob initialises the handler.
func NewLedgerIntegrityJob(pool *pgxpool.Pool, lock *shared.JobLock, logger *slog.Logger) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Pool: pool, Lock: lock, Logger: logger}
}

// ProcessTask runs both scans concurrently.
func (j *LedgerIntegrityJob) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	lockKey := shared.IntegrityScanLockKey()
	acquired, err := j.Lock.TryAcquire(ctx, lockKey)
	if err != nil {
		return err
	}
	if !acquired {
		j.Logger.InfoContext(ctx, "ledger integrity scan already in progress")
		return nil
	}
	defer func() { _ = j.Lock.Release(ctx, lockKey) }()

	var unbalanced, drifted []int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		unbalanced, err = j.unbalancedTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		drifted, err = j.mirrorDrift(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if len(unbalanced) == 0 && len(drifted) == 0 {
		j.Logger.InfoContext(ctx, "ledger integrity scan clean")
		return nil
	}
	j.Logger.ErrorContext(ctx, "ledger integrity violations found",
		"unbalanced", unbalanced, "mirror_drift", drifted)
	return fmt.Errorf("ledger integrity: %d unbalanced, %d mirror drift", len(unbalanced), len(drifted))
}

func (j *LedgerIntegrityJob) unbalancedTransactions(ctx context.Context) ([]int64, error) {
	rows, err := j.Pool.Query(ctx, `SELECT e.transaction_id
FROM entries e
GROUP BY e.transaction_id
HAVING SUM(e.debit) <> SUM(e.credit)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// mirrorDrift finds transactions whose ledger mirror disagrees with the
// entries: different leg count or different side totals.
func (j *LedgerIntegrityJob) mirrorDrift(ctx context.Context) ([]int64, error) {
	rows, err := j.Pool.Query(ctx, `SELECT t.id
FROM transactions t
LEFT JOIN (SELECT transaction_id, COUNT(*) n, SUM(debit) d, SUM(credit) c FROM entries GROUP BY transaction_id) e ON e.transaction_id = t.id
LEFT JOIN (SELECT transaction_id, COUNT(*) n, SUM(debit) d, SUM(credit) c FROM ledger_entries GROUP BY transaction_id) l ON l.transaction_id = t.id
WHERE t.status = 'posted'
  AND (COALESCE(e.n,0) <> COALESCE(l.n,0)
    OR COALESCE(e.d,0) <> COALESCE(l.d,0)
    OR COALESCE(e.c,0) <> COALESCE(l.c,0))`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

type idRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectIDs(rows idRows) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
