package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/posting"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Poster is the posting surface the job drives.
type Poster interface {
	Post(ctx context.Context, in posting.Input) (posting.Result, error)
}

// DepreciationRunJob posts one straight-line charge per active asset for
// the period. A redis lock keyed by period keeps overlapping runs out.
type DepreciationRunJob struct {
	Pool   *pgxpool.Pool
	Assets *assets.Service
	Poster Poster
	Lock   *shared.JobLock
	Logger *slog.Logger

	clock func() time.Time
}

// NewDepreciationRunJob initialises the handler.
func NewDepreciationRunJob(pool *pgxpool.Pool, assetSvc *assets.Service, poster Poster, lock *shared.JobLock, logger *slog.Logger) *DepreciationRunJob {
	return &DepreciationRunJob{
		Pool:   pool,
		Assets: assetSvc,
		Poster: poster,
		Lock:   lock,
		Logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// ProcessTask executes the run.
func (j *DepreciationRunJob) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("depreciation run: handler not configured")
	}
	var payload DepreciationRunPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	period := j.clock()
	if payload.Period != "" {
		parsed, err := time.Parse("2006-01", payload.Period)
		if err != nil {
			return asynq.SkipRetry
		}
		period = parsed
	}

	lockKey := shared.DepreciationRunLockKey(period.Year(), period.Month())
	acquired, err := j.Lock.TryAcquire(ctx, lockKey)
	if err != nil {
		return err
	}
	if !acquired {
		j.Logger.InfoContext(ctx, "depreciation run already in progress", "period", period.Format("2006-01"))
		return nil
	}
	defer func() { _ = j.Lock.Release(ctx, lockKey) }()

	companies, err := j.companies(ctx, payload.CompanyID)
	if err != nil {
		return err
	}

	// Charge on the period's last calendar day.
	postingDate := time.Date(period.Year(), period.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	var posted, failed atomic.Int64
	for _, companyID := range companies {
		active, err := j.Assets.ListActive(ctx, companyID)
		if err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, asset := range active {
			if assets.DepreciationCharge(asset).Sign() <= 0 {
				continue
			}
			asset := asset
			g.Go(func() error {
				in := posting.Input{
					CompanyID:     companyID,
					Element:       posting.ElementDepreciation,
					Date:          postingDate,
					Description:   fmt.Sprintf("Depreciation %s: %s", period.Format("2006-01"), asset.Description),
					PaymentMethod: posting.PaymentMethodCash,
					AssetID:       &asset.ID,
					ActorID:       payload.ActorID,
				}
				if _, err := j.Poster.Post(gctx, in); err != nil {
					failed.Add(1)
					j.Logger.ErrorContext(gctx, "depreciation posting failed",
						"asset_id", asset.ID, "company_id", companyID, "error", err)
					return nil
				}
				posted.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	j.Logger.InfoContext(ctx, "depreciation run finished",
		"period", period.Format("2006-01"), "posted", posted.Load(), "failed", failed.Load())
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("depreciation run: %d assets failed", n)
	}
	return nil
}

func (j *DepreciationRunJob) companies(ctx context.Context, companyID int64) ([]int64, error) {
	if companyID != 0 {
		return []int64{companyID}, nil
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT company_id FROM fixed_assets WHERE status='ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
