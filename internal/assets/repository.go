package assets

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository encapsulates DB operations for fixed assets.
type Repository interface {
	Get(ctx context.Context, id int64) (FixedAsset, error)
	List(ctx context.Context, companyID int64) ([]FixedAsset, error)
	ListActive(ctx context.Context, companyID int64) ([]FixedAsset, error)
	Create(ctx context.Context, asset FixedAsset) (FixedAsset, error)
	// AdjustAccumulated applies a serialized delta, clamped to [0, cost].
	AdjustAccumulated(ctx context.Context, id int64, delta decimal.Decimal) error
	SetDisposed(ctx context.Context, id int64, disposalDate *time.Time) error
	SetActive(ctx context.Context, id int64) error
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or, inside a posting
// transaction, to the transaction itself.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const assetColumns = `id, company_id, description, cost, purchase_date, useful_life_years, accumulated_depreciation, status, disposal_date, created_at, updated_at`

func scanAsset(row pgx.Row) (FixedAsset, error) {
	var a FixedAsset
	var cost, accum string
	err := row.Scan(&a.ID, &a.CompanyID, &a.Description, &cost, &a.PurchaseDate, &a.UsefulLifeYears, &accum, &a.Status, &a.DisposalDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return FixedAsset{}, err
	}
	if a.Cost, err = decimal.NewFromString(cost); err != nil {
		return FixedAsset{}, err
	}
	if a.AccumulatedDepreciation, err = decimal.NewFromString(accum); err != nil {
		return FixedAsset{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, id int64) (FixedAsset, error) {
	asset, err := scanAsset(r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FixedAsset{}, shared.ErrNotFound
		}
		return FixedAsset{}, err
	}
	return asset, nil
}

func (r *repository) list(ctx context.Context, query string, companyID int64) ([]FixedAsset, error) {
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FixedAsset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, asset)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, companyID int64) ([]FixedAsset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE company_id=$1 ORDER BY purchase_date DESC`, companyID)
}

func (r *repository) ListActive(ctx context.Context, companyID int64) ([]FixedAsset, error) {
	return r.list(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE company_id=$1 AND status='ACTIVE' ORDER BY purchase_date ASC`, companyID)
}

func (r *repository) Create(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO fixed_assets (company_id, description, cost, purchase_date, useful_life_years, accumulated_depreciation, status)
VALUES ($1,$2,$3,$4,$5,0,'ACTIVE') RETURNING id, created_at, updated_at`,
		asset.CompanyID, asset.Description, asset.Cost.StringFixed(2), asset.PurchaseDate, asset.UsefulLifeYears)
	if err := row.Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt); err != nil {
		return FixedAsset{}, err
	}
	asset.Status = AssetStatusActive
	asset.AccumulatedDepreciation = decimal.Zero
	return asset, nil
}

func (r *repository) AdjustAccumulated(ctx context.Context, id int64, delta decimal.Decimal) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fixed_assets
SET accumulated_depreciation = LEAST(GREATEST(accumulated_depreciation + $2, 0), cost),
    updated_at = NOW()
WHERE id=$1`, id, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetDisposed(ctx context.Context, id int64, disposalDate *time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fixed_assets SET status='DISPOSED', disposal_date=$2, updated_at=NOW() WHERE id=$1`, id, disposalDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fixed_assets SET status='ACTIVE', disposal_date=NULL, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
