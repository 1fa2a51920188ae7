package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository reads upstream documents. The posting engine never writes
// to these tables.
type Repository interface {
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetPurchaseOrder(ctx context.Context, id int64) (PurchaseOrder, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	var total string
	err := r.db.QueryRow(ctx, `SELECT id, company_id, number, customer_name, issued_at, total
FROM invoices WHERE id=$1`, id).
		Scan(&inv.ID, &inv.CompanyID, &inv.Number, &inv.CustomerName, &inv.IssuedAt, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return Invoice{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT l.id, l.invoice_id, l.description, l.quantity, l.unit_price, l.item_type, p.cost
FROM invoice_lines l LEFT JOIN products p ON p.id = l.product_id
WHERE l.invoice_id=$1 ORDER BY l.id ASC`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		var qty, price string
		var cost *string
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Description, &qty, &price, &line.ItemType, &cost); err != nil {
			return Invoice{}, err
		}
		if line.Quantity, err = decimal.NewFromString(qty); err != nil {
			return Invoice{}, err
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return Invoice{}, err
		}
		if cost != nil {
			c, err := decimal.NewFromString(*cost)
			if err != nil {
				return Invoice{}, err
			}
			line.ProductCost = &c
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

func (r *repository) GetPurchaseOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	var po PurchaseOrder
	var total string
	err := r.db.QueryRow(ctx, `SELECT id, company_id, number, supplier_name, loan_funded, loan_id, sent_at, total
FROM purchase_orders WHERE id=$1`, id).
		Scan(&po.ID, &po.CompanyID, &po.Number, &po.SupplierName, &po.LoanFunded, &po.LoanID, &po.SentAt, &total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, shared.ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	if po.Total, err = decimal.NewFromString(total); err != nil {
		return PurchaseOrder{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, purchase_order_id, description, quantity, unit_price, item_type
FROM purchase_order_lines WHERE purchase_order_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line PurchaseOrderLine
		var qty, price string
		if err := rows.Scan(&line.ID, &line.PurchaseOrderID, &line.Description, &qty, &price, &line.ItemType); err != nil {
			return PurchaseOrder{}, err
		}
		if line.Quantity, err = decimal.NewFromString(qty); err != nil {
			return PurchaseOrder{}, err
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return PurchaseOrder{}, err
		}
		po.Lines = append(po.Lines, line)
	}
	return po, rows.Err()
}
