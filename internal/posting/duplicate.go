package posting

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SimilarityKey identifies what makes two postings look like the same
// real-world event. ExcludeID keeps an edited transaction from matching
// its own stored row.
type SimilarityKey struct {
	CompanyID     int64
	BankAccountID *int64
	Date          time.Time
	Amount        decimal.Decimal
	Description   string
	ExcludeID     int64
}

type similarityStore interface {
	CountSimilar(ctx context.Context, key SimilarityKey) (int, error)
}

// DuplicateGuard flags probable double entries. The signal is advisory:
// a match produces a warning on the result, never a rejection. Loan
// installments have their own hard guard in the loans package.
type DuplicateGuard struct {
	store similarityStore
}

func NewDuplicateGuard(store similarityStore) *DuplicateGuard {
	return &DuplicateGuard{store: store}
}

// Check reports whether an existing non-pending posting shares the
// input's bank account, date, amount and normalized description.
func (g *DuplicateGuard) Check(ctx context.Context, in Input, excludeID int64) (bool, error) {
	key := SimilarityKey{
		CompanyID:     in.CompanyID,
		BankAccountID: in.BankAccountID,
		Date:          in.Date,
		Amount:        in.Amount.Round(2),
		Description:   NormalizeDescription(in.Description),
		ExcludeID:     excludeID,
	}
	n, err := g.store.CountSimilar(ctx, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// NormalizeDescription collapses case and whitespace so trivial edits
// do not defeat the comparison.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
