package posting

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of every locally recoverable input error.
// All validation sentinels wrap it so callers can branch on the class.
var ErrValidation = errors.New("posting: invalid input")

var (
	// ErrChartMissing is fatal for the posting: no chart, no ledger.
	ErrChartMissing = fmt.Errorf("%w: chart of accounts is empty", ErrValidation)
	// ErrMissingField flags an absent required field.
	ErrMissingField = fmt.Errorf("%w: required field missing", ErrValidation)
	// ErrSameAccount flags the same ledger on both sides.
	ErrSameAccount = fmt.Errorf("%w: debit and credit account must differ", ErrValidation)
	// ErrUnbalancedSplit flags split lines drifting from the declared total.
	ErrUnbalancedSplit = fmt.Errorf("%w: split lines do not sum to the declared total", ErrValidation)
	// ErrSplitLineAccount flags a split line with no account selected.
	ErrSplitLineAccount = fmt.Errorf("%w: split line missing account", ErrValidation)
	// ErrBankLedgerMissing flags a bank payment without a resolvable bank ledger.
	ErrBankLedgerMissing = fmt.Errorf("%w: bank payment requires an existing bank ledger account", ErrValidation)
	// ErrLockedAccountOverride flags an attempt to override a resolver-pinned account.
	ErrLockedAccountOverride = fmt.Errorf("%w: accounts are locked by the source document", ErrValidation)
	// ErrUnbalancedEntries guards the engine itself; it should be unreachable
	// for any input that passed validation.
	ErrUnbalancedEntries = errors.New("posting: entries do not balance")
	// ErrNotPosted blocks unreconcile of a transaction without entries.
	ErrNotPosted = errors.New("posting: transaction is not posted")
	// ErrTransactionNotFound indicates a missing transaction.
	ErrTransactionNotFound = errors.New("posting: transaction not found")
)
