package accounting

import (
	"fmt"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Fixed-point contract for all amounts and balances: 2 fraction digits,
// 15 significant digits total.
const (
	AmountFractionDigits = 2
	AmountTotalDigits    = 15
)

// SignedDelta returns the balance effect of one line on its account.
// A line whose type matches the account's normal balance increases the balance;
// the opposite type decreases it. A Debit of 100 therefore adds 100 to a
// debit-normal Cash account and removes 100 from a credit-normal loan account.
func SignedDelta(lineType domain.LineType, amount decimal.Decimal, normal domain.NormalBalance) decimal.Decimal {
	if string(lineType) == string(normal) {
		return amount
	}
	return amount.Neg()
}

// maxAmount is the exclusive upper bound implied by 15 total digits with 2
// reserved for the fraction: 10^13.
var maxAmount = decimal.New(1, AmountTotalDigits-AmountFractionDigits)

// ValidateAmount rejects amounts that do not fit the fixed-point contract.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount.String())
	}
	if !amount.Equal(amount.Truncate(AmountFractionDigits)) {
		return fmt.Errorf("%w: amount %s has more than %d fraction digits", apperrors.ErrValidation, amount.String(), AmountFractionDigits)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount %s exceeds %d total digits", apperrors.ErrValidation, amount.String(), AmountTotalDigits)
	}
	return nil
}

// ValidateLineAmounts checks every line amount is strictly positive and fits the
// fixed-point contract. Zero-amount lines carry no information and are rejected.
func ValidateLineAmounts(lines []domain.TransactionLine) error {
	for _, line := range lines {
		if err := ValidateAmount(line.Amount); err != nil {
			return err
		}
		if line.Amount.IsZero() {
			return fmt.Errorf("%w: line amount must be positive for account %s", apperrors.ErrValidation, line.AccountID)
		}
	}
	return nil
}

// CheckBalanced verifies the double-entry invariant exactly: the sum of debit
// amounts equals the sum of credit amounts with zero remainder.
func CheckBalanced(lines []domain.TransactionLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: a transaction needs at least two lines", apperrors.ErrValidation)
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		if line.LineType == domain.Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum to %s, credits sum to %s",
			apperrors.ErrUnbalancedTransaction, debits.String(), credits.String())
	}
	return nil
}

// BalanceDeltas aggregates the net signed effect per account for a set of lines.
// normals maps account id to that account's normal balance.
func BalanceDeltas(lines []domain.TransactionLine, normals map[string]domain.NormalBalance) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		normal, ok := normals[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: no normal balance known for account %s", apperrors.ErrInvalidAccountRef, line.AccountID)
		}
		deltas[line.AccountID] = deltas[line.AccountID].Add(SignedDelta(line.LineType, line.Amount, normal))
	}
	return deltas, nil
}

// InvertDeltas returns the additive inverse of every delta, used when voiding.
func InvertDeltas(deltas map[string]decimal.Decimal) map[string]decimal.Decimal {
	inverse := make(map[string]decimal.Decimal, len(deltas))
	for accountID, delta := range deltas {
		inverse[accountID] = delta.Neg()
	}
	return inverse
}
