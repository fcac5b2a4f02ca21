// Package reconcile computes per-tender expected totals for a cash session.
// Everything here is pure: no storage, no clock, no logging. Callers fetch
// the inputs (ledger sums, movement sums, opening float) and decide what to
// do with the output — the same inputs always produce the same totals, so
// the computation can be re-run freely while a session is open and
// snapshotted once at close time.
package reconcile

import "github.com/shopspring/decimal"

// Totals holds one amount per tender in the reconciliation set.
type Totals struct {
	Cash   decimal.Decimal
	Pix    decimal.Decimal
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Sum returns cash + pix + debit + credit.
func (t Totals) Sum() decimal.Decimal {
	return t.Cash.Add(t.Pix).Add(t.Debit).Add(t.Credit)
}

// AnyNegative reports whether any tender amount is below zero.
func (t Totals) AnyNegative() bool {
	return t.Cash.IsNegative() || t.Pix.IsNegative() || t.Debit.IsNegative() || t.Credit.IsNegative()
}

// MovementSums aggregates the manual drawer movements of one session.
// Both figures are sums of positive amounts.
type MovementSums struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
}

// Expected is the amount the drawer SHOULD hold per tender.
type Expected struct {
	Cash   decimal.Decimal
	Pix    decimal.Decimal
	Debit  decimal.Decimal
	Credit decimal.Decimal
	Total  decimal.Decimal
}

// ComputeExpected derives expected totals from the opening float, the sales
// ledger sums for the session window, and the session's manual movements.
// Manual movements only ever affect physical cash:
//
//	expected_cash = opening_float + sales_cash + deposits − withdrawals
//
// Electronic tenders pass through from sales untouched.
func ComputeExpected(openingFloat decimal.Decimal, sales Totals, mov MovementSums) Expected {
	cash := openingFloat.Add(sales.Cash).Add(mov.Deposits).Sub(mov.Withdrawals)
	exp := Expected{
		Cash:   cash,
		Pix:    sales.Pix,
		Debit:  sales.Debit,
		Credit: sales.Credit,
	}
	exp.Total = cash.Add(sales.Pix).Add(sales.Debit).Add(sales.Credit)
	return exp
}

// Difference is counted minus expected — the reconciliation signal surfaced
// to management. Negative means the drawer came up short.
func Difference(counted Totals, exp Expected) decimal.Decimal {
	return counted.Sum().Sub(exp.Total)
}

// NegativeCash reports whether more cash was withdrawn than was ever in the
// drawer. Permitted numerically — the operator's physical count is the audit
// ground truth, not a computed invariant — but callers should surface it as
// a data-quality warning.
func (e Expected) NegativeCash() bool { return e.Cash.IsNegative() }
