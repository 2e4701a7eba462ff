package domain

import "github.com/shopspring/decimal"

// Balance is derived from the full transaction set and never stored
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Outcome decimal.Decimal `json:"outcome"`
	Total   decimal.Decimal `json:"total"`
}

// ComputeBalance sums the transactions in a single pass.
// Anything that is not income counts as outcome.
func ComputeBalance(transactions []*Transaction) Balance {
	balance := Balance{
		Income:  decimal.Zero,
		Outcome: decimal.Zero,
		Total:   decimal.Zero,
	}

	for _, t := range transactions {
		if t.Type == TransactionTypeIncome {
			balance.Income = balance.Income.Add(t.Value)
			balance.Total = balance.Total.Add(t.Value)
			continue
		}
		balance.Outcome = balance.Outcome.Add(t.Value)
		balance.Total = balance.Total.Sub(t.Value)
	}

	return balance
}

// CanAfford reports whether an outcome of value keeps outcomes within incomes
func (b Balance) CanAfford(value decimal.Decimal) bool {
	return b.Outcome.Add(value).LessThanOrEqual(b.Income)
}
