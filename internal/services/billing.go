package services

import "github.com/shopspring/decimal"

// Pure billing arithmetic. All money flows through decimal.Decimal so long
// invoice chains accumulate no drift; tests assert exact equality.

var hundred = decimal.NewFromInt(100)

// LineAmount returns the dollars billed on the current invoice for a task:
// the task's fee times the delta percent.
func LineAmount(unitPrice, percent decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(percent).Div(hundred)
}

// CumulativePercent returns the percent of a task's fee billed to date after
// adding thisAmount. A zero-fee task always reports 0% no matter what has
// been billed against it; that is the documented edge case, not an error.
func CumulativePercent(unitPrice, previousBilling, thisAmount decimal.Decimal) decimal.Decimal {
	if unitPrice.IsZero() {
		return decimal.Zero
	}
	return previousBilling.Add(thisAmount).Div(unitPrice).Mul(hundred)
}

// NextPreviousBilling rolls the billed-to-date total forward.
func NextPreviousBilling(previousBilling, thisAmount decimal.Decimal) decimal.Decimal {
	return previousBilling.Add(thisAmount)
}
