package services

import (
	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
)

// overbillEpsilon absorbs rounding at the 100% boundary so a task billed
// 33.33 + 33.33 + 33.34 can still close out.
var overbillEpsilon = decimal.NewFromFloat(0.01)

// applyBilling advances a task's ledger by deltaPercent, keeping
// billed_amount and billed_percent in lockstep. Only the invoice builder may
// call this, inside its transaction; a rejected task aborts the whole batch.
// Zero-fee tasks always pass validation and stay at 0%.
func applyBilling(task *models.ContractTask, deltaPercent decimal.Decimal) error {
	if !task.Amount.IsZero() {
		limit := hundred.Add(overbillEpsilon)
		if task.BilledPercent.Add(deltaPercent).GreaterThan(limit) {
			return validationErr("task_over_billed", map[string]string{"task_id": task.ID})
		}
	}
	previous := task.BilledAmount
	thisAmount := LineAmount(task.Amount, deltaPercent)
	task.BilledAmount = NextPreviousBilling(previous, thisAmount)
	task.BilledPercent = CumulativePercent(task.Amount, previous, thisAmount)
	return nil
}
