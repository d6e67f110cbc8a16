package services

import (
	"testing"

	"github.com/conductorhq/conductor/internal/models"
	"github.com/shopspring/decimal"
)

func TestLineAmount(t *testing.T) {
	wantDecimal(t, "50% of 10000", "5000", LineAmount(decimal.NewFromInt(10000), decimal.NewFromInt(50)))
	wantDecimal(t, "33.33% of 10000", "3333", LineAmount(decimal.NewFromInt(10000), mustDecimal(t, "33.33")))
	wantDecimal(t, "0% of anything", "0", LineAmount(decimal.NewFromInt(12345), decimal.Zero))
	// fractional fees stay exact, no float drift
	wantDecimal(t, "10% of 0.30", "0.03", LineAmount(mustDecimal(t, "0.30"), decimal.NewFromInt(10)))
}

func TestLineAmountSumsExactAcrossSplit(t *testing.T) {
	fee := decimal.NewFromInt(10000)
	total := decimal.Zero
	for _, p := range []string{"33.33", "33.33", "33.34"} {
		total = total.Add(LineAmount(fee, mustDecimal(t, p)))
	}
	wantDecimal(t, "split of thirds", "10000", total)
}

func TestCumulativePercent(t *testing.T) {
	fee := decimal.NewFromInt(10000)
	wantDecimal(t, "first 50%", "50", CumulativePercent(fee, decimal.Zero, decimal.NewFromInt(5000)))
	wantDecimal(t, "50%+25%", "75", CumulativePercent(fee, decimal.NewFromInt(5000), decimal.NewFromInt(2500)))
}

func TestCumulativePercentZeroFeeTask(t *testing.T) {
	// A zero-fee task reports 0% billed no matter what was billed against it.
	wantDecimal(t, "zero fee", "0", CumulativePercent(decimal.Zero, decimal.NewFromInt(100), decimal.NewFromInt(50)))
}

func TestNextPreviousBilling(t *testing.T) {
	wantDecimal(t, "rollforward", "7500",
		NextPreviousBilling(decimal.NewFromInt(5000), decimal.NewFromInt(2500)))
}

func TestApplyBillingKeepsLedgerInLockstep(t *testing.T) {
	task := models.ContractTask{ID: "ctask-x", Amount: decimal.NewFromInt(10000)}
	if err := applyBilling(&task, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("applyBilling: %v", err)
	}
	wantDecimal(t, "billed amount", "5000", task.BilledAmount)
	wantDecimal(t, "billed percent", "50", task.BilledPercent)

	if err := applyBilling(&task, decimal.NewFromInt(25)); err != nil {
		t.Fatalf("applyBilling second: %v", err)
	}
	wantDecimal(t, "billed amount after second", "7500", task.BilledAmount)
	wantDecimal(t, "billed percent after second", "75", task.BilledPercent)
}

func TestApplyBillingRejectsOverbill(t *testing.T) {
	task := models.ContractTask{
		ID:            "ctask-x",
		Amount:        decimal.NewFromInt(1000),
		BilledAmount:  decimal.NewFromInt(900),
		BilledPercent: decimal.NewFromInt(90),
	}
	err := applyBilling(&task, mustDecimal(t, "10.02"))
	if err == nil {
		t.Fatalf("expected over-bill rejection")
	}
	verr, ok := err.(*ValidationError)
	if !ok || verr.Code != "task_over_billed" {
		t.Fatalf("expected task_over_billed got %v", err)
	}
	// rejected call must not have touched the ledger
	wantDecimal(t, "billed amount untouched", "900", task.BilledAmount)
	wantDecimal(t, "billed percent untouched", "90", task.BilledPercent)
}

func TestApplyBillingToleratesRoundingAtBoundary(t *testing.T) {
	// 33.33 + 33.33 + 33.34 has to close the task out despite the uneven split.
	task := models.ContractTask{ID: "ctask-x", Amount: decimal.NewFromInt(10000)}
	for _, p := range []string{"33.33", "33.33", "33.34"} {
		if err := applyBilling(&task, mustDecimal(t, p)); err != nil {
			t.Fatalf("applyBilling %s: %v", p, err)
		}
	}
	wantDecimal(t, "closed out amount", "10000", task.BilledAmount)
	wantDecimal(t, "closed out percent", "100", task.BilledPercent)
}

func TestApplyBillingZeroFeeTaskAlwaysPasses(t *testing.T) {
	task := models.ContractTask{ID: "ctask-x", Amount: decimal.Zero}
	if err := applyBilling(&task, decimal.NewFromInt(500)); err != nil {
		t.Fatalf("zero-fee task must never over-bill: %v", err)
	}
	wantDecimal(t, "zero-fee billed amount", "0", task.BilledAmount)
	wantDecimal(t, "zero-fee billed percent", "0", task.BilledPercent)
}
