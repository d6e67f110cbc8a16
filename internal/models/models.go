package models

import (
	"strings"

	"github.com/google/uuid"
)

// Entity identifiers are short prefixed ids (e.g. "inv-1f2e3d4c") rather than
// auto-increment integers, so they can be generated before the insert and
// referenced across tables without a round-trip.
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + hex[:8]
}

// Invoice shapes. Task invoices bill contract tasks by percent; list invoices
// carry free-form time/expense lines.
const (
	InvoiceTypeTask = "task"
	InvoiceTypeList = "list"
)

const (
	SentStatusUnsent = "unsent"
	SentStatusSent   = "sent"
)

const (
	PaidStatusUnpaid  = "unpaid"
	PaidStatusPartial = "partial"
	PaidStatusPaid    = "paid"
)

const (
	ProposalStatusDraft    = "draft"
	ProposalStatusSent     = "sent"
	ProposalStatusAccepted = "accepted"
)
