package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchCollectionStatus is the lifecycle state of a pooled funding campaign.
type BatchCollectionStatus string

const (
	BatchActive    BatchCollectionStatus = "ACTIVE"
	BatchCompleted BatchCollectionStatus = "COMPLETED"
	BatchCancelled BatchCollectionStatus = "CANCELLED"
)

// BatchCollection is a pooled funding campaign scoping one event to one
// cohort, unique per (event, cohort). CollectedAmount only ever grows; it is
// maintained atomically alongside each completed payment insert. TargetMet
// flips exactly once when CollectedAmount first reaches TargetAmount, and
// Approved flips exactly once when an authorized approver triggers the bulk
// auto-registration.
type BatchCollection struct {
	ID              string                `json:"id"`
	EventID         string                `json:"event_id"`
	CohortID        string                `json:"cohort_id"`
	TargetAmount    decimal.Decimal       `json:"target_amount"`
	CollectedAmount decimal.Decimal       `json:"collected_amount"`
	TargetMet       bool                  `json:"target_met"`
	Approved        bool                  `json:"approved"`
	Status          BatchCollectionStatus `json:"status"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// BatchAdminPayment is one completed administrator contribution to a collection.
type BatchAdminPayment struct {
	ID             string          `json:"id"`
	CollectionID   string          `json:"collection_id"`
	PayerID        string          `json:"payer_id"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef string          `json:"transaction_ref"`
	Status         PaymentStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateBatchCollectionRequest is the payload for opening a funding campaign.
type CreateBatchCollectionRequest struct {
	EventID      string          `json:"event_id"`
	CohortID     string          `json:"cohort_id"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}

// RecordBatchPaymentRequest carries an already-verified payment confirmation:
// the gateway integration guarantees the amount is real before invoking us.
type RecordBatchPaymentRequest struct {
	PayerID        string          `json:"payer_id"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef string          `json:"transaction_ref"`
}

// ApproveBatchCollectionRequest identifies the approver for audit purposes.
type ApproveBatchCollectionRequest struct {
	ApproverID string `json:"approver_id"`
}

// BatchApprovalResult summarises a completed bulk auto-registration.
type BatchApprovalResult struct {
	Collection  BatchCollection `json:"collection"`
	Registered  int             `json:"registered"`
	Skipped     int             `json:"skipped"`
	MemberCount int             `json:"member_count"`
}
