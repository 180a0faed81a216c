// Package rewards defines the contract with the reward-computation engine.
// The engine is an external collaborator: the reconciliation service only
// hands validated submissions to it, inside the same transaction that writes
// the validated status, so both commit or roll back together.
package rewards

import (
	"context"
	"database/sql"

	"sales-reconciliation-service/internal/models"
)

// Engine computes rewards for a validated submission. ProcessTriggers runs
// inside the caller's transaction and must be idempotent-safe to retry at
// transaction-start granularity: a rolled-back attempt leaves no trace.
type Engine interface {
	ProcessTriggers(ctx context.Context, tx *sql.Tx, sub *models.Submission, campaign *models.Campaign, seller *models.SellerView) error
}

// TriggerWriter is the default Engine: it records the handoff as a
// reward_triggers row for the downstream engine to consume. Writing through
// the caller's tx keeps the trigger and the status change atomic.
type TriggerWriter struct{}

func NewTriggerWriter() *TriggerWriter {
	return &TriggerWriter{}
}

func (w *TriggerWriter) ProcessTriggers(ctx context.Context, tx *sql.Tx, sub *models.Submission, campaign *models.Campaign, seller *models.SellerView) error {
	query := `
		INSERT INTO reward_triggers (
			submission_id, campaign_id, seller_id, optic_id,
			product_code, payout_value, slot_number
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		sub.ID,
		campaign.ID,
		seller.Seller.ID,
		seller.Optic.ID,
		sub.ProductCode,
		sub.PayoutValue,
		sub.SlotNumber,
	)
	return err
}
