// Package validation implements the per-submission decision cascade: locate
// the spreadsheet rows for the submission's order number, then validate tax
// identifier, sale date and requirement rules, and finally check for a
// cross-seller conflict. Every stage is pure; the only side-effecting
// dependency is the injected conflict lookup.
package validation

import (
	"sales-reconciliation-service/internal/dates"
	"sales-reconciliation-service/internal/models"
)

// ConflictLookup answers whether another seller's submission for the same
// order number and campaign is already validated. It returns that seller's
// name, or "" when there is no conflict.
type ConflictLookup func(orderNumber string, campaignID, excludeSellerID int64) (string, error)

// Evaluate runs the full cascade for one submission and returns its outcome.
// Simulation and commit runs call this identically; persistence happens
// elsewhere, which guarantees preview and commit decide the same way.
//
// Pair policy: when a PAIR requirement locates two rows, the tax identifier,
// sale date and payout product code are read from the first row only — the
// two lines are assumed to describe one physical sale. Product-code
// conditions still inspect every located row.
//
// The returned error is reserved for conflict-lookup storage failures; every
// business decision is expressed in the Outcome.
func Evaluate(view *models.SubmissionView, rows []Row, cols *ColumnMap, format dates.Format, lookup ConflictLookup) (Outcome, error) {
	sub := view.Submission
	base := MessageContext{
		OrderNumber:   sub.OrderNumber,
		CampaignTitle: view.Campaign.Campaign.Title,
	}

	column, res := cols.OrderNumberColumn(view.Campaign.Campaign.OrderColumnType)
	if res.Failed() {
		res.Ctx.OrderNumber = base.OrderNumber
		res.Ctx.CampaignTitle = base.CampaignTitle
		return failureOutcome(res), nil
	}

	located := LocateRows(sub.OrderNumber, rows, column)
	if len(located) == 0 {
		// The sale may simply not be in this upload; it stays pending for a
		// future batch.
		return Outcome{Status: sub.Status, KeptPending: true}, nil
	}

	if res := checkCNPJ(view, located, cols, base); res.Failed() {
		return failureOutcome(res), nil
	}

	saleDate, res := checkDate(view, located, cols, format, base)
	if res.Failed() {
		return failureOutcome(res), nil
	}

	if res := checkRules(view, located, cols, base); res.Failed() {
		return failureOutcome(res), nil
	}

	code, payout, res := resolvePayout(view, located, cols, base)
	if res.Failed() {
		return failureOutcome(res), nil
	}

	other, err := lookup(sub.OrderNumber, sub.CampaignID, sub.SellerID)
	if err != nil {
		return Outcome{}, err
	}
	if other != "" {
		ctx := base
		ctx.ConflictingSeller = other
		return failureOutcome(Fail(KindCrossSellerConflict, ctx)), nil
	}

	return Outcome{
		Status:      models.StatusValidated,
		ProductCode: code,
		PayoutValue: payout,
		SaleDate:    saleDate,
	}, nil
}
