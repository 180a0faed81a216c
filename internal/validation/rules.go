package validation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

// checkRules runs the requirement's quantity/type constraint and its
// condition list against the located rows. Conditions are ANDed; the first
// failure terminates.
func checkRules(view *models.SubmissionView, rows []Row, cols *ColumnMap, base MessageContext) StageResult {
	req := view.Requirement

	expected, kind := 1, KindQtyUnitMismatch
	if req.UnitType == models.UnitTypePair {
		expected, kind = 2, KindQtyPairMismatch
	}
	if len(rows) != expected {
		ctx := base
		ctx.FoundRows = len(rows)
		ctx.ExpectedRows = expected
		return Fail(kind, ctx)
	}

	for _, cond := range req.Conditions {
		if res := checkCondition(view, cond, rows, cols, base); res.Failed() {
			return res
		}
	}
	return Continue()
}

func checkCondition(view *models.SubmissionView, cond *models.Condition, rows []Row, cols *ColumnMap, base MessageContext) StageResult {
	column, ok := cols.Resolve(cond.Field)
	if !ok {
		ctx := base
		ctx.Field = cond.Field
		return Fail(KindRuleColumnUnmapped, ctx)
	}

	// Product-code conditions check every located row: partial catalog
	// presence is not acceptable.
	if cond.Field == models.FieldProductCode {
		for _, row := range rows {
			code := row.Cell(column)
			if code == "" {
				continue
			}
			if _, found := view.Campaign.Catalog[code]; !found {
				ctx := base
				ctx.Column = column
				ctx.ProductCode = code
				return Fail(KindProductNotInCatalog, ctx)
			}
		}
		return Continue()
	}

	actual := rows[0].Cell(column)
	expected := strings.TrimSpace(cond.Expected)

	satisfied := false
	switch cond.Operator {
	case models.OperatorEquals:
		satisfied = actual == expected
	case models.OperatorNotEquals:
		satisfied = actual != expected
	case models.OperatorContains:
		satisfied = strings.Contains(actual, expected)
	case models.OperatorNotContains:
		satisfied = !strings.Contains(actual, expected)
	case models.OperatorGreaterThan, models.OperatorLessThan:
		a, errA := strconv.ParseFloat(strings.ReplaceAll(actual, ",", "."), 64)
		e, errE := strconv.ParseFloat(strings.ReplaceAll(expected, ",", "."), 64)
		if errA == nil && errE == nil {
			if cond.Operator == models.OperatorGreaterThan {
				satisfied = a > e
			} else {
				satisfied = a < e
			}
		}
	default:
		ctx := base
		ctx.Field = cond.Field
		ctx.Operator = cond.Operator
		return Fail(KindRuleUnknownOperator, ctx)
	}

	if !satisfied {
		ctx := base
		ctx.Field = cond.Field
		ctx.Column = column
		ctx.Operator = cond.Operator
		ctx.Expected = expected
		ctx.Actual = actual
		return Fail(KindRuleNotSatisfied, ctx)
	}
	return Continue()
}

// resolvePayout determines the product code and payout value to persist with
// a validated submission, from the first located row's product-code cell. A
// code absent from the catalog here is an admin data gap and routes to
// CONFLICT, not REJECTED.
func resolvePayout(view *models.SubmissionView, rows []Row, cols *ColumnMap, base MessageContext) (string, decimal.Decimal, StageResult) {
	column, ok := cols.Resolve(models.FieldProductCode)
	if !ok {
		ctx := base
		ctx.Field = models.FieldProductCode
		return "", decimal.Zero, Fail(KindColumnUnmapped, ctx)
	}

	code := rows[0].Cell(column)
	payout, found := view.Campaign.Catalog[code]
	if code == "" || !found {
		ctx := base
		ctx.Column = column
		ctx.ProductCode = code
		return "", decimal.Zero, Fail(KindPayoutCodeUnregistered, ctx)
	}
	return code, payout, Continue()
}
