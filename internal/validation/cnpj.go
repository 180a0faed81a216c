package validation

import (
	"sales-reconciliation-service/internal/models"
)

// checkCNPJ validates the tax identifier of the located sale against the
// seller's optic, accepting a match on either the optic itself or its matriz.
// The identifier is read from the first located row.
func checkCNPJ(view *models.SubmissionView, rows []Row, cols *ColumnMap, base MessageContext) StageResult {
	sellerTaxID := view.Seller.TaxID()
	if sellerTaxID == "" {
		return Fail(KindIDNotRegistered, base)
	}

	column, ok := cols.Resolve(models.FieldCNPJOtica)
	if !ok {
		ctx := base
		ctx.Field = models.FieldCNPJOtica
		return Fail(KindColumnUnmapped, ctx)
	}

	raw := rows[0].Cell(column)
	if raw == "" {
		ctx := base
		ctx.Column = column
		return Fail(KindIDNotFoundInRow, ctx)
	}

	normalized := NormalizeTaxID(raw)
	if len(normalized) != 14 {
		ctx := base
		ctx.Column = column
		ctx.RowValue = raw
		return Fail(KindIDInvalidFormat, ctx)
	}

	if normalized == sellerTaxID {
		return Continue()
	}
	if parent := view.Seller.ParentTaxID(); parent != "" && normalized == parent {
		return Continue()
	}

	ctx := base
	ctx.Column = column
	ctx.RowValue = normalized
	ctx.SellerTaxID = sellerTaxID
	ctx.ParentTaxID = view.Seller.ParentTaxID()
	return Fail(KindIDMismatch, ctx)
}
