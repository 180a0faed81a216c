package validation

import (
	"time"

	"sales-reconciliation-service/internal/dates"
	"sales-reconciliation-service/internal/models"
)

const dateDisplay = "02/01/2006"

// checkDate parses the sale date from the first located row and checks it
// against the campaign window. On success the parsed date is carried forward
// for persistence.
func checkDate(view *models.SubmissionView, rows []Row, cols *ColumnMap, format dates.Format, base MessageContext) (time.Time, StageResult) {
	column, ok := cols.Resolve(models.FieldSaleDate)
	if !ok {
		// Batch-level misconfiguration, not an empty cell.
		ctx := base
		ctx.Field = models.FieldSaleDate
		return time.Time{}, Fail(KindDateColumnUnmapped, ctx)
	}

	raw := rows[0].Cell(column)
	if raw == "" {
		ctx := base
		ctx.Column = column
		return time.Time{}, Fail(KindDateEmpty, ctx)
	}

	sale, ok := dates.Parse(raw, format)
	if !ok {
		ctx := base
		ctx.Column = column
		ctx.RowValue = raw
		return time.Time{}, Fail(KindDateUnparseable, ctx)
	}

	campaign := view.Campaign.Campaign
	if dates.BeforeStart(sale, campaign.StartsAt) || dates.AfterEnd(sale, campaign.EndsAt) {
		ctx := base
		ctx.SaleDate = sale.Format(dateDisplay)
		ctx.WindowStart = campaign.StartsAt.Format(dateDisplay)
		ctx.WindowEnd = campaign.EndsAt.Format(dateDisplay)
		ctx.BeforeStart = dates.BeforeStart(sale, campaign.StartsAt)
		return time.Time{}, Fail(KindDateOutOfRange, ctx)
	}

	return sale, Continue()
}
