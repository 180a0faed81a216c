package validation

import (
	"fmt"
	"strconv"
	"strings"

	"sales-reconciliation-service/internal/models"
)

// Row is one spreadsheet line, keyed by column header. Cell values arrive as
// whatever the upstream parser produced (string, number, nil).
type Row map[string]any

// Cell returns the trimmed string form of the value under column. Numeric
// cells are rendered without a decimal point when they are whole, matching how
// order numbers and product codes appear in spreadsheets.
func (r Row) Cell(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// orderNumberFields is the closed configuration table from a campaign's
// order-number column type to the logical field holding the order number.
var orderNumberFields = map[string]string{
	models.OrderTypePedido:       models.FieldOrderNumber,
	models.OrderTypeNotaFiscal:   models.FieldInvoiceNum,
	models.OrderTypeOrdemServico: models.FieldServiceOrder,
}

// ColumnMap resolves logical fields to the concrete column headers of the
// uploaded spreadsheet, using the admin-supplied mapping.
type ColumnMap struct {
	mapping map[string]string
}

func NewColumnMap(mapping map[string]string) *ColumnMap {
	m := make(map[string]string, len(mapping))
	for field, column := range mapping {
		m[strings.TrimSpace(field)] = strings.TrimSpace(column)
	}
	return &ColumnMap{mapping: m}
}

// Resolve returns the column header mapped to the logical field. The second
// return distinguishes a field missing from the mapping (batch
// misconfiguration) from a mapped column whose cells happen to be empty.
func (c *ColumnMap) Resolve(field string) (string, bool) {
	column, ok := c.mapping[field]
	if !ok || column == "" {
		return "", false
	}
	return column, true
}

// OrderNumberColumn resolves the column that identifies the order number for
// a campaign's order-number column type.
func (c *ColumnMap) OrderNumberColumn(orderType string) (string, StageResult) {
	field, ok := orderNumberFields[orderType]
	if !ok {
		return "", Fail(KindOrderTypeUnknown, MessageContext{Field: orderType})
	}
	column, ok := c.Resolve(field)
	if !ok {
		return "", Fail(KindColumnUnmapped, MessageContext{Field: field})
	}
	return column, Continue()
}

// LocateRows collects every row whose trimmed value in the order-number
// column equals orderNumber exactly. String equality: "0100" and "100" are
// different orders.
func LocateRows(orderNumber string, rows []Row, column string) []Row {
	orderNumber = strings.TrimSpace(orderNumber)
	var located []Row
	for _, row := range rows {
		if row.Cell(column) == orderNumber {
			located = append(located, row)
		}
	}
	return located
}
