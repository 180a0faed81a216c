package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-reconciliation-service/internal/models"
)

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "12345678000190", NormalizeTaxID("12.345.678/0001-90"))
	assert.Equal(t, "12345678000190", NormalizeTaxID("12345678000190"))
	assert.Equal(t, "", NormalizeTaxID("  - / . "))
	assert.Equal(t, "", NormalizeTaxID(""))
}

func TestColumnMap_Resolve(t *testing.T) {
	cols := NewColumnMap(map[string]string{
		models.FieldCNPJOtica: "CNPJ da Loja",
		models.FieldSaleDate:  "",
		" PADDED ":            " Col ",
	})

	column, ok := cols.Resolve(models.FieldCNPJOtica)
	require.True(t, ok)
	assert.Equal(t, "CNPJ da Loja", column)

	_, ok = cols.Resolve(models.FieldSaleDate)
	assert.False(t, ok, "a field mapped to an empty column counts as unmapped")

	_, ok = cols.Resolve(models.FieldProductCode)
	assert.False(t, ok)

	column, ok = cols.Resolve("PADDED")
	require.True(t, ok)
	assert.Equal(t, "Col", column)
}

func TestColumnMap_OrderNumberColumn(t *testing.T) {
	cols := NewColumnMap(map[string]string{
		models.FieldOrderNumber:  "Pedido",
		models.FieldInvoiceNum:   "Nota Fiscal",
		models.FieldServiceOrder: "OS",
	})

	tests := []struct {
		orderType string
		want      string
	}{
		{models.OrderTypePedido, "Pedido"},
		{models.OrderTypeNotaFiscal, "Nota Fiscal"},
		{models.OrderTypeOrdemServico, "OS"},
	}
	for _, tt := range tests {
		column, res := cols.OrderNumberColumn(tt.orderType)
		require.False(t, res.Failed())
		assert.Equal(t, tt.want, column)
	}

	_, res := cols.OrderNumberColumn("CUPOM")
	require.True(t, res.Failed())
	assert.Equal(t, KindOrderTypeUnknown, res.Kind)

	_, res = NewColumnMap(nil).OrderNumberColumn(models.OrderTypePedido)
	require.True(t, res.Failed())
	assert.Equal(t, KindColumnUnmapped, res.Kind)
}

func TestLocateRows(t *testing.T) {
	rows := []Row{
		{"Pedido": "#100"},
		{"Pedido": " #100 "},
		{"Pedido": "#200"},
		{"Pedido": "0100"},
		{"Pedido": 100.0},
		{"Pedido": nil},
	}

	located := LocateRows("#100", rows, "Pedido")
	assert.Len(t, located, 2, "trimmed exact equality")

	located = LocateRows("100", rows, "Pedido")
	assert.Len(t, located, 1, "numeric cells render without decimals; \"0100\" stays distinct")

	located = LocateRows("#999", rows, "Pedido")
	assert.Empty(t, located)
}

func TestRowCell(t *testing.T) {
	row := Row{
		"str":   "  abc  ",
		"whole": 42.0,
		"frac":  1.5,
		"int":   7,
		"nil":   nil,
	}
	assert.Equal(t, "abc", row.Cell("str"))
	assert.Equal(t, "42", row.Cell("whole"))
	assert.Equal(t, "1.5", row.Cell("frac"))
	assert.Equal(t, "7", row.Cell("int"))
	assert.Equal(t, "", row.Cell("nil"))
	assert.Equal(t, "", row.Cell("absent"))
}
