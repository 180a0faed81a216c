package validation

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-reconciliation-service/internal/dates"
	"sales-reconciliation-service/internal/models"
)

const (
	testSellerCNPJ = "12345678000190"
	testParentCNPJ = "98765432000155"
)

func noConflict(string, int64, int64) (string, error) { return "", nil }

func testMapping() map[string]string {
	return map[string]string{
		models.FieldOrderNumber: "Pedido",
		models.FieldCNPJOtica:   "CNPJ da Loja",
		models.FieldSaleDate:    "Data da Venda",
		models.FieldProductCode: "Código do Produto",
	}
}

func testRow(order, cnpj, date, code string) Row {
	return Row{
		"Pedido":            order,
		"CNPJ da Loja":      cnpj,
		"Data da Venda":     date,
		"Código do Produto": code,
	}
}

// testView builds a UNIT-requirement submission for order "#100" in a June
// 2024 campaign whose catalog carries SKU-100 at 50.00.
func testView() *models.SubmissionView {
	campaign := &models.Campaign{
		ID:              1,
		Title:           "Campanha Lentes Premium",
		StartsAt:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:          time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		OrderColumnType: models.OrderTypePedido,
	}
	requirement := &models.Requirement{
		ID:          10,
		CampaignID:  1,
		Quantity:    1,
		UnitType:    models.UnitTypeUnit,
		OrderingKey: "cartela-premium",
		Description: "1 lente premium",
	}
	return &models.SubmissionView{
		Submission: &models.Submission{
			ID:            100,
			OrderNumber:   "#100",
			SellerID:      7,
			CampaignID:    1,
			RequirementID: 10,
			Status:        models.StatusPending,
		},
		Seller: &models.SellerView{
			Seller: &models.Seller{ID: 7, Name: "João Almeida", OpticID: 3},
			Optic: &models.Optic{
				ID:        3,
				TradeName: "Ótica Visão Clara",
				CNPJ:      sql.NullString{String: testSellerCNPJ, Valid: true},
			},
		},
		Campaign: &models.CampaignView{
			Campaign:     campaign,
			Requirements: []*models.Requirement{requirement},
			Catalog: map[string]decimal.Decimal{
				"SKU-100": decimal.NewFromFloat(50.00),
				"SKU-200": decimal.NewFromFloat(35.00),
			},
		},
		Requirement: requirement,
	}
}

func evaluate(t *testing.T, view *models.SubmissionView, rows []Row, lookup ConflictLookup) Outcome {
	t.Helper()
	outcome, err := Evaluate(view, rows, NewColumnMap(testMapping()), dates.FormatDMY, lookup)
	require.NoError(t, err)
	return outcome
}

func TestEvaluate_ValidatesMatchingSale(t *testing.T) {
	view := testView()
	rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusValidated, outcome.Status)
	assert.Equal(t, "SKU-100", outcome.ProductCode)
	assert.True(t, outcome.PayoutValue.Equal(decimal.NewFromFloat(50.00)))
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), outcome.SaleDate)
	assert.Empty(t, outcome.TechnicalMessage)
}

func TestEvaluate_NormalizesFormattedCNPJ(t *testing.T) {
	view := testView()
	rows := []Row{testRow("#100", "12.345.678/0001-90", "15/06/2024", "SKU-100")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusValidated, outcome.Status)
}

func TestEvaluate_ParentCNPJMatch(t *testing.T) {
	view := testView()
	view.Seller.ParentOptic = &models.Optic{
		ID:        4,
		TradeName: "Ótica Visão Clara Matriz",
		CNPJ:      sql.NullString{String: testParentCNPJ, Valid: true},
	}
	rows := []Row{testRow("#100", testParentCNPJ, "15/06/2024", "SKU-100")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusValidated, outcome.Status)
}

func TestEvaluate_CNPJFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(view *models.SubmissionView)
		rowCNPJ  string
		wantKind FailureKind
	}{
		{
			name:     "optic without registered cnpj",
			mutate:   func(v *models.SubmissionView) { v.Seller.Optic.CNPJ = sql.NullString{} },
			rowCNPJ:  testSellerCNPJ,
			wantKind: KindIDNotRegistered,
		},
		{
			name:     "empty cnpj cell",
			mutate:   func(*models.SubmissionView) {},
			rowCNPJ:  "",
			wantKind: KindIDNotFoundInRow,
		},
		{
			name:     "not fourteen digits",
			mutate:   func(*models.SubmissionView) {},
			rowCNPJ:  "12.345.678/0001",
			wantKind: KindIDInvalidFormat,
		},
		{
			name:     "mismatch with no parent",
			mutate:   func(*models.SubmissionView) {},
			rowCNPJ:  testParentCNPJ,
			wantKind: KindIDMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := testView()
			tt.mutate(view)
			rows := []Row{testRow("#100", tt.rowCNPJ, "15/06/2024", "SKU-100")}

			outcome := evaluate(t, view, rows, noConflict)

			assert.Equal(t, models.StatusRejected, outcome.Status)
			assert.Equal(t, tt.wantKind, outcome.Kind)
			assert.NotEmpty(t, outcome.TechnicalMessage)
			assert.NotEmpty(t, outcome.CounterpartyMessage)
		})
	}
}

func TestEvaluate_OrderNotFound_KeepsPending(t *testing.T) {
	view := testView()
	view.Submission.Status = models.StatusRejected
	rows := []Row{testRow("#999", testSellerCNPJ, "15/06/2024", "SKU-100")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.True(t, outcome.KeptPending)
	assert.Equal(t, models.StatusRejected, outcome.Status, "prior status stands")
	assert.Empty(t, outcome.TechnicalMessage)
	assert.Empty(t, outcome.CounterpartyMessage)
}

func TestEvaluate_DateBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		date        string
		wantStatus  string
		beforeStart bool
	}{
		{"on campaign start", "01/06/2024", models.StatusValidated, false},
		{"on campaign end", "30/06/2024", models.StatusValidated, false},
		{"one day before start", "31/05/2024", models.StatusRejected, true},
		{"one day after end", "01/07/2024", models.StatusRejected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := testView()
			rows := []Row{testRow("#100", testSellerCNPJ, tt.date, "SKU-100")}

			outcome := evaluate(t, view, rows, noConflict)

			assert.Equal(t, tt.wantStatus, outcome.Status)
			if tt.wantStatus == models.StatusRejected {
				assert.Equal(t, KindDateOutOfRange, outcome.Kind)
				if tt.beforeStart {
					assert.Contains(t, outcome.TechnicalMessage, "before the campaign start")
					assert.Contains(t, outcome.CounterpartyMessage, "antes do início")
				} else {
					assert.Contains(t, outcome.TechnicalMessage, "after the campaign end")
					assert.Contains(t, outcome.CounterpartyMessage, "após o encerramento")
				}
			}
		})
	}
}

func TestEvaluate_DateFailureKinds(t *testing.T) {
	t.Run("unmapped date column is a batch misconfiguration", func(t *testing.T) {
		view := testView()
		mapping := testMapping()
		delete(mapping, models.FieldSaleDate)
		rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")}

		outcome, err := Evaluate(view, rows, NewColumnMap(mapping), dates.FormatDMY, noConflict)
		require.NoError(t, err)

		assert.Equal(t, KindDateColumnUnmapped, outcome.Kind)
	})

	t.Run("empty date cell is a per-row absence", func(t *testing.T) {
		view := testView()
		rows := []Row{testRow("#100", testSellerCNPJ, "", "SKU-100")}

		outcome := evaluate(t, view, rows, noConflict)

		assert.Equal(t, KindDateEmpty, outcome.Kind)
	})

	t.Run("unparseable date", func(t *testing.T) {
		view := testView()
		rows := []Row{testRow("#100", testSellerCNPJ, "31/04/2024", "SKU-100")}

		outcome := evaluate(t, view, rows, noConflict)

		assert.Equal(t, KindDateUnparseable, outcome.Kind)
	})
}

func pairView() *models.SubmissionView {
	view := testView()
	view.Requirement.Quantity = 2
	view.Requirement.UnitType = models.UnitTypePair
	return view
}

func TestEvaluate_PairRequiresExactlyTwoRows(t *testing.T) {
	row := func() Row { return testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100") }

	t.Run("one row rejects", func(t *testing.T) {
		outcome := evaluate(t, pairView(), []Row{row()}, noConflict)
		assert.Equal(t, models.StatusRejected, outcome.Status)
		assert.Equal(t, KindQtyPairMismatch, outcome.Kind)
	})

	t.Run("three rows reject", func(t *testing.T) {
		outcome := evaluate(t, pairView(), []Row{row(), row(), row()}, noConflict)
		assert.Equal(t, KindQtyPairMismatch, outcome.Kind)
	})

	t.Run("exactly two rows proceed", func(t *testing.T) {
		outcome := evaluate(t, pairView(), []Row{row(), row()}, noConflict)
		assert.Equal(t, models.StatusValidated, outcome.Status)
	})
}

func TestEvaluate_UnitRequiresExactlyOneRow(t *testing.T) {
	view := testView()
	row := testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")

	outcome := evaluate(t, view, []Row{row, row}, noConflict)

	assert.Equal(t, models.StatusRejected, outcome.Status)
	assert.Equal(t, KindQtyUnitMismatch, outcome.Kind)
}

func TestEvaluate_Conditions(t *testing.T) {
	withCondition := func(field, operator, expected string) *models.SubmissionView {
		view := testView()
		view.Requirement.Conditions = []*models.Condition{
			{RequirementID: view.Requirement.ID, Field: field, Operator: operator, Expected: expected},
		}
		return view
	}
	mapping := testMapping()
	mapping["TIPO_LENTE"] = "Tipo"
	mapping["VALOR_VENDA"] = "Valor"

	run := func(t *testing.T, view *models.SubmissionView, row Row) Outcome {
		t.Helper()
		outcome, err := Evaluate(view, []Row{row}, NewColumnMap(mapping), dates.FormatDMY, noConflict)
		require.NoError(t, err)
		return outcome
	}
	baseRow := func() Row {
		row := testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")
		row["Tipo"] = "multifocal"
		row["Valor"] = 350.0
		return row
	}

	t.Run("equals satisfied", func(t *testing.T) {
		outcome := run(t, withCondition("TIPO_LENTE", models.OperatorEquals, "multifocal"), baseRow())
		assert.Equal(t, models.StatusValidated, outcome.Status)
	})

	t.Run("equals not satisfied", func(t *testing.T) {
		outcome := run(t, withCondition("TIPO_LENTE", models.OperatorEquals, "bifocal"), baseRow())
		assert.Equal(t, KindRuleNotSatisfied, outcome.Kind)
	})

	t.Run("greater than on numeric cell", func(t *testing.T) {
		outcome := run(t, withCondition("VALOR_VENDA", models.OperatorGreaterThan, "300"), baseRow())
		assert.Equal(t, models.StatusValidated, outcome.Status)
	})

	t.Run("less than fails when value is higher", func(t *testing.T) {
		outcome := run(t, withCondition("VALOR_VENDA", models.OperatorLessThan, "300"), baseRow())
		assert.Equal(t, KindRuleNotSatisfied, outcome.Kind)
	})

	t.Run("unknown operator is its own kind", func(t *testing.T) {
		outcome := run(t, withCondition("TIPO_LENTE", "matches", "multifocal"), baseRow())
		assert.Equal(t, KindRuleUnknownOperator, outcome.Kind)
	})

	t.Run("unmapped condition field is its own kind", func(t *testing.T) {
		outcome := run(t, withCondition("CAMPO_INEXISTENTE", models.OperatorEquals, "x"), baseRow())
		assert.Equal(t, KindRuleColumnUnmapped, outcome.Kind)
	})
}

func TestEvaluate_ProductConditionChecksEveryRow(t *testing.T) {
	view := pairView()
	view.Requirement.Conditions = []*models.Condition{
		{RequirementID: view.Requirement.ID, Field: models.FieldProductCode, Operator: models.OperatorEquals, Expected: ""},
	}
	rows := []Row{
		testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100"),
		testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-999"),
	}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusRejected, outcome.Status)
	assert.Equal(t, KindProductNotInCatalog, outcome.Kind)
	assert.Contains(t, outcome.TechnicalMessage, "SKU-999")
}

func TestEvaluate_PayoutGapRoutesToConflict(t *testing.T) {
	view := testView()
	rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-UNKNOWN")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusConflict, outcome.Status, "catalog gap needs admin review, not a sale-data rejection")
	assert.Equal(t, KindPayoutCodeUnregistered, outcome.Kind)
}

func TestEvaluate_ConflictPrecedence(t *testing.T) {
	view := testView()
	rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")}
	lookup := func(orderNumber string, campaignID, excludeSellerID int64) (string, error) {
		assert.Equal(t, "#100", orderNumber)
		assert.Equal(t, int64(1), campaignID)
		assert.Equal(t, int64(7), excludeSellerID)
		return "Maria Souza", nil
	}

	outcome, err := Evaluate(view, rows, NewColumnMap(testMapping()), dates.FormatDMY, lookup)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConflict, outcome.Status)
	assert.Equal(t, KindCrossSellerConflict, outcome.Kind)
	assert.Contains(t, outcome.TechnicalMessage, "Maria Souza")
	assert.NotContains(t, outcome.CounterpartyMessage, "Maria", "counterparty message must not leak the other seller")
}

func TestEvaluate_PairUsesFirstRowForDate(t *testing.T) {
	// Explicit policy: a pair's two lines are assumed to describe one sale,
	// so the date comes from the first located row.
	view := pairView()
	rows := []Row{
		testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100"),
		testRow("#100", testSellerCNPJ, "15/07/2024", "SKU-100"),
	}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusValidated, outcome.Status)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), outcome.SaleDate)
}

func TestEvaluate_UnknownOrderType(t *testing.T) {
	view := testView()
	view.Campaign.Campaign.OrderColumnType = "CUPOM"
	rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")}

	outcome := evaluate(t, view, rows, noConflict)

	assert.Equal(t, models.StatusRejected, outcome.Status)
	assert.Equal(t, KindOrderTypeUnknown, outcome.Kind)
}

func TestEvaluate_LookupErrorPropagates(t *testing.T) {
	view := testView()
	rows := []Row{testRow("#100", testSellerCNPJ, "15/06/2024", "SKU-100")}
	lookupErr := errors.New("connection lost")
	lookup := func(string, int64, int64) (string, error) { return "", lookupErr }

	_, err := Evaluate(view, rows, NewColumnMap(testMapping()), dates.FormatDMY, lookup)

	assert.ErrorIs(t, err, lookupErr)
}
