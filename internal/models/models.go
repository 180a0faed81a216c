package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Submission statuses. VALIDATED is terminal: a validated submission is never
// re-selected for reconciliation.
const (
	StatusPending   = "PENDING"
	StatusRejected  = "REJECTED"
	StatusConflict  = "CONFLICT"
	StatusValidated = "VALIDATED"
)

// Requirement unit types. PAIR expects exactly two spreadsheet rows per sale,
// UNIT exactly one.
const (
	UnitTypePair = "PAIR"
	UnitTypeUnit = "UNIT"
)

// Condition operators.
const (
	OperatorEquals      = "equals"
	OperatorNotEquals   = "not_equals"
	OperatorContains    = "contains"
	OperatorNotContains = "not_contains"
	OperatorGreaterThan = "greater_than"
	OperatorLessThan    = "less_than"
)

// Order-number column types configured per campaign. Each one selects which
// logical field of the column mapping identifies the order number.
const (
	OrderTypePedido       = "PEDIDO"
	OrderTypeNotaFiscal   = "NOTA_FISCAL"
	OrderTypeOrdemServico = "ORDEM_SERVICO"
)

// Logical spreadsheet fields. Admins map these to the concrete column headers
// of each uploaded spreadsheet; the engine never reads headers directly.
const (
	FieldCNPJOtica    = "CNPJ_OTICA"
	FieldSaleDate     = "DATA_VENDA"
	FieldProductCode  = "CODIGO_PRODUTO"
	FieldOrderNumber  = "NUMERO_PEDIDO"
	FieldInvoiceNum   = "NUMERO_NOTA"
	FieldServiceOrder = "NUMERO_OS"
)

// Submission is a pending sale report awaiting reconciliation against an
// uploaded spreadsheet batch.
type Submission struct {
	ID                  int64               `db:"id" json:"id"`
	OrderNumber         string              `db:"order_number" json:"order_number"`
	SellerID            int64               `db:"seller_id" json:"seller_id"`
	CampaignID          int64               `db:"campaign_id" json:"campaign_id"`
	RequirementID       int64               `db:"requirement_id" json:"requirement_id"`
	Status              string              `db:"status" json:"status"`
	TechnicalMessage    sql.NullString      `db:"technical_message" json:"-"`
	CounterpartyMessage sql.NullString      `db:"counterparty_message" json:"-"`
	ProductCode         sql.NullString      `db:"product_code" json:"product_code,omitempty"`
	PayoutValue         decimal.NullDecimal `db:"payout_value" json:"payout_value,omitempty"`
	SaleDate            sql.NullTime        `db:"sale_date" json:"sale_date,omitempty"`
	SlotNumber          sql.NullInt64       `db:"slot_number" json:"slot_number,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"-"`
	UpdatedAt           time.Time           `db:"updated_at" json:"-"`
}

// Requirement belongs to a reward-tier ("cartela") definition. Requirements
// repeated across tiers share an ordering key, which pools them for spillover
// slot numbering.
type Requirement struct {
	ID          int64        `db:"id" json:"id"`
	CampaignID  int64        `db:"campaign_id" json:"campaign_id"`
	Quantity    int          `db:"quantity" json:"quantity"`
	UnitType    string       `db:"unit_type" json:"unit_type"`
	OrderingKey string       `db:"ordering_key" json:"ordering_key"`
	Description string       `db:"description" json:"description"`
	Conditions  []*Condition `json:"conditions,omitempty"`
}

// Condition is a field/operator/expected triple evaluated against located
// spreadsheet rows.
type Condition struct {
	ID            int64  `db:"id" json:"id"`
	RequirementID int64  `db:"requirement_id" json:"requirement_id"`
	Field         string `db:"field" json:"field"`
	Operator      string `db:"operator" json:"operator"`
	Expected      string `db:"expected" json:"expected"`
}

// Campaign carries the active window and the order-number column type used to
// locate sales in the uploaded batch.
type Campaign struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	StartsAt        time.Time `db:"starts_at" json:"starts_at"`
	EndsAt          time.Time `db:"ends_at" json:"ends_at"`
	OrderColumnType string    `db:"order_column_type" json:"order_column_type"`
}

// ProductCatalogEntry maps a product reference code to its payout value within
// one campaign.
type ProductCatalogEntry struct {
	ID          int64           `db:"id" json:"id"`
	CampaignID  int64           `db:"campaign_id" json:"campaign_id"`
	ProductCode string          `db:"product_code" json:"product_code"`
	PayoutValue decimal.Decimal `db:"payout_value" json:"payout_value"`
}

// Optic is the optics entity a seller belongs to. CNPJ is stored normalized
// (digits only); ParentOpticID points at the matriz when the optic is a branch.
type Optic struct {
	ID            int64          `db:"id" json:"id"`
	TradeName     string         `db:"trade_name" json:"trade_name"`
	CNPJ          sql.NullString `db:"cnpj" json:"cnpj"`
	ParentOpticID sql.NullInt64  `db:"parent_optic_id" json:"parent_optic_id"`
}

// Seller reports sales on behalf of its optic.
type Seller struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	OpticID int64  `db:"optic_id" json:"optic_id"`
}

// SellerView is the seller projection handed to the validators: the seller,
// its optic and, when the optic is a branch, the parent optic.
type SellerView struct {
	Seller      *Seller `json:"seller"`
	Optic       *Optic  `json:"optic"`
	ParentOptic *Optic  `json:"parent_optic,omitempty"`
}

// TaxID returns the optic's normalized tax identifier, or "" when missing.
func (v *SellerView) TaxID() string {
	if v.Optic == nil || !v.Optic.CNPJ.Valid {
		return ""
	}
	return v.Optic.CNPJ.String
}

// ParentTaxID returns the parent optic's normalized tax identifier, or ""
// when the optic has no parent or the parent has no identifier.
func (v *SellerView) ParentTaxID() string {
	if v.ParentOptic == nil || !v.ParentOptic.CNPJ.Valid {
		return ""
	}
	return v.ParentOptic.CNPJ.String
}

// CampaignView is the campaign projection assembled once per run: the
// campaign, its requirements with conditions, and the product catalog keyed by
// code.
type CampaignView struct {
	Campaign     *Campaign                  `json:"campaign"`
	Requirements []*Requirement             `json:"requirements"`
	Catalog      map[string]decimal.Decimal `json:"catalog"`
}

// RequirementByID returns the hydrated requirement, or nil when the campaign
// does not carry it.
func (v *CampaignView) RequirementByID(id int64) *Requirement {
	for _, r := range v.Requirements {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SubmissionView is the per-submission read model passed through the
// validation cascade. It is assembled before validation so the validators
// never touch storage.
type SubmissionView struct {
	Submission  *Submission   `json:"submission"`
	Seller      *SellerView   `json:"seller"`
	Campaign    *CampaignView `json:"campaign"`
	Requirement *Requirement  `json:"requirement"`
}

// ReconciliationRun is the history record of one non-simulation batch run.
// Created once at the end of a run, never mutated.
type ReconciliationRun struct {
	ID               int64           `db:"id" json:"id"`
	RunID            string          `db:"run_id" json:"run_id"`
	CampaignSelector string          `db:"campaign_selector" json:"campaign_selector"`
	TotalProcessed   int             `db:"total_processed" json:"total_processed"`
	Validated        int             `db:"validated" json:"validated"`
	Rejected         int             `db:"rejected" json:"rejected"`
	Conflict         int             `db:"conflict" json:"conflict"`
	KeptPending      int             `db:"kept_pending" json:"kept_pending"`
	Revalidated      int             `db:"revalidated" json:"revalidated"`
	Details          json.RawMessage `db:"details" json:"details"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}
