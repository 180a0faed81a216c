package validation

import (
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

// FailureKind identifies why a stage terminated the cascade. Each kind owns
// one entry in the message registry.
type FailureKind string

const (
	KindOrderTypeUnknown FailureKind = "ORDER_TYPE_UNKNOWN"
	KindColumnUnmapped   FailureKind = "COLUMN_UNMAPPED"

	KindIDNotRegistered FailureKind = "ID_NOT_REGISTERED"
	KindIDNotFoundInRow FailureKind = "ID_NOT_FOUND_IN_ROW"
	KindIDInvalidFormat FailureKind = "ID_INVALID_FORMAT"
	KindIDMismatch      FailureKind = "ID_MISMATCH"

	KindDateColumnUnmapped FailureKind = "DATE_COLUMN_UNMAPPED"
	KindDateEmpty          FailureKind = "DATE_EMPTY"
	KindDateUnparseable    FailureKind = "DATE_UNPARSEABLE"
	KindDateOutOfRange     FailureKind = "DATE_OUT_OF_RANGE"

	KindQtyPairMismatch     FailureKind = "QTY_PAIR_MISMATCH"
	KindQtyUnitMismatch     FailureKind = "QTY_UNIT_MISMATCH"
	KindRuleColumnUnmapped  FailureKind = "RULE_COLUMN_UNMAPPED"
	KindRuleUnknownOperator FailureKind = "RULE_UNKNOWN_OPERATOR"
	KindRuleNotSatisfied    FailureKind = "RULE_NOT_SATISFIED"
	KindProductNotInCatalog FailureKind = "PRODUCT_NOT_IN_CATALOG"

	KindPayoutCodeUnregistered FailureKind = "PAYOUT_CODE_UNREGISTERED"
	KindCrossSellerConflict    FailureKind = "CROSS_SELLER_CONFLICT"
)

// Status returns the submission status a failure of this kind decides.
// Catalog gaps and cross-seller conflicts need manual admin review and map to
// CONFLICT; everything else is a plain rejection of the sale data.
func (k FailureKind) Status() string {
	switch k {
	case KindPayoutCodeUnregistered, KindCrossSellerConflict:
		return models.StatusConflict
	default:
		return models.StatusRejected
	}
}

// MessageContext carries the diagnostic values a message template may use.
// Stages fill only the fields relevant to their failure kind.
type MessageContext struct {
	OrderNumber   string
	CampaignTitle string

	Field  string
	Column string

	RowValue    string
	SellerTaxID string
	ParentTaxID string

	SaleDate    string
	WindowStart string
	WindowEnd   string
	BeforeStart bool

	Operator string
	Expected string
	Actual   string

	ProductCode string

	FoundRows    int
	ExpectedRows int

	ConflictingSeller string
}

type verdict int

const (
	verdictContinue verdict = iota
	verdictFail
)

// StageResult is the tagged outcome of one cascade stage: carry on, or
// terminate with a failure kind and its message context.
type StageResult struct {
	verdict verdict
	Kind    FailureKind
	Ctx     MessageContext
}

func Continue() StageResult {
	return StageResult{verdict: verdictContinue}
}

func Fail(kind FailureKind, ctx MessageContext) StageResult {
	return StageResult{verdict: verdictFail, Kind: kind, Ctx: ctx}
}

func (r StageResult) Failed() bool { return r.verdict == verdictFail }

// Outcome is the final decision for one submission in one run. For validated
// submissions it carries the values the persistence step will store.
type Outcome struct {
	Status              string          `json:"status"`
	Kind                FailureKind     `json:"kind,omitempty"`
	TechnicalMessage    string          `json:"technical_message,omitempty"`
	CounterpartyMessage string          `json:"counterparty_message,omitempty"`
	KeptPending         bool            `json:"kept_pending,omitempty"`
	ProductCode         string          `json:"product_code,omitempty"`
	PayoutValue         decimal.Decimal `json:"payout_value,omitempty"`
	SaleDate            time.Time       `json:"sale_date,omitempty"`
}

func failureOutcome(r StageResult) Outcome {
	technical, counterparty := Messages(r.Kind, r.Ctx)
	return Outcome{
		Status:              r.Kind.Status(),
		Kind:                r.Kind,
		TechnicalMessage:    technical,
		CounterpartyMessage: counterparty,
	}
}
