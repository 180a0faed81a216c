package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sales-reconciliation-service/internal/dates"
	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/repositories"
	"sales-reconciliation-service/internal/rewards"
	"sales-reconciliation-service/internal/validation"
)

// SelectorAllActive selects every campaign whose window contains the run
// instant.
const SelectorAllActive = "ALL_ACTIVE"

// commit retry policy for the per-submission validated transaction. The
// reward engine is idempotent-safe at transaction-start granularity, so the
// whole transaction can be retried after a rollback.
const (
	commitRetryInterval = 200 * time.Millisecond
	commitMaxRetries    = 2
)

// BatchRequest is one reconciliation run over an uploaded spreadsheet already
// parsed into rows.
type BatchRequest struct {
	CampaignSelector string            `json:"campaign_selector"`
	Simulate         bool              `json:"simulate"`
	ColumnMapping    map[string]string `json:"column_mapping"`
	Rows             []validation.Row  `json:"rows"`
	DateFormat       string            `json:"date_format,omitempty"`
}

// OutcomeDetail is the per-submission entry of a batch response. Technical
// messages are for operator audit surfaces only; the submitting seller sees
// the counterparty message.
type OutcomeDetail struct {
	SubmissionID        int64            `json:"submission_id"`
	OrderNumber         string           `json:"order_number"`
	Status              string           `json:"status"`
	KeptPending         bool             `json:"kept_pending,omitempty"`
	TechnicalMessage    string           `json:"technical_message,omitempty"`
	CounterpartyMessage string           `json:"counterparty_message,omitempty"`
	SellerSummary       string           `json:"seller_summary,omitempty"`
	OpticsSummary       string           `json:"optics_summary,omitempty"`
	CampaignSummary     string           `json:"campaign_summary,omitempty"`
	RequirementSummary  string           `json:"requirement_summary,omitempty"`
	ResolvedProductCode string           `json:"resolved_product_code,omitempty"`
	PayoutValue         *decimal.Decimal `json:"payout_value,omitempty"`
	SaleDate            string           `json:"sale_date,omitempty"`
	SlotNumber          int64            `json:"slot_number,omitempty"`
}

// BatchResponse consolidates one run. KeptPending counts submissions left
// untouched: order number absent from the upload, or a per-submission
// persistence failure that rolled back.
type BatchResponse struct {
	Message        string          `json:"message"`
	RunID          string          `json:"run_id"`
	Simulated      bool            `json:"simulated"`
	TotalProcessed int             `json:"total_processed"`
	Validated      int             `json:"validated"`
	Rejected       int             `json:"rejected"`
	Conflict       int             `json:"conflict"`
	KeptPending    int             `json:"kept_pending"`
	Revalidated    int             `json:"revalidated"`
	Details        []OutcomeDetail `json:"details"`
}

type ReconciliationService struct {
	db             *sql.DB
	submissionRepo repositories.SubmissionRepository
	campaignRepo   repositories.CampaignRepository
	sellerRepo     repositories.SellerRepository
	historyRepo    repositories.HistoryRepository
	rewardEngine   rewards.Engine
	log            *logrus.Logger
}

func NewReconciliationService(
	db *sql.DB,
	submissionRepo repositories.SubmissionRepository,
	campaignRepo repositories.CampaignRepository,
	sellerRepo repositories.SellerRepository,
	historyRepo repositories.HistoryRepository,
	rewardEngine rewards.Engine,
	log *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		db:             db,
		submissionRepo: submissionRepo,
		campaignRepo:   campaignRepo,
		sellerRepo:     sellerRepo,
		historyRepo:    historyRepo,
		rewardEngine:   rewardEngine,
		log:            log,
	}
}

// Run drives the reconciliation cascade over every eligible submission of the
// selected campaigns. Fetch failures abort the run before any submission is
// touched; per-submission persistence failures roll back that submission only
// and the run continues. With Simulate set the same cascade runs with zero
// writes and no reward-engine invocation.
func (s *ReconciliationService) Run(ctx context.Context, req *BatchRequest) (*BatchResponse, error) {
	format := dates.DefaultFormat
	if req.DateFormat != "" {
		format = dates.Format(req.DateFormat)
	}
	cols := validation.NewColumnMap(req.ColumnMapping)

	campaigns, err := s.resolveCampaigns(req.CampaignSelector)
	if err != nil {
		return nil, err
	}

	resp := &BatchResponse{
		RunID:     fmt.Sprintf("RUN-%s", uuid.NewString()),
		Simulated: req.Simulate,
	}
	sellerCache := make(map[int64]*models.SellerView)

	for _, campaign := range campaigns {
		subs, err := s.submissionRepo.GetReconcilable(campaign.Campaign.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch submissions for campaign %d: %w", campaign.Campaign.ID, err)
		}
		for _, sub := range subs {
			resp.TotalProcessed++
			detail := s.processSubmission(ctx, req, resp, campaign, sub, cols, format, sellerCache)
			resp.Details = append(resp.Details, detail)
		}
	}

	resp.Message = fmt.Sprintf("processed %d submission(s): %d validated, %d rejected, %d in conflict, %d kept pending",
		resp.TotalProcessed, resp.Validated, resp.Rejected, resp.Conflict, resp.KeptPending)

	if !req.Simulate {
		if err := s.recordRun(req, resp); err != nil {
			s.log.WithError(err).WithField("run_id", resp.RunID).Error("failed to persist run history")
		}
	}
	return resp, nil
}

func (s *ReconciliationService) resolveCampaigns(selector string) ([]*models.CampaignView, error) {
	if selector == SelectorAllActive {
		views, err := s.campaignRepo.GetActiveViews(time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch active campaigns: %w", err)
		}
		return views, nil
	}

	id, err := strconv.ParseInt(selector, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign selector %q", selector)
	}
	view, err := s.campaignRepo.GetView(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaign %d: %w", id, err)
	}
	return []*models.CampaignView{view}, nil
}

func (s *ReconciliationService) processSubmission(
	ctx context.Context,
	req *BatchRequest,
	resp *BatchResponse,
	campaign *models.CampaignView,
	sub *models.Submission,
	cols *validation.ColumnMap,
	format dates.Format,
	sellerCache map[int64]*models.SellerView,
) OutcomeDetail {
	logger := s.log.WithFields(logrus.Fields{
		"run_id":        resp.RunID,
		"submission_id": sub.ID,
		"campaign_id":   sub.CampaignID,
	})

	seller, ok := sellerCache[sub.SellerID]
	if !ok {
		var err error
		seller, err = s.sellerRepo.GetView(sub.SellerID)
		if err != nil {
			logger.WithError(err).Error("failed to load seller projection")
			resp.KeptPending++
			return s.untouchedDetail(sub, campaign, nil, fmt.Sprintf("seller %d could not be loaded: %v", sub.SellerID, err))
		}
		sellerCache[sub.SellerID] = seller
	}

	requirement := campaign.RequirementByID(sub.RequirementID)
	if requirement == nil {
		logger.Error("submission references a requirement missing from its campaign")
		resp.KeptPending++
		return s.untouchedDetail(sub, campaign, seller, fmt.Sprintf("requirement %d is not part of campaign %d", sub.RequirementID, sub.CampaignID))
	}

	view := &models.SubmissionView{
		Submission:  sub,
		Seller:      seller,
		Campaign:    campaign,
		Requirement: requirement,
	}

	outcome, err := validation.Evaluate(view, req.Rows, cols, format, s.submissionRepo.FindValidatedConflict)
	if err != nil {
		logger.WithError(err).Error("conflict lookup failed")
		resp.KeptPending++
		return s.untouchedDetail(sub, campaign, seller, fmt.Sprintf("conflict lookup failed: %v", err))
	}

	detail := OutcomeDetail{
		SubmissionID:        sub.ID,
		OrderNumber:         sub.OrderNumber,
		Status:              outcome.Status,
		KeptPending:         outcome.KeptPending,
		TechnicalMessage:    outcome.TechnicalMessage,
		CounterpartyMessage: outcome.CounterpartyMessage,
		SellerSummary:       seller.Seller.Name,
		OpticsSummary:       opticsSummary(seller),
		CampaignSummary:     campaign.Campaign.Title,
		RequirementSummary:  requirement.Description,
	}

	if outcome.KeptPending {
		resp.KeptPending++
		return detail
	}

	prior := sub.Status
	switch outcome.Status {
	case models.StatusRejected, models.StatusConflict:
		if !req.Simulate {
			if err := s.submissionRepo.UpdateDecision(sub.ID, outcome.Status, outcome.TechnicalMessage, outcome.CounterpartyMessage); err != nil {
				logger.WithError(err).Error("failed to persist decision")
				resp.KeptPending++
				return s.untouchedDetail(sub, campaign, seller, fmt.Sprintf("decision could not be persisted: %v", err))
			}
		}
		if outcome.Status == models.StatusRejected {
			resp.Rejected++
		} else {
			resp.Conflict++
		}
		logger.WithFields(logrus.Fields{"status": outcome.Status, "kind": outcome.Kind}).Info("submission decided")

	case models.StatusValidated:
		detail.ResolvedProductCode = outcome.ProductCode
		payout := outcome.PayoutValue
		detail.PayoutValue = &payout
		detail.SaleDate = outcome.SaleDate.Format("2006-01-02")

		if !req.Simulate {
			slot, err := s.commitValidated(ctx, view, &outcome)
			if err != nil {
				logger.WithError(err).Error("validated transaction rolled back")
				resp.KeptPending++
				return s.untouchedDetail(sub, campaign, seller, fmt.Sprintf("validated transaction rolled back: %v", err))
			}
			detail.SlotNumber = slot
		}
		resp.Validated++
		if prior == models.StatusRejected || prior == models.StatusConflict {
			resp.Revalidated++
		}
		logger.WithFields(logrus.Fields{
			"status":       models.StatusValidated,
			"product_code": outcome.ProductCode,
			"slot_number":  detail.SlotNumber,
		}).Info("submission validated")
	}

	return detail
}

// commitValidated performs the atomic count-then-write: the spillover slot is
// computed from a locked count of prior validations sharing the requirement's
// ordering key, then the validated state and the reward-engine handoff commit
// together. Any failure rolls the whole submission back.
func (s *ReconciliationService) commitValidated(ctx context.Context, view *models.SubmissionView, outcome *validation.Outcome) (int64, error) {
	sub := view.Submission
	requirement := view.Requirement

	quantity := requirement.Quantity
	if quantity < 1 {
		quantity = 1
	}

	// The model is mutated on a copy so a rolled-back attempt leaves the
	// submission's in-memory state, including its prior status, untouched.
	var slot int64
	op := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		count, err := s.submissionRepo.CountValidatedForSlot(tx, sub.SellerID, sub.CampaignID, requirement.OrderingKey)
		if err != nil {
			return err
		}
		slot = int64(count/quantity) + 1

		staged := *sub
		staged.ProductCode = sql.NullString{String: outcome.ProductCode, Valid: true}
		staged.PayoutValue = decimal.NullDecimal{Decimal: outcome.PayoutValue, Valid: true}
		staged.SaleDate = sql.NullTime{Time: outcome.SaleDate, Valid: true}
		staged.SlotNumber = sql.NullInt64{Int64: slot, Valid: true}

		if err := s.submissionRepo.MarkValidated(tx, &staged); err != nil {
			return err
		}
		if err := s.rewardEngine.ProcessTriggers(ctx, tx, &staged, view.Campaign.Campaign, view.Seller); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		*sub = staged
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(commitRetryInterval), commitMaxRetries)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return 0, err
	}
	return slot, nil
}

// untouchedDetail reports a submission whose prior status stands, with the
// error on the technical (operator-only) side.
func (s *ReconciliationService) untouchedDetail(sub *models.Submission, campaign *models.CampaignView, seller *models.SellerView, technical string) OutcomeDetail {
	detail := OutcomeDetail{
		SubmissionID:     sub.ID,
		OrderNumber:      sub.OrderNumber,
		Status:           sub.Status,
		KeptPending:      true,
		TechnicalMessage: technical,
		CampaignSummary:  campaign.Campaign.Title,
	}
	if seller != nil {
		detail.SellerSummary = seller.Seller.Name
		detail.OpticsSummary = opticsSummary(seller)
	}
	return detail
}

func (s *ReconciliationService) recordRun(req *BatchRequest, resp *BatchResponse) error {
	details, err := json.Marshal(resp.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal run details: %w", err)
	}
	run := &models.ReconciliationRun{
		RunID:            resp.RunID,
		CampaignSelector: req.CampaignSelector,
		TotalProcessed:   resp.TotalProcessed,
		Validated:        resp.Validated,
		Rejected:         resp.Rejected,
		Conflict:         resp.Conflict,
		KeptPending:      resp.KeptPending,
		Revalidated:      resp.Revalidated,
		Details:          details,
	}
	return s.historyRepo.InsertRun(run)
}

func opticsSummary(seller *models.SellerView) string {
	if seller.Optic == nil {
		return ""
	}
	summary := seller.Optic.TradeName
	if seller.ParentOptic != nil {
		summary = fmt.Sprintf("%s (matriz %s)", summary, seller.ParentOptic.TradeName)
	}
	return summary
}
