package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepository interface {
	// GetView hydrates one campaign with its requirements, conditions and
	// product catalog.
	GetView(id int64) (*models.CampaignView, error)
	// GetActiveViews hydrates every campaign whose window contains at.
	GetActiveViews(at time.Time) ([]*models.CampaignView, error)
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) GetView(id int64) (*models.CampaignView, error) {
	campaign := &models.Campaign{}
	query := `
		SELECT id, title, starts_at, ends_at, order_column_type
		FROM campaigns
		WHERE id = ?
	`
	err := r.db.QueryRow(query, id).Scan(
		&campaign.ID,
		&campaign.Title,
		&campaign.StartsAt,
		&campaign.EndsAt,
		&campaign.OrderColumnType,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.hydrate(campaign)
}

func (r *campaignRepository) GetActiveViews(at time.Time) ([]*models.CampaignView, error) {
	// Day granularity on both ends: a campaign whose ends_at is stored at
	// midnight of the end date stays active through that whole day.
	query := `
		SELECT id, title, starts_at, ends_at, order_column_type
		FROM campaigns
		WHERE DATE(starts_at) <= DATE(?) AND DATE(ends_at) >= DATE(?)
		ORDER BY id
	`
	rows, err := r.db.Query(query, at, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		campaign := &models.Campaign{}
		err := rows.Scan(
			&campaign.ID,
			&campaign.Title,
			&campaign.StartsAt,
			&campaign.EndsAt,
			&campaign.OrderColumnType,
		)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var views []*models.CampaignView
	for _, campaign := range campaigns {
		view, err := r.hydrate(campaign)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (r *campaignRepository) hydrate(campaign *models.Campaign) (*models.CampaignView, error) {
	requirements, err := r.getRequirements(campaign.ID)
	if err != nil {
		return nil, err
	}
	catalog, err := r.getCatalog(campaign.ID)
	if err != nil {
		return nil, err
	}
	return &models.CampaignView{
		Campaign:     campaign,
		Requirements: requirements,
		Catalog:      catalog,
	}, nil
}

func (r *campaignRepository) getRequirements(campaignID int64) ([]*models.Requirement, error) {
	query := `
		SELECT id, campaign_id, quantity, unit_type, ordering_key, description
		FROM requirements
		WHERE campaign_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*models.Requirement)
	var requirements []*models.Requirement
	for rows.Next() {
		req := &models.Requirement{}
		err := rows.Scan(
			&req.ID,
			&req.CampaignID,
			&req.Quantity,
			&req.UnitType,
			&req.OrderingKey,
			&req.Description,
		)
		if err != nil {
			return nil, err
		}
		byID[req.ID] = req
		requirements = append(requirements, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(requirements) == 0 {
		return requirements, nil
	}

	condQuery := `
		SELECT c.id, c.requirement_id, c.field, c.operator, c.expected
		FROM requirement_conditions c
		INNER JOIN requirements r ON r.id = c.requirement_id
		WHERE r.campaign_id = ?
		ORDER BY c.id
	`
	condRows, err := r.db.Query(condQuery, campaignID)
	if err != nil {
		return nil, err
	}
	defer condRows.Close()

	for condRows.Next() {
		cond := &models.Condition{}
		err := condRows.Scan(
			&cond.ID,
			&cond.RequirementID,
			&cond.Field,
			&cond.Operator,
			&cond.Expected,
		)
		if err != nil {
			return nil, err
		}
		if req, ok := byID[cond.RequirementID]; ok {
			req.Conditions = append(req.Conditions, cond)
		}
	}
	return requirements, condRows.Err()
}

func (r *campaignRepository) getCatalog(campaignID int64) (map[string]decimal.Decimal, error) {
	query := `
		SELECT product_code, payout_value
		FROM product_catalog
		WHERE campaign_id = ?
	`
	rows, err := r.db.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code string
		var payout decimal.Decimal
		if err := rows.Scan(&code, &payout); err != nil {
			return nil, err
		}
		catalog[code] = payout
	}
	return catalog, rows.Err()
}
