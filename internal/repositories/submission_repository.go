package repositories

import (
	"database/sql"
	"errors"
	"time"

	"sales-reconciliation-service/internal/models"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionRepository interface {
	// GetReconcilable returns the campaign's submissions eligible for a run:
	// PENDING, REJECTED and CONFLICT. VALIDATED is terminal and excluded in
	// the query itself.
	GetReconcilable(campaignID int64) ([]*models.Submission, error)
	// UpdateDecision writes a rejection or conflict decision with both
	// messages. Non-transactional: a single-row update.
	UpdateDecision(id int64, status, technical, counterparty string) error
	// MarkValidated writes the terminal validated state inside the caller's
	// transaction: status, cleared messages, payout value, product code, sale
	// date and spillover slot.
	MarkValidated(tx *sql.Tx, sub *models.Submission) error
	// CountValidatedForSlot counts validated submissions of the same seller,
	// campaign and requirement ordering key, locking the counted rows so the
	// count-then-write of the spillover slot is serialized. Must run inside
	// the same transaction as MarkValidated.
	CountValidatedForSlot(tx *sql.Tx, sellerID, campaignID int64, orderingKey string) (int, error)
	// FindValidatedConflict returns the name of a different seller whose
	// submission for the same order number and campaign is already validated,
	// or "" when there is none.
	FindValidatedConflict(orderNumber string, campaignID, excludeSellerID int64) (string, error)
}

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetReconcilable(campaignID int64) ([]*models.Submission, error) {
	query := `
		SELECT id, order_number, seller_id, campaign_id, requirement_id,
		       status, technical_message, counterparty_message,
		       product_code, payout_value, sale_date, slot_number,
		       created_at, updated_at
		FROM submissions
		WHERE campaign_id = ?
		AND status IN (?, ?, ?)
		ORDER BY id
	`
	rows, err := r.db.Query(query, campaignID,
		models.StatusPending, models.StatusRejected, models.StatusConflict)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		sub := &models.Submission{}
		err := rows.Scan(
			&sub.ID,
			&sub.OrderNumber,
			&sub.SellerID,
			&sub.CampaignID,
			&sub.RequirementID,
			&sub.Status,
			&sub.TechnicalMessage,
			&sub.CounterpartyMessage,
			&sub.ProductCode,
			&sub.PayoutValue,
			&sub.SaleDate,
			&sub.SlotNumber,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *submissionRepository) UpdateDecision(id int64, status, technical, counterparty string) error {
	query := `
		UPDATE submissions
		SET status = ?,
		    technical_message = ?,
		    counterparty_message = ?,
		    updated_at = ?
		WHERE id = ?
		AND status <> ?
	`
	result, err := r.db.Exec(query, status, technical, counterparty, time.Now(), id, models.StatusValidated)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *submissionRepository) MarkValidated(tx *sql.Tx, sub *models.Submission) error {
	query := `
		UPDATE submissions
		SET status = ?,
		    technical_message = NULL,
		    counterparty_message = NULL,
		    product_code = ?,
		    payout_value = ?,
		    sale_date = ?,
		    slot_number = ?,
		    updated_at = ?
		WHERE id = ?
		AND status <> ?
	`
	result, err := tx.Exec(query,
		models.StatusValidated,
		sub.ProductCode,
		sub.PayoutValue,
		sub.SaleDate,
		sub.SlotNumber,
		time.Now(),
		sub.ID,
		models.StatusValidated,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	sub.Status = models.StatusValidated
	return nil
}

func (r *submissionRepository) CountValidatedForSlot(tx *sql.Tx, sellerID, campaignID int64, orderingKey string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM submissions s
		INNER JOIN requirements r ON r.id = s.requirement_id
		WHERE s.seller_id = ?
		AND s.campaign_id = ?
		AND r.ordering_key = ?
		AND s.status = ?
		FOR UPDATE
	`
	var count int
	err := tx.QueryRow(query, sellerID, campaignID, orderingKey, models.StatusValidated).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) FindValidatedConflict(orderNumber string, campaignID, excludeSellerID int64) (string, error) {
	query := `
		SELECT sl.name
		FROM submissions s
		INNER JOIN sellers sl ON sl.id = s.seller_id
		WHERE s.order_number = ?
		AND s.campaign_id = ?
		AND s.seller_id <> ?
		AND s.status = ?
		LIMIT 1
	`
	var name string
	err := r.db.QueryRow(query, orderNumber, campaignID, excludeSellerID, models.StatusValidated).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
