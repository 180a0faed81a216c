package repositories

import (
	"database/sql"
	"strconv"
	"time"

	"sales-reconciliation-service/internal/models"
)

// HistoryFilter narrows a history listing. Zero values mean "no filter";
// Limit falls back to a default in the query.
type HistoryFilter struct {
	CampaignID int64
	From       time.Time
	To         time.Time
	Limit      int
}

const defaultHistoryLimit = 50

type HistoryRepository interface {
	// InsertRun stores the record of one non-simulation batch run.
	InsertRun(run *models.ReconciliationRun) error
	// ListRuns returns stored runs most-recent-first.
	ListRuns(filter HistoryFilter) ([]*models.ReconciliationRun, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) InsertRun(run *models.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			run_id, campaign_selector, total_processed, validated,
			rejected, conflict, kept_pending, revalidated, details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		run.RunID,
		run.CampaignSelector,
		run.TotalProcessed,
		run.Validated,
		run.Rejected,
		run.Conflict,
		run.KeptPending,
		run.Revalidated,
		run.Details,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	return nil
}

func (r *historyRepository) ListRuns(filter HistoryFilter) ([]*models.ReconciliationRun, error) {
	query := `
		SELECT id, run_id, campaign_selector, total_processed, validated,
		       rejected, conflict, kept_pending, revalidated, details, created_at
		FROM reconciliation_runs
		WHERE 1 = 1
	`
	var args []any
	if filter.CampaignID > 0 {
		query += " AND campaign_selector = ?"
		args = append(args, strconv.FormatInt(filter.CampaignID, 10))
	}
	if !filter.From.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.To)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.ReconciliationRun
	for rows.Next() {
		run := &models.ReconciliationRun{}
		err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.CampaignSelector,
			&run.TotalProcessed,
			&run.Validated,
			&run.Rejected,
			&run.Conflict,
			&run.KeptPending,
			&run.Revalidated,
			&run.Details,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
