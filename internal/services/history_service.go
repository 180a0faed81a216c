package services

import (
	"fmt"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/repositories"
)

// HistoryService reads stored reconciliation runs. Simulations never reach
// history, so everything listed here was committed.
type HistoryService struct {
	historyRepo repositories.HistoryRepository
}

func NewHistoryService(historyRepo repositories.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

func (s *HistoryService) List(filter repositories.HistoryFilter) ([]*models.ReconciliationRun, error) {
	runs, err := s.historyRepo.ListRuns(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}
	return runs, nil
}
