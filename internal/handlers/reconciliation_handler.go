package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"sales-reconciliation-service/internal/dates"
	"sales-reconciliation-service/internal/repositories"
	"sales-reconciliation-service/internal/services"
)

type ReconciliationHandler struct {
	reconciliationService *services.ReconciliationService
	historyService        *services.HistoryService
}

func NewReconciliationHandler(reconciliationService *services.ReconciliationService, historyService *services.HistoryService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
		historyService:        historyService,
	}
}

// RunBatch reconciles an uploaded, already-parsed spreadsheet against the
// selected campaigns' pending submissions.
func (h *ReconciliationHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var request services.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := validateBatchRequest(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reconciliationService.Run(r.Context(), &request)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetHistory lists stored reconciliation runs, most recent first.
func (h *ReconciliationHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.historyService.List(filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func validateBatchRequest(req *services.BatchRequest) error {
	formats := make([]any, 0, len(dates.Formats()))
	for _, f := range dates.Formats() {
		formats = append(formats, f)
	}
	return ozzo.ValidateStruct(req,
		ozzo.Field(&req.CampaignSelector, ozzo.Required, ozzo.By(checkCampaignSelector)),
		ozzo.Field(&req.ColumnMapping, ozzo.Required),
		ozzo.Field(&req.Rows, ozzo.Required),
		ozzo.Field(&req.DateFormat, ozzo.In(formats...)),
	)
}

func checkCampaignSelector(value any) error {
	s, _ := value.(string)
	if s == services.SelectorAllActive {
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("must be a campaign id or ALL_ACTIVE")
	}
	return nil
}

func historyFilterFromQuery(r *http.Request) (repositories.HistoryFilter, error) {
	var filter repositories.HistoryFilter

	if v := r.URL.Query().Get("campaign_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("invalid campaign_id")
		}
		filter.CampaignID = id
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid from date. Use YYYY-MM-DD")
		}
		filter.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("invalid to date. Use YYYY-MM-DD")
		}
		// Inclusive end of day.
		filter.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
