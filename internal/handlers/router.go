package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sales-reconciliation-service/internal/config"
	"sales-reconciliation-service/internal/repositories"
	"sales-reconciliation-service/internal/rewards"
	"sales-reconciliation-service/internal/services"
)

func SetupRouter(db *sql.DB, cfg *config.Config, log *logrus.Logger) *mux.Router {
	submissionRepo := repositories.NewSubmissionRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	sellerRepo := repositories.NewSellerRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)

	reconciliationService := services.NewReconciliationService(
		db, submissionRepo, campaignRepo, sellerRepo, historyRepo,
		rewards.NewTriggerWriter(), log,
	)
	historyService := services.NewHistoryService(historyRepo)
	reconciliationHandler := NewReconciliationHandler(reconciliationService, historyService)

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware(log))
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/reconciliations", reconciliationHandler.RunBatch).Methods(http.MethodPost)
	api.HandleFunc("/reconciliations/history", reconciliationHandler.GetHistory).Methods(http.MethodGet)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func loggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"remote": r.RemoteAddr,
			}).Debug("request received")
			next.ServeHTTP(w, r)
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
