package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthCheck reports whether the service's dependencies are reachable.
type HealthCheck func(ctx context.Context) error

// RegisterRoutes mounts the ledger API under /api/v1 and the health probe at
// /healthz.
func RegisterRoutes(router *mux.Router, h *AllocationHandler, auth *AuthMiddleware, health HealthCheck) {
	router.Use(RequestLogger)
	router.Use(auth.Handler)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				writeErrorMessage(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/allocations", h.HandleIssue).Methods(http.MethodPost)
	api.HandleFunc("/allocations", h.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/allocations/{id}", h.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/allocations/{id}", h.HandleAmend).Methods(http.MethodPatch)
	api.HandleFunc("/allocations/{id}", h.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/allocations/{id}/exhaust", h.HandleMarkExhausted).Methods(http.MethodPost)
	api.HandleFunc("/alerts", h.HandleListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/ack", h.HandleAcknowledgeAlert).Methods(http.MethodPost)
}
