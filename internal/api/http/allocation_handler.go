package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/service"

	"github.com/gorilla/mux"
)

// AllocationHandler exposes the ledger over JSON.
type AllocationHandler struct {
	ledger service.AllocationService
	query  service.AllocationQueryService
	alerts service.StockAlertService
}

func NewAllocationHandler(ledger service.AllocationService, query service.AllocationQueryService, alerts service.StockAlertService) *AllocationHandler {
	return &AllocationHandler{ledger: ledger, query: query, alerts: alerts}
}

type listAllocationsResponse struct {
	Allocations []domain.AllocationView `json:"allocations"`
	TotalCount  int32                   `json:"total_count"`
	Page        int32                   `json:"page"`
	PageSize    int32                   `json:"page_size"`
}

type listAlertsResponse struct {
	Alerts     []domain.StockAlert `json:"alerts"`
	TotalCount int32               `json:"total_count"`
}

type exhaustRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// HandleIssue handles POST /api/v1/allocations
func (h *AllocationHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.ledger.Issue(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleList handles GET /api/v1/allocations
func (h *AllocationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	views, total, err := h.query.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter.Normalize()
	writeJSON(w, http.StatusOK, listAllocationsResponse{
		Allocations: views,
		TotalCount:  total,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	})
}

// HandleGet handles GET /api/v1/allocations/{id}
func (h *AllocationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.query.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleAmend handles PATCH /api/v1/allocations/{id}
func (h *AllocationHandler) HandleAmend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var changes domain.AllocationChanges
	if err := decodeBody(r, &changes, false); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.ledger.Amend(r.Context(), id, changes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete handles DELETE /api/v1/allocations/{id}
func (h *AllocationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.ledger.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if n == 0 {
		writeError(w, r, domain.ErrAllocationNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkExhausted handles POST /api/v1/allocations/{id}/exhaust
func (h *AllocationHandler) HandleMarkExhausted(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req exhaustRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.ledger.MarkExhausted(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleListAlerts handles GET /api/v1/alerts
func (h *AllocationHandler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parseInt32(q.Get("page"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid page")
		return
	}
	pageSize, err := parseInt32(q.Get("page_size"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid page_size")
		return
	}
	alerts, total, err := h.alerts.ListAlerts(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listAlertsResponse{Alerts: alerts, TotalCount: total})
}

// HandleAcknowledgeAlert handles POST /api/v1/alerts/{id}/ack
func (h *AllocationHandler) HandleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.alerts.Acknowledge(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil || id <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return int32(id), true
}

func decodeBody(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: unexpected data after JSON value")
	}
	return nil
}

func parseInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

func parseBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseFilter(r *http.Request) (domain.AllocationFilter, error) {
	q := r.URL.Query()
	var f domain.AllocationFilter
	var err error

	for _, raw := range q["item_id"] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
			if err != nil {
				return f, fmt.Errorf("invalid item_id %q", part)
			}
			f.ItemIDs = append(f.ItemIDs, int32(id))
		}
	}
	if f.IsActive, err = parseBool(q.Get("active")); err != nil {
		return f, fmt.Errorf("invalid active")
	}
	if f.IsExhausted, err = parseBool(q.Get("exhausted")); err != nil {
		return f, fmt.Errorf("invalid exhausted")
	}
	if f.IssuedFrom, err = parseTime(q.Get("from")); err != nil {
		return f, fmt.Errorf("invalid from, expected RFC3339")
	}
	if f.IssuedTo, err = parseTime(q.Get("to")); err != nil {
		return f, fmt.Errorf("invalid to, expected RFC3339")
	}
	if f.Page, err = parseInt32(q.Get("page")); err != nil {
		return f, fmt.Errorf("invalid page")
	}
	if f.PageSize, err = parseInt32(q.Get("page_size")); err != nil {
		return f, fmt.Errorf("invalid page_size")
	}
	return f, nil
}
