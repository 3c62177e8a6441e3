package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/holiday-console/internal/holiday"
	"github.com/username/holiday-console/internal/hrapi"
	"go.uber.org/zap"
)

// Handler serves the Holiday Persistence API over a holiday.Store
type Handler struct {
	Store  holiday.Store
	Logger *zap.Logger
}

// NewHandler creates a handler
func NewHandler(store holiday.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	ok := true
	raw, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
	writeJSON(w, status, hrapi.Envelope{Success: &ok, Data: raw})
}

func writeError(w http.ResponseWriter, status int, message string) {
	ok := false
	writeJSON(w, status, hrapi.Envelope{Success: &ok, Message: message})
}

// writeStoreError maps store errors to status codes
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, holiday.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, holiday.ErrInvalidDate),
		errors.Is(err, holiday.ErrInvalidReasonType),
		errors.Is(err, holiday.ErrEmptyReasonText),
		errors.Is(err, holiday.ErrEmptyBranch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, message)
	}
}

func toDTOs(records []holiday.Record) []hrapi.HolidayDTO {
	dtos := make([]hrapi.HolidayDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, hrapi.FromRecord(rec))
	}
	return dtos
}

// ListHolidays returns the holidays of a branch and year.
// GET /api/holidays?branchId=&year=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	branchID := strings.TrimSpace(r.URL.Query().Get("branchId"))
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "branchId is required")
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year <= 0 {
		writeError(w, http.StatusBadRequest, "year must be a positive integer")
		return
	}

	records, err := h.Store.ListHolidays(r.Context(), branchID, year)
	if err != nil {
		h.writeStoreError(w, r, "Failed to get holidays", err)
		return
	}

	writeData(w, http.StatusOK, toDTOs(records))
}

// CreateHolidays creates one holiday per date with a shared reason.
// POST /api/holidays
func (h *Handler) CreateHolidays(w http.ResponseWriter, r *http.Request) {
	var req hrapi.CreateHolidaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reasonType, err := holiday.ParseReasonType(req.ReasonType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.Store.CreateHolidays(r.Context(), holiday.CreateRequest{
		BranchID:   strings.TrimSpace(req.BranchID),
		Dates:      req.Dates,
		ReasonType: reasonType,
		ReasonText: strings.TrimSpace(req.ReasonText),
	})
	if err != nil {
		h.writeStoreError(w, r, "Failed to create holidays", err)
		return
	}

	writeData(w, http.StatusCreated, toDTOs(records))
}

// UpdateHoliday changes the reason of one holiday.
// PUT /api/holidays/{id}
func (h *Handler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req hrapi.UpdateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reasonType, err := holiday.ParseReasonType(req.ReasonType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.Store.UpdateHoliday(r.Context(), id, reasonType, strings.TrimSpace(req.ReasonText))
	if err != nil {
		h.writeStoreError(w, r, "Failed to update holiday", err)
		return
	}

	writeData(w, http.StatusOK, hrapi.FromRecord(*rec))
}

// DeleteHoliday deletes a holiday by ID.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, r, "Failed to delete holiday", err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// BulkDelete removes a list of dates of one branch and year.
// POST /api/holidays/bulk-delete
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req hrapi.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Dates) == 0 {
		writeError(w, http.StatusBadRequest, "dates must not be empty")
		return
	}

	deleted, err := h.Store.DeleteHolidays(r.Context(), strings.TrimSpace(req.BranchID), req.Year, req.Dates)
	if err != nil {
		h.writeStoreError(w, r, "Failed to delete holidays", err)
		return
	}

	writeData(w, http.StatusOK, hrapi.BulkDeleteResponse{Deleted: deleted})
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
