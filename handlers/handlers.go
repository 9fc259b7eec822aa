// Package handlers provides the JSON HTTP API of the dealership console.
//
// Every mutating route goes through the reconciler, so stock and order status
// stay consistent no matter which screen sent the request:
//
//   - POST /orders/{id}/status – completes, cancels or reopens an order,
//     reserving or releasing stock. Moving an order to the status it already
//     has is a no-op and returns 200 with the unchanged order.
//   - PUT  /orders/{id} – replaces an order; the old version's stock is
//     released and the new version's reserved in one step.
//   - DELETE /orders/{id}, /cars/{id}, /users/{id} – succeed even when the
//     record does not exist.
//
// A refused completion answers 409 with a machine readable reason so the
// client can name the car that blocked it.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/models"
	"github.com/arkantrust/dealership-admin/backend/reconciler"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	rec *reconciler.Reconciler
}

// New creates a new Handler backed by rec.
func New(rec *reconciler.Reconciler) *Handler {
	return &Handler{rec: rec}
}

// Routes maps every endpoint on a fresh ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cars", h.listCars)
	mux.HandleFunc("POST /cars", h.createCar)
	mux.HandleFunc("GET /cars/search", h.searchCars)
	mux.HandleFunc("GET /cars/{id}", h.getCar)
	mux.HandleFunc("PUT /cars/{id}", h.updateCar)
	mux.HandleFunc("DELETE /cars/{id}", h.deleteCar)

	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /orders/{id}", h.editOrder)
	mux.HandleFunc("DELETE /orders/{id}", h.deleteOrder)
	mux.HandleFunc("POST /orders/{id}/status", h.changeStatus)

	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("POST /users", h.createUser)
	mux.HandleFunc("GET /users/{id}", h.getUser)
	mux.HandleFunc("PUT /users/{id}", h.updateUser)
	mux.HandleFunc("DELETE /users/{id}", h.deleteUser)

	mux.HandleFunc("GET /stats", h.stats)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps a reconciler or validation error to its status code.
// Anything unrecognised is a store failure and answers 500 with fallback as
// the message.
func writeFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		invalid *models.ValidationError
		stock   *reconciler.InsufficientStockError
		missing *reconciler.MissingCarError
	)
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  invalid.Error(),
			"fields": invalid.Fields,
		})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stock.Error(),
			"reason":    "insufficient_stock",
			"carId":     stock.CarID,
			"available": stock.Available,
			"needed":    stock.Needed,
		})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  missing.Error(),
			"reason": "referenced_entity_missing",
			"carId":  missing.CarID,
		})
	case errors.Is(err, reconciler.ErrOrderNotFound),
		errors.Is(err, reconciler.ErrCarNotFound),
		errors.Is(err, reconciler.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Str("requestId", RequestID(r.Context())).Str("method", r.Method).Str("path", r.URL.Path).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// numericID parses the {id} path value, answering 400 itself on failure.
func numericID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id in path")
		return 0, false
	}
	return id, true
}
