package handlers

import (
	"net/http"
	"strconv"

	"github.com/arkantrust/dealership-admin/backend/models"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rec.Users())
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	u, err := h.rec.User(id)
	if err != nil {
		writeFailure(w, r, err, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body models.User
	if !decode(w, r, &body) {
		return
	}
	u, err := h.rec.CreateUser(r.Context(), body)
	if err != nil {
		writeFailure(w, r, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	var body models.User
	if !decode(w, r, &body) {
		return
	}
	u, err := h.rec.UpdateUser(r.Context(), id, body)
	if err != nil {
		writeFailure(w, r, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	if err := h.rec.DeleteUser(r.Context(), id); err != nil {
		writeFailure(w, r, err, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": strconv.FormatInt(id, 10)})
}

// stats handles GET /stats for the dashboard.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rec.Stats())
}
