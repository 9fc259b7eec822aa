package handlers

import (
	"net/http"
	"strconv"

	"github.com/arkantrust/dealership-admin/backend/models"
)

// carView adds the derived availability to a car.
type carView struct {
	models.Car
	Status models.CarStatus `json:"status"`
}

func newCarView(c models.Car) carView {
	return carView{Car: c, Status: c.Status()}
}

func (h *Handler) listCars(w http.ResponseWriter, r *http.Request) {
	cars := h.rec.Cars()
	out := make([]carView, 0, len(cars))
	for _, c := range cars {
		out = append(out, newCarView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// searchCars handles GET /cars/search?q= for the specifications lookup.
// Queries under two characters answer an empty list.
func (h *Handler) searchCars(w http.ResponseWriter, r *http.Request) {
	cars := h.rec.SearchCars(r.URL.Query().Get("q"))
	out := make([]carView, 0, len(cars))
	for _, c := range cars {
		out = append(out, newCarView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCar(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	c, err := h.rec.Car(id)
	if err != nil {
		writeFailure(w, r, err, "failed to get car")
		return
	}
	writeJSON(w, http.StatusOK, newCarView(c))
}

// createCar handles POST /cars. The id and the stock number are assigned by
// the server.
func (h *Handler) createCar(w http.ResponseWriter, r *http.Request) {
	var body models.Car
	if !decode(w, r, &body) {
		return
	}
	c, err := h.rec.CreateCar(r.Context(), body)
	if err != nil {
		writeFailure(w, r, err, "failed to create car")
		return
	}
	writeJSON(w, http.StatusCreated, newCarView(c))
}

// updateCar handles PUT /cars/{id}. The stock sent here replaces the stored
// count outright; it is an inventory correction, not an order. The stock
// number is kept.
func (h *Handler) updateCar(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	var body models.Car
	if !decode(w, r, &body) {
		return
	}
	c, err := h.rec.UpdateCar(r.Context(), id, body)
	if err != nil {
		writeFailure(w, r, err, "failed to update car")
		return
	}
	writeJSON(w, http.StatusOK, newCarView(c))
}

func (h *Handler) deleteCar(w http.ResponseWriter, r *http.Request) {
	id, ok := numericID(w, r)
	if !ok {
		return
	}
	if err := h.rec.DeleteCar(r.Context(), id); err != nil {
		writeFailure(w, r, err, "failed to delete car")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": strconv.FormatInt(id, 10)})
}
