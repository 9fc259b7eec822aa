package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/arkantrust/dealership-admin/backend/models"
)

type itemView struct {
	models.LineItem
	CarLabel string          `json:"carLabel"`
	Total    decimal.Decimal `json:"total"`
}

// orderView is an order as the console lists it: every item labelled with its
// car and the order total computed from the captured prices.
type orderView struct {
	models.Order
	Items []itemView      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h *Handler) newOrderView(o models.Order) orderView {
	items := make([]itemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemView{
			LineItem: it,
			CarLabel: h.rec.CarLabel(it.CarID),
			Total:    it.Total(),
		})
	}
	return orderView{Order: o, Items: items, Total: o.Total()}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.rec.Orders()
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, h.newOrderView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.rec.Order(r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err, "failed to get order")
		return
	}
	writeJSON(w, http.StatusOK, h.newOrderView(o))
}

// createOrder handles POST /orders. The server assigns the next ORD-n id; an
// order posted as completed reserves its stock and may be refused with 409.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var body models.Order
	if !decode(w, r, &body) {
		return
	}
	o, err := h.rec.CreateOrder(r.Context(), body)
	if err != nil {
		writeFailure(w, r, err, "failed to create order")
		return
	}
	writeJSON(w, http.StatusCreated, h.newOrderView(o))
}

// editOrder handles PUT /orders/{id}. A refused reservation leaves both the
// order and the stock exactly as they were.
func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	var body models.Order
	if !decode(w, r, &body) {
		return
	}
	o, err := h.rec.EditOrder(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeFailure(w, r, err, "failed to update order")
		return
	}
	writeJSON(w, http.StatusOK, h.newOrderView(o))
}

// deleteOrder handles DELETE /orders/{id}. A completed order gives its stock
// back first. Unknown ids still answer 200: the desired end state is reached.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.rec.DeleteOrder(r.Context(), id); err != nil {
		writeFailure(w, r, err, "failed to delete order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if !decode(w, r, &body) {
		return
	}
	o, err := h.rec.ChangeStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		writeFailure(w, r, err, "failed to change order status")
		return
	}
	writeJSON(w, http.StatusOK, h.newOrderView(o))
}
