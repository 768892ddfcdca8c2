package checkout

import (
	"mini-pos/internal/model"

	"github.com/google/uuid"
)

// History is the append-only list of committed orders, oldest first.
type History struct {
	orders []model.Order
}

// NewHistory creates a history holding copies of the given orders.
func NewHistory(orders []model.Order) *History {
	h := &History{}
	h.Replace(orders)
	return h
}

func (h *History) append(o model.Order) {
	h.orders = append(h.orders, o.Clone())
}

// All returns copies of all orders, oldest first.
func (h *History) All() []model.Order {
	out := make([]model.Order, len(h.orders))
	for i, o := range h.orders {
		out[i] = o.Clone()
	}
	return out
}

// Recent returns copies of all orders, newest first.
func (h *History) Recent() []model.Order {
	out := make([]model.Order, len(h.orders))
	for i, o := range h.orders {
		out[len(h.orders)-1-i] = o.Clone()
	}
	return out
}

// Get returns the order with the given id.
func (h *History) Get(id uuid.UUID) (model.Order, bool) {
	for _, o := range h.orders {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return model.Order{}, false
}

// Len returns the number of orders.
func (h *History) Len() int {
	return len(h.orders)
}

// Replace swaps the whole history, used when loading or restoring a snapshot.
func (h *History) Replace(orders []model.Order) {
	h.orders = make([]model.Order, 0, len(orders))
	for _, o := range orders {
		h.orders = append(h.orders, o.Clone())
	}
}
