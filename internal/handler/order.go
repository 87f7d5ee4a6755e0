package handler

import (
	"net/http"

	"github.com/bookease/marketplace/internal/domain/order"
	"github.com/bookease/marketplace/internal/domain/validation"
)

type placeOrderRequest struct {
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   order.PaymentMethod   `json:"paymentMethod"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	o, err := h.orders.Place(r.Context(), order.PlaceRequest{
		UserID:          claimsFrom(r.Context()).UserID(),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderListResponse(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	o, err := h.orders.Get(r.Context(), r.PathValue("id"), order.Actor{
		UserID: claims.UserID(),
		Role:   claims.Role,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
	Reason string       `json:"reason"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Status == "" {
		respondDomainError(w, r, validation.New("status is required"))
		return
	}

	claims := claimsFrom(r.Context())
	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), order.Actor{
		UserID: claims.UserID(),
		Role:   claims.Role,
	}, req.Status, req.Reason)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) listSellerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForSeller(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderListResponse(orders))
}
