package handler

import (
	"net/http"
)

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	entries, err := h.carts.List(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toCartResponse(entries))
}

type addToCartRequest struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	item, err := h.carts.Add(r.Context(), claimsFrom(r.Context()).UserID(), req.BookID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"itemId":   item.ID,
		"bookId":   item.BookID,
		"quantity": item.Quantity,
	})
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	item, err := h.carts.UpdateQuantity(r.Context(),
		claimsFrom(r.Context()).UserID(), r.PathValue("itemId"), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"itemId":   item.ID,
		"bookId":   item.BookID,
		"quantity": item.Quantity,
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.carts.Remove(r.Context(), claimsFrom(r.Context()).UserID(), r.PathValue("itemId"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), claimsFrom(r.Context()).UserID()); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
