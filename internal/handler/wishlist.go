package handler

import (
	"net/http"
)

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.wishlists.List(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toWishlistResponse(entries))
}

type addToWishlistRequest struct {
	BookID string `json:"bookId"`
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req addToWishlistRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	item, err := h.wishlists.Add(r.Context(), claimsFrom(r.Context()).UserID(), req.BookID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"bookId":  item.BookID,
		"addedAt": item.CreatedAt,
	})
}

func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	err := h.wishlists.Remove(r.Context(), claimsFrom(r.Context()).UserID(), r.PathValue("bookId"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
