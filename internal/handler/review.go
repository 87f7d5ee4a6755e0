package handler

import (
	"net/http"

	"github.com/bookease/marketplace/internal/domain/review"
)

type addReviewRequest struct {
	BookID  string `json:"bookId"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	var req addReviewRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	rv, err := h.reviews.Add(r.Context(), review.AddRequest{
		UserID:  claimsFrom(r.Context()).UserID(),
		BookID:  req.BookID,
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toReviewResponse(rv))
}

func (h *Handler) approveReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.reviews.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toReviewResponse(rv))
}

func (h *Handler) listAllReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListAll(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toReviewListResponse(reviews))
}
