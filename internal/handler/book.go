package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

// listBooks serves the public catalog with search, filters, sorting, and
// pagination via query parameters.
func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := book.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Author:   q.Get("author"),
		Sort:     q.Get("sort"),
		Desc:     q.Get("order") != "asc",
	}
	if v := q.Get("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			respondDomainError(w, r, validation.New("minPrice must be a number"))
			return
		}
		f.MinPrice = d
	}
	if v := q.Get("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			respondDomainError(w, r, validation.New("maxPrice must be a number"))
			return
		}
		f.MaxPrice = d
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.books.List(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toBookPageResponse(page))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !b.IsActive {
		respondDomainError(w, r, book.ErrNotFound)
		return
	}
	respond(w, http.StatusOK, toBookResponse(b))
}

func (h *Handler) listBookReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListForBook(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toReviewListResponse(reviews))
}

type bookRequest struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	OriginalPrice   float64   `json:"originalPrice"`
	Stock           int       `json:"stock"`
	ImageURL        string    `json:"imageUrl"`
	Category        string    `json:"category"`
	ISBN            string    `json:"isbn"`
	Language        string    `json:"language"`
	Pages           int       `json:"pages"`
	Publisher       string    `json:"publisher"`
	PublicationDate time.Time `json:"publicationDate"`
}

func (req *bookRequest) validate() error {
	switch {
	case req.Title == "":
		return validation.New("title is required")
	case req.Author == "":
		return validation.New("author is required")
	case req.Price < 0:
		return validation.New("price cannot be negative")
	case req.Stock < 0:
		return validation.New("stock cannot be negative")
	}
	return nil
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}

	now := time.Now().UTC()
	b := &book.Book{
		ID:              uuid.New().String(),
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Price:           decimal.NewFromFloat(req.Price),
		OriginalPrice:   decimal.NewFromFloat(req.OriginalPrice),
		Stock:           req.Stock,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		SellerID:        claimsFrom(r.Context()).UserID(),
		ISBN:            req.ISBN,
		Language:        req.Language,
		Pages:           req.Pages,
		Publisher:       req.Publisher,
		PublicationDate: req.PublicationDate,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.books.Create(r.Context(), b); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toBookResponse(b))
}

// ownedBook loads the book and enforces that the actor is its seller or
// an admin.
func (h *Handler) ownedBook(r *http.Request, id string) (*book.Book, error) {
	b, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	claims := claimsFrom(r.Context())
	if claims.Role != user.RoleAdmin && b.SellerID != claims.UserID() {
		return nil, book.ErrNotOwner
	}
	return b, nil
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}

	b, err := h.ownedBook(r, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	b.Title = req.Title
	b.Author = req.Author
	b.Description = req.Description
	b.Price = decimal.NewFromFloat(req.Price)
	b.OriginalPrice = decimal.NewFromFloat(req.OriginalPrice)
	b.Stock = req.Stock
	b.ImageURL = req.ImageURL
	b.Category = req.Category
	b.ISBN = req.ISBN
	b.Language = req.Language
	b.Pages = req.Pages
	b.Publisher = req.Publisher
	b.PublicationDate = req.PublicationDate
	b.UpdatedAt = time.Now().UTC()

	if err := h.books.Update(r.Context(), b); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toBookResponse(b))
}

func (h *Handler) deactivateBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.ownedBook(r, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := h.books.Deactivate(r.Context(), b.ID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSellerBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := book.Filter{SellerID: claimsFrom(r.Context()).UserID()}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PerPage, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.books.List(r.Context(), f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toBookPageResponse(page))
}
