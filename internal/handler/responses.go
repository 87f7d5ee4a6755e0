package handler

import (
	"time"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/cart"
	"github.com/bookease/marketplace/internal/domain/order"
	"github.com/bookease/marketplace/internal/domain/review"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/wishlist"
)

// Response payloads mirror the storefront's JSON shape: camelCase keys
// and plain float prices.

type userResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       user.Role `json:"role"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	IsActive   bool      `json:"isActive"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Phone:      u.Phone,
		Address:    u.Address,
		IsActive:   u.IsActive,
		IsApproved: u.IsApproved,
		CreatedAt:  u.CreatedAt,
	}
}

type bookResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description,omitempty"`
	Price           float64   `json:"price"`
	OriginalPrice   float64   `json:"originalPrice,omitempty"`
	Stock           int       `json:"stock"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	Category        string    `json:"category,omitempty"`
	SellerID        string    `json:"sellerId"`
	ISBN            string    `json:"isbn,omitempty"`
	Language        string    `json:"language,omitempty"`
	Pages           int       `json:"pages,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationDate time.Time `json:"publicationDate,omitzero"`
	AverageRating   float64   `json:"averageRating"`
	TotalReviews    int       `json:"totalReviews"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toBookResponse(b *book.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Price:           b.Price.InexactFloat64(),
		OriginalPrice:   b.OriginalPrice.InexactFloat64(),
		Stock:           b.Stock,
		ImageURL:        b.ImageURL,
		Category:        b.Category,
		SellerID:        b.SellerID,
		ISBN:            b.ISBN,
		Language:        b.Language,
		Pages:           b.Pages,
		Publisher:       b.Publisher,
		PublicationDate: b.PublicationDate,
		AverageRating:   b.AverageRating.InexactFloat64(),
		TotalReviews:    b.TotalReviews,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
	}
}

type bookPageResponse struct {
	Books      []bookResponse `json:"books"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	Page       int            `json:"page"`
}

func toBookPageResponse(p *book.Page) bookPageResponse {
	books := make([]bookResponse, len(p.Books))
	for i := range p.Books {
		books[i] = toBookResponse(&p.Books[i])
	}
	return bookPageResponse{
		Books:      books,
		Total:      p.Total,
		TotalPages: p.TotalPages,
		Page:       p.Current,
	}
}

type cartEntryResponse struct {
	ItemID   string       `json:"itemId"`
	Quantity int          `json:"quantity"`
	Book     bookResponse `json:"book"`
}

type cartResponse struct {
	Items []cartEntryResponse `json:"items"`
	Total float64             `json:"total"`
}

func toCartResponse(entries []cart.Entry) cartResponse {
	resp := cartResponse{Items: make([]cartEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Items[i] = cartEntryResponse{
			ItemID:   e.Item.ID,
			Quantity: e.Item.Quantity,
			Book:     toBookResponse(&e.Book),
		}
		resp.Total += e.Book.Price.InexactFloat64() * float64(e.Item.Quantity)
	}
	return resp
}

type orderLineResponse struct {
	BookID   string  `json:"bookId"`
	SellerID string  `json:"sellerId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

type orderResponse struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"userId"`
	Lines              []orderLineResponse   `json:"items"`
	ShippingAddress    order.ShippingAddress `json:"shippingAddress"`
	TotalPrice         float64               `json:"totalPrice"`
	PaymentMethod      order.PaymentMethod   `json:"paymentMethod"`
	PaymentStatus      order.PaymentStatus   `json:"paymentStatus"`
	Status             order.Status          `json:"status"`
	TrackingID         string                `json:"trackingId"`
	ExpectedDelivery   *time.Time            `json:"expectedDelivery,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time            `json:"cancelledAt,omitempty"`
	CancellationReason string                `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	lines := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = orderLineResponse{
			BookID:   l.BookID,
			SellerID: l.SellerID,
			Quantity: l.Quantity,
			Price:    l.Price.InexactFloat64(),
			Title:    l.Title,
			Author:   l.Author,
			ImageURL: l.ImageURL,
		}
	}
	return orderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		Lines:              lines,
		ShippingAddress:    o.ShippingAddress,
		TotalPrice:         o.TotalPrice.InexactFloat64(),
		PaymentMethod:      o.PaymentMethod,
		PaymentStatus:      o.PaymentStatus,
		Status:             o.Status,
		TrackingID:         o.TrackingID,
		ExpectedDelivery:   o.ExpectedDelivery,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
	}
}

func toOrderListResponse(orders []order.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	return resp
}

type reviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookID    string    `json:"bookId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"isApproved"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(rv *review.Review) reviewResponse {
	return reviewResponse{
		ID:        rv.ID,
		UserID:    rv.UserID,
		BookID:    rv.BookID,
		Rating:    rv.Rating,
		Title:     rv.Title,
		Comment:   rv.Comment,
		Approved:  rv.Approved,
		CreatedAt: rv.CreatedAt,
	}
}

func toReviewListResponse(reviews []review.Review) []reviewResponse {
	resp := make([]reviewResponse, len(reviews))
	for i := range reviews {
		resp[i] = toReviewResponse(&reviews[i])
	}
	return resp
}

type wishlistEntryResponse struct {
	BookID  string       `json:"bookId"`
	AddedAt time.Time    `json:"addedAt"`
	Book    bookResponse `json:"book"`
}

func toWishlistResponse(entries []wishlist.Entry) []wishlistEntryResponse {
	resp := make([]wishlistEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = wishlistEntryResponse{
			BookID:  e.Item.BookID,
			AddedAt: e.Item.CreatedAt,
			Book:    toBookResponse(&e.Book),
		}
	}
	return resp
}
