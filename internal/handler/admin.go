package handler

import (
	"net/http"
	"time"

	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/domain/validation"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	resp := make([]userResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	respond(w, http.StatusOK, resp)
}

type updateUserRequest struct {
	Role       *user.Role `json:"role"`
	IsActive   *bool      `json:"isActive"`
	IsApproved *bool      `json:"isApproved"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		respondDomainError(w, r, validation.Errorf("unknown role %q", *req.Role))
		return
	}

	u, err := h.users.Update(r.Context(), r.PathValue("id"), user.Update{
		Role:       req.Role,
		IsActive:   req.IsActive,
		IsApproved: req.IsApproved,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderListResponse(orders))
}

type analyticsResponse struct {
	TotalUsers     int                   `json:"totalUsers"`
	TotalCustomers int                   `json:"totalCustomers"`
	TotalSellers   int                   `json:"totalSellers"`
	TotalBooks     int                   `json:"totalBooks"`
	TotalOrders    int                   `json:"totalOrders"`
	TotalRevenue   float64               `json:"totalRevenue"`
	TopCategories  []categoryResponse    `json:"topCategories"`
	MonthlySales   []monthlySaleResponse `json:"monthlySales"`
	RecentOrders   []recentOrderResponse `json:"recentOrders"`
}

type categoryResponse struct {
	Category string `json:"category"`
	Books    int    `json:"books"`
}

type monthlySaleResponse struct {
	Month  string  `json:"month"`
	Orders int     `json:"orders"`
	Sales  float64 `json:"sales"`
}

type recentOrderResponse struct {
	ID         string    `json:"id"`
	TrackingID string    `json:"trackingId"`
	Customer   string    `json:"customer"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	o, err := h.stats.Overview(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := analyticsResponse{
		TotalUsers:     o.TotalUsers,
		TotalCustomers: o.TotalCustomers,
		TotalSellers:   o.TotalSellers,
		TotalBooks:     o.TotalBooks,
		TotalOrders:    o.TotalOrders,
		TotalRevenue:   o.TotalRevenue.InexactFloat64(),
		TopCategories:  make([]categoryResponse, len(o.TopCategories)),
		MonthlySales:   make([]monthlySaleResponse, len(o.MonthlySales)),
		RecentOrders:   make([]recentOrderResponse, len(o.RecentOrders)),
	}
	for i, c := range o.TopCategories {
		resp.TopCategories[i] = categoryResponse{Category: c.Category, Books: c.Books}
	}
	for i, m := range o.MonthlySales {
		resp.MonthlySales[i] = monthlySaleResponse{
			Month:  m.Month.Format("2006-01"),
			Orders: m.Orders,
			Sales:  m.Sales.InexactFloat64(),
		}
	}
	for i, ro := range o.RecentOrders {
		resp.RecentOrders[i] = recentOrderResponse{
			ID:         ro.ID,
			TrackingID: ro.TrackingID,
			Customer:   ro.Customer,
			TotalPrice: ro.TotalPrice.InexactFloat64(),
			Status:     ro.Status,
			CreatedAt:  ro.CreatedAt,
		}
	}
	respond(w, http.StatusOK, resp)
}
