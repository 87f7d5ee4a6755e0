// Command seed-db provisions the demo admin account and a starter
// catalog so a fresh deployment has something to browse.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/domain/user"
	"github.com/bookease/marketplace/internal/storage/postgres"
)

func main() {
	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@bookease.com", "demo admin email")
	flag.StringVar(&adminPassword, "admin-password", "", "demo admin password (or BOOKEASE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("BOOKEASE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or BOOKEASE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	users := postgres.NewUserRepository(pool)
	books := postgres.NewBookRepository(pool)

	admin, err := seedAdmin(ctx, users, adminEmail, adminPassword)
	if err != nil {
		return errors.Wrap(err, "seed admin")
	}

	if err := seedBooks(ctx, books, admin.ID); err != nil {
		return errors.Wrap(err, "seed books")
	}

	return nil
}

func seedAdmin(ctx context.Context, users user.Repository, email, password string) (*user.User, error) {
	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		slog.Info("demo admin already exists", slog.String("email", email))
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, errors.Wrap(err, "look up admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	admin := &user.User{
		ID:           uuid.New().String(),
		Name:         "Demo Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleAdmin,
		IsActive:     true,
		IsApproved:   true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, errors.Wrap(err, "create admin")
	}

	slog.Info("created demo admin", slog.String("email", email))
	return admin, nil
}

func seedBooks(ctx context.Context, books book.Repository, sellerID string) error {
	page, err := books.List(ctx, book.Filter{PerPage: 1})
	if err != nil {
		return errors.Wrap(err, "count books")
	}
	if page.Total > 0 {
		slog.Info("demo books already exist", slog.Int("count", page.Total))
		return nil
	}

	now := time.Now().UTC()
	demo := []book.Book{
		{
			Title:           "The Alchemist",
			Author:          "Paulo Coelho",
			Description:     "A boy's mystical journey to follow his dream.",
			Price:           decimal.NewFromInt(299),
			OriginalPrice:   decimal.NewFromInt(399),
			Stock:           25,
			Category:        "Fiction",
			ImageURL:        "https://m.media-amazon.com/images/I/51Z0nLAfLmL.jpg",
			ISBN:            "9780061122415",
			Language:        "English",
			Pages:           208,
			Publisher:       "HarperOne",
			PublicationDate: time.Date(1993, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:           "Atomic Habits",
			Author:          "James Clear",
			Description:     "A proven system to build good habits and break bad ones.",
			Price:           decimal.NewFromInt(350),
			OriginalPrice:   decimal.NewFromInt(499),
			Stock:           30,
			Category:        "Self-Help",
			ImageURL:        "https://m.media-amazon.com/images/I/91bYsX41DVL.jpg",
			ISBN:            "9780735211292",
			Language:        "English",
			Pages:           320,
			Publisher:       "Avery",
			PublicationDate: time.Date(2018, 10, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:           "Sapiens: A Brief History of Humankind",
			Author:          "Yuval Noah Harari",
			Description:     "An exploration of human evolution and history.",
			Price:           decimal.NewFromInt(450),
			OriginalPrice:   decimal.NewFromInt(600),
			Stock:           15,
			Category:        "History",
			ImageURL:        "https://m.media-amazon.com/images/I/713jIoMO3UL.jpg",
			ISBN:            "9780062316097",
			Language:        "English",
			Pages:           464,
			Publisher:       "Harper",
			PublicationDate: time.Date(2015, 2, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for i := range demo {
		b := demo[i]
		b.ID = uuid.New().String()
		b.SellerID = sellerID
		b.IsActive = true
		b.CreatedAt = now
		b.UpdatedAt = now

		if err := books.Create(ctx, &b); err != nil {
			return errors.Wrapf(err, "create book %q", b.Title)
		}
		slog.Info("created demo book", slog.String("title", b.Title))
	}

	return nil
}
