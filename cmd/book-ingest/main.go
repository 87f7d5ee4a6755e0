// Command book-ingest bulk-loads gzipped NDJSON catalog dumps, the
// format large sellers deliver their backlists in. Files are parsed
// concurrently; ISBNs are deduplicated across all files with a bloom
// filter before anything reaches the database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bookease/marketplace/internal/domain/book"
	"github.com/bookease/marketplace/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

func main() {
	var (
		dataDir     string
		databaseURL string
		sellerID    string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalog dump *.ndjson.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&sellerID, "seller-id", "", "seller account that owns the ingested books")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sellerID == "" {
		slog.Error("seller ID is required: set --seller-id")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, sellerID); err != nil {
		slog.Error("book ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("book ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, sellerID string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.ndjson.gz"))
	if err != nil {
		return errors.Wrap(err, "glob dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.ndjson.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	books := postgres.NewBookRepository(pool)

	// The bloom filter rejects repeated ISBNs across all files without
	// holding every seen ISBN in memory. The false-positive rate means
	// roughly one legitimate record per thousand is skipped; bulk
	// onboarding tolerates that, re-running the ingest does not.
	var (
		mu   sync.Mutex
		seen = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	)
	isbnSeen := func(isbn string) bool {
		mu.Lock()
		defer mu.Unlock()
		return seen.TestAndAddString(isbn)
	}

	records := make(chan *book.Book, 1024)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeBooks(ctx, books, records)
	})
	g.Go(func() error {
		defer close(records)

		parsers, ctx := errgroup.WithContext(ctx)
		for i, f := range files {
			parsers.Go(parseFile(ctx, i, f, sellerID, isbnSeen, records))
		}
		return parsers.Wait()
	})

	return g.Wait()
}

// parseFile streams one gzipped NDJSON file, parsing each line into a
// catalog record and forwarding the ones passing validation and the
// ISBN dedupe.
func parseFile(
	ctx context.Context,
	idx int,
	path string,
	sellerID string,
	isbnSeen func(string) bool,
	out chan<- *book.Book,
) func() error {
	return func() error {
		var count, skipped uint64

		err := streamGzFile(ctx, path, func(line []byte) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress",
					slog.Int("file", idx+1),
					slog.Uint64("records", count),
				)
			}

			b, err := parseRecord(line, sellerID)
			if err != nil {
				return errors.Wrapf(err, "record %d", count)
			}
			if b.Title == "" || b.Author == "" {
				skipped++
				return nil
			}
			if b.ISBN != "" && isbnSeen(b.ISBN) {
				skipped++
				return nil
			}

			select {
			case out <- b:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "stream %s", path)
		}

		slog.Info("parse complete",
			slog.Int("file", idx+1),
			slog.Uint64("records", count),
			slog.Uint64("skipped", skipped),
		)
		return nil
	}
}

// parseRecord decodes a single NDJSON catalog record.
func parseRecord(line []byte, sellerID string) (*book.Book, error) {
	now := time.Now().UTC()
	b := &book.Book{
		ID:        uuid.New().String(),
		SellerID:  sellerID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	d := jx.DecodeBytes(line)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "title":
			return strField(d, &b.Title)
		case "author":
			return strField(d, &b.Author)
		case "description":
			return strField(d, &b.Description)
		case "price":
			return decField(d, &b.Price)
		case "originalPrice":
			return decField(d, &b.OriginalPrice)
		case "stock":
			n, err := d.Int()
			b.Stock = n
			return err
		case "imageUrl":
			return strField(d, &b.ImageURL)
		case "category":
			return strField(d, &b.Category)
		case "isbn":
			return strField(d, &b.ISBN)
		case "language":
			return strField(d, &b.Language)
		case "pages":
			n, err := d.Int()
			b.Pages = n
			return err
		case "publisher":
			return strField(d, &b.Publisher)
		case "publicationDate":
			s, err := d.Str()
			if err != nil {
				return err
			}
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				return errors.Wrap(err, "publication date")
			}
			b.PublicationDate = t
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}

	b.ISBN = strings.TrimSpace(b.ISBN)
	return b, nil
}

func strField(d *jx.Decoder, dst *string) error {
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func decField(d *jx.Decoder, dst *decimal.Decimal) error {
	raw, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(raw.String())
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each
// non-empty line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// writeBooks drains the record channel into the catalog.
func writeBooks(ctx context.Context, books book.Repository, records <-chan *book.Book) error {
	var written, skipped int
	for b := range records {
		if err := books.Create(ctx, b); err != nil {
			// Re-runs against a populated catalog hit the ISBN index;
			// the bloom filter only dedupes within a single run.
			if errors.Is(err, book.ErrISBNTaken) {
				skipped++
				continue
			}
			return errors.Wrapf(err, "create book %q", b.Title)
		}
		written++
		if written%1000 == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}
	slog.Info("write complete", slog.Int("written", written), slog.Int("skipped", skipped))
	return nil
}
