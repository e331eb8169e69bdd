// Command catalog-import loads a gzipped JSON-lines catalog dump into the
// products table. Each line is one product:
//
//	{"name":"Sugar 1kg","barcode":"616...","price":"155.00","stock":60,"category":"Groceries"}
//
// Products are matched by barcode and upserted, so the importer is safe to
// re-run on refreshed supplier dumps.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dukapos/dukapos/internal/storage/postgres"
)

const (
	numWorkers    = 4
	progressEvery = 10_000
)

type productRow struct {
	Name     string
	Barcode  string
	Price    decimal.Decimal
	Stock    int
	Category string
}

func main() {
	var (
		catalogFile string
		databaseURL string
	)

	flag.StringVar(&catalogFile, "catalog-file", "data/catalog.jsonl.gz", "path to the gzipped JSON-lines catalog dump")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, catalogFile, databaseURL); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, catalogFile, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	rows := make(chan productRow, numWorkers*4)
	importer := &importer{pool: pool}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		return streamCatalog(ctx, catalogFile, rows)
	})
	for range numWorkers {
		g.Go(func() error {
			return importer.consume(ctx, rows)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("imported products", slog.Int64("count", importer.count.Load()))
	return nil
}

// streamCatalog reads the dump line by line and sends decoded rows.
func streamCatalog(ctx context.Context, path string, out chan<- productRow) error {
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
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var line int
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		row, err := decodeRow(scanner.Bytes())
		if err != nil {
			return errors.Wrapf(err, "decode line %d", line)
		}

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}

		if line%progressEvery == 0 {
			slog.Info("read progress", slog.Int("lines", line))
		}
	}

	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

func decodeRow(data []byte) (productRow, error) {
	var (
		row productRow
		d   = jx.DecodeBytes(data)
	)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			row.Name = v
			return err
		case "barcode":
			v, err := d.Str()
			row.Barcode = v
			return err
		case "price":
			v, err := d.Str()
			if err != nil {
				return err
			}
			row.Price, err = decimal.NewFromString(v)
			return err
		case "stock":
			v, err := d.Int()
			row.Stock = v
			return err
		case "category":
			v, err := d.Str()
			row.Category = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return row, err
	}

	switch {
	case row.Name == "":
		return row, errors.New("missing name")
	case row.Barcode == "":
		return row, errors.New("missing barcode")
	case row.Stock < 0:
		return row, errors.New("negative stock")
	}
	return row, nil
}

const (
	upsertCategorySQL = `INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductSQL = `INSERT INTO products (name, barcode, price, stock, category_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) WHERE barcode IS NOT NULL
		DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price,
			stock = EXCLUDED.stock, category_id = EXCLUDED.category_id`
)

type importer struct {
	pool  *pgxpool.Pool
	count atomic.Int64

	mu         sync.Mutex
	categories map[string]int64
}

// consume upserts rows until the channel closes.
func (im *importer) consume(ctx context.Context, rows <-chan productRow) error {
	for row := range rows {
		categoryID, err := im.categoryID(ctx, row.Category)
		if err != nil {
			return errors.Wrapf(err, "resolve category %q", row.Category)
		}

		if _, err := im.pool.Exec(ctx, upsertProductSQL,
			row.Name, row.Barcode, row.Price, row.Stock, categoryID); err != nil {
			return errors.Wrapf(err, "upsert product %s", row.Barcode)
		}

		if n := im.count.Add(1); n%progressEvery == 0 {
			slog.Info("write progress", slog.Int64("products", n))
		}
	}
	return nil
}

// categoryID resolves a category name to its id, creating it on first use.
func (im *importer) categoryID(ctx context.Context, name string) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.categories == nil {
		im.categories = make(map[string]int64)
	}
	if id, ok := im.categories[name]; ok {
		return id, nil
	}

	var id int64
	if err := im.pool.QueryRow(ctx, upsertCategorySQL, name).Scan(&id); err != nil {
		return 0, err
	}
	im.categories[name] = id
	return id, nil
}
