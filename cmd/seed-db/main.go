// Command seed-db prepares a fresh database for development: it runs the
// migrations and upserts a demo staff account, categories, products, and
// customers so the API is usable immediately.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/dukapos/dukapos/internal/auth"
	"github.com/dukapos/dukapos/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	var (
		databaseURL   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&adminEmail, "admin-email", "admin@dukapos.local", "email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the seeded admin account (or DUKA_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("DUKA_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or DUKA_SEED_ADMIN_PASSWORD")
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

	if err := seedUsers(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedCatalog(ctx, pool); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedCustomers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	return nil
}

const upsertUserSQL = `INSERT INTO users (name, email, password_hash, role)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`

func seedUsers(ctx context.Context, pool *pgxpool.Pool, adminEmail, adminPassword string) error {
	slog.Info("seeding staff accounts")

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	accounts := []struct {
		name, email, role string
	}{
		{"Admin", adminEmail, "admin"},
		{"Demo Cashier", "cashier@dukapos.local", "cashier"},
	}

	for _, a := range accounts {
		if _, err := pool.Exec(ctx, upsertUserSQL, a.name, a.email, hash, a.role); err != nil {
			return errors.Wrapf(err, "upsert user %s", a.email)
		}
		slog.Info("upserted user", slog.String("email", a.email), slog.String("role", a.role))
	}

	return nil
}

const (
	upsertCategorySQL = `INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductSQL = `INSERT INTO products (name, barcode, price, stock, category_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (barcode) WHERE barcode IS NOT NULL
		DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock`
)

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding catalog")

	catalog := map[string][]struct {
		name    string
		barcode string
		price   string
		stock   int
	}{
		"Groceries": {
			{"Maize flour 2kg", "6161100001001", "185.00", 40},
			{"Cooking oil 1L", "6161100001002", "320.00", 25},
			{"Sugar 1kg", "6161100001003", "155.00", 60},
		},
		"Beverages": {
			{"Chai blend 250g", "6161100002001", "95.00", 30},
			{"Drinking water 5L", "6161100002002", "130.00", 50},
		},
		"Household": {
			{"Bar soap 800g", "6161100003001", "110.00", 45},
			{"Matches 10-pack", "6161100003002", "35.00", 100},
		},
	}

	for category, products := range catalog {
		var categoryID int64
		if err := pool.QueryRow(ctx, upsertCategorySQL, category).Scan(&categoryID); err != nil {
			return errors.Wrapf(err, "upsert category %s", category)
		}

		for _, p := range products {
			price, err := decimal.NewFromString(p.price)
			if err != nil {
				return errors.Wrapf(err, "parse price for %s", p.name)
			}
			if _, err := pool.Exec(ctx, upsertProductSQL, p.name, p.barcode, price, p.stock, categoryID); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.name)
			}
			slog.Info("upserted product", slog.String("name", p.name), slog.String("category", category))
		}
	}

	return nil
}

const insertCustomerSQL = `INSERT INTO customers (name, email, phone, shop_card_number)
	SELECT $1, $2, $3, $4
	WHERE NOT EXISTS (SELECT 1 FROM customers WHERE name = $1)`

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding customers")

	customers := []struct {
		name, email, phone, card string
	}{
		{"Wanjiru Kamau", "wanjiru@example.com", "+254700000001", "SC-1001"},
		{"Brian Otieno", "", "+254700000002", ""},
	}

	for _, c := range customers {
		if _, err := pool.Exec(ctx, insertCustomerSQL, c.name, c.email, c.phone, c.card); err != nil {
			return errors.Wrapf(err, "insert customer %s", c.name)
		}
		slog.Info("seeded customer", slog.String("name", c.name))
	}

	return nil
}
