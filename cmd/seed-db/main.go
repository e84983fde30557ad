// Command seed-db prepares a local development database: it runs the schema
// migrations and seeds a demo user whose cart holds the first few products
// from the live catalog feed.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/kvateru/storefront/internal/domain/cart"
	"github.com/kvateru/storefront/internal/domain/catalog"
	"github.com/kvateru/storefront/internal/domain/user"
	"github.com/kvateru/storefront/internal/storage/postgres"
)

const demoCartSize = 3

// staticSource adapts an in-memory product slice to catalog.Source.
type staticSource []catalog.Product

func (s staticSource) Fetch(context.Context) ([]catalog.Product, error) {
	return s, nil
}

func main() {
	var (
		databaseURL string
		feedURL     string
		subject     string
		email       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&feedURL, "feed-url", "", "catalog feed URL (or SHOP_CATALOG_FEED_URL env)")
	flag.StringVar(&subject, "subject", "demo-user", "identity subject for the demo user")
	flag.StringVar(&email, "email", "demo@example.com", "email for the demo user")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if feedURL == "" {
		feedURL = os.Getenv("SHOP_CATALOG_FEED_URL")
	}
	if feedURL == "" {
		slog.Error("feed URL is required: set --feed-url or SHOP_CATALOG_FEED_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, feedURL, subject, email); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, feedURL, subject, email string) error {
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

	slog.Info("loading catalog", slog.String("feed", feedURL))

	source := &catalog.FeedSource{URL: feedURL, Client: &http.Client{Timeout: 30 * time.Second}}
	products, err := source.Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch catalog feed")
	}
	if len(products) == 0 {
		return errors.New("catalog feed is empty, nothing to seed")
	}

	// Feed is already in hand; back the cache with the fetched snapshot
	// instead of hitting the feed a second time.
	cache := catalog.NewCache(staticSource(products))
	if err := cache.Reload(ctx); err != nil {
		return errors.Wrap(err, "load catalog")
	}

	slog.Info("seeding demo user", slog.String("subject", subject))

	resolver := user.NewResolver(postgres.NewUserRepository(pool))
	u, err := resolver.Resolve(ctx, subject, email)
	if err != nil {
		return errors.Wrap(err, "resolve demo user")
	}

	carts := cart.NewService(cache, postgres.NewCartRepository(pool))

	items := make([]cart.Item, 0, demoCartSize)
	for _, p := range products {
		items = append(items, cart.Item{ProductID: p.ID, Quantity: 1})
		if len(items) == demoCartSize {
			break
		}
	}

	lines, err := carts.AddOrMerge(ctx, u.ID, items)
	if err != nil {
		return errors.Wrap(err, "seed demo cart")
	}

	slog.Info("seeded demo cart", slog.String("user_id", u.ID), slog.Int("lines", len(lines)))
	return nil
}
