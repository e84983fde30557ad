package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// Source produces a full catalog snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// Cache is a thread-safe, read-mostly product lookup. It starts empty; call
// Reload to populate it from the source. On reload failure the cache is
// reset to empty so that stale data is never served (fail closed).
type Cache struct {
	source Source

	mu       sync.RWMutex
	products map[string]Product
}

var _ Lookup = (*Cache)(nil)

// NewCache creates an empty Cache backed by the given source.
func NewCache(source Source) *Cache {
	return &Cache{
		source:   source,
		products: map[string]Product{},
	}
}

// Reload replaces the cached catalog with a fresh snapshot from the source.
// On error every previously cached entry is dropped and the error returned;
// all subsequent lookups miss until the next successful reload.
func (c *Cache) Reload(ctx context.Context) error {
	products, err := c.source.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.products = map[string]Product{}
		c.mu.Unlock()
		return errors.Wrap(err, "fetch catalog")
	}

	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.products = byID
	c.mu.Unlock()
	return nil
}

// Resolve returns the product for the given ID.
func (c *Cache) Resolve(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	return p, ok
}

// Len reports the number of cached products.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// FeedSource fetches the catalog from an HTTP JSON feed. Feeds compressed
// with gzip (Content-Encoding header or a .gz URL suffix) are decompressed
// transparently.
type FeedSource struct {
	URL    string
	Client *http.Client
}

var _ Source = (*FeedSource)(nil)

// Fetch downloads and decodes the product feed.
func (s *FeedSource) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build feed request")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch feed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("feed returned status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" || strings.HasSuffix(s.URL, ".gz") {
		gz, err := pgzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "read feed body")
	}

	products, err := DecodeFeed(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode feed")
	}
	return products, nil
}

// DecodeFeed parses a JSON array of catalog products. Prices are accepted as
// JSON numbers or numeric strings.
func DecodeFeed(data []byte) ([]Product, error) {
	d := jx.DecodeBytes(data)

	var products []Product
	if err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "id":
				v, err := d.Str()
				p.ID = v
				return err
			case "name":
				v, err := d.Str()
				p.Name = v
				return err
			case "image":
				v, err := d.Str()
				p.Image = v
				return err
			case "category":
				v, err := d.Str()
				p.Category = v
				return err
			case "price":
				raw, err := d.Raw()
				if err != nil {
					return err
				}
				var price decimal.Decimal
				if err := price.UnmarshalJSON(raw); err != nil {
					return errors.Wrap(err, "parse price")
				}
				p.Price = price
				return nil
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if p.ID == "" {
			return errors.New("product entry missing id")
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, err
	}

	return products, nil
}
