package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/kvateru/storefront/internal/domain/catalog"
)

// Service encapsulates cart business logic: catalog validation, snapshot
// capture, and delegation to the repository.
type Service struct {
	catalog catalog.Lookup
	carts   Repository
}

// NewService creates a cart Service.
func NewService(catalog catalog.Lookup, carts Repository) *Service {
	return &Service{
		catalog: catalog,
		carts:   carts,
	}
}

// Lines returns the user's current cart.
func (s *Service) Lines(ctx context.Context, userID string) ([]Line, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return lines, nil
}

// AddOrMerge resolves every requested item against the catalog and upserts
// it into the cart: quantities of already-carted products are incremented,
// new products are appended with a fresh snapshot. The updated cart is
// returned.
func (s *Service) AddOrMerge(ctx context.Context, userID string, items []Item) ([]Line, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	lines := make([]Line, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		p, ok := s.catalog.Resolve(item.ProductID)
		if !ok {
			return nil, &catalog.NotFoundError{ProductID: item.ProductID}
		}
		lines[i] = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Category:  p.Category,
			Quantity:  item.Quantity,
		}
	}

	if err := s.carts.MergeAdd(ctx, userID, lines); err != nil {
		return nil, errors.Wrap(err, "merge cart lines")
	}

	updated, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return updated, nil
}

// Remove deletes every cart line matching the given product IDs and returns
// the removal count. Matching nothing is an error: the client referenced
// products that are not in the cart.
func (s *Service) Remove(ctx context.Context, userID string, productIDs []string) (int64, error) {
	if len(productIDs) == 0 {
		return 0, ErrEmptyItems
	}

	removed, err := s.carts.Remove(ctx, userID, productIDs)
	if err != nil {
		return 0, errors.Wrap(err, "remove cart lines")
	}
	if removed == 0 {
		return 0, ErrNoMatchingProducts
	}
	return removed, nil
}

// SetQuantity overwrites the quantity of a single cart line. The last write
// wins; quantities below one are rejected.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}

	found, err := s.carts.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return errors.Wrap(err, "set quantity")
	}
	if !found {
		return ErrLineNotFound
	}
	return nil
}
