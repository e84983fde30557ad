package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvateru/storefront/internal/domain/catalog"
)

// stubCatalog is a map-backed catalog.Lookup.
type stubCatalog map[string]catalog.Product

func (s stubCatalog) Resolve(id string) (catalog.Product, bool) {
	p, ok := s[id]
	return p, ok
}

func testCatalog() stubCatalog {
	return stubCatalog{
		"p1": {ID: "p1", Name: "Waffle", Image: "waffle.jpg", Price: decimal.NewFromInt(10), Category: "Dessert"},
		"p2": {ID: "p2", Name: "Tiramisu", Image: "tiramisu.jpg", Price: decimal.RequireFromString("5.50"), Category: "Dessert"},
	}
}

// fakeCartRepo keeps insertion order, mirroring the storage layer's stable
// ordering by added_at then product ID.
type fakeCartRepo struct {
	lines []Line
}

func (f *fakeCartRepo) find(productID string) *Line {
	for i := range f.lines {
		if f.lines[i].ProductID == productID {
			return &f.lines[i]
		}
	}
	return nil
}

func (f *fakeCartRepo) Lines(context.Context, string) ([]Line, error) {
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeCartRepo) MergeAdd(_ context.Context, _ string, lines []Line) error {
	for _, l := range lines {
		if existing := f.find(l.ProductID); existing != nil {
			existing.Quantity += l.Quantity
			continue
		}
		f.lines = append(f.lines, l)
	}
	return nil
}

func (f *fakeCartRepo) Remove(_ context.Context, _ string, productIDs []string) (int64, error) {
	match := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		match[id] = struct{}{}
	}
	var kept []Line
	var removed int64
	for _, l := range f.lines {
		if _, ok := match[l.ProductID]; ok {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	f.lines = kept
	return removed, nil
}

func (f *fakeCartRepo) SetQuantity(_ context.Context, _ string, productID string, quantity int) (bool, error) {
	if existing := f.find(productID); existing != nil {
		existing.Quantity = quantity
		return true, nil
	}
	return false, nil
}

var _ Repository = (*fakeCartRepo)(nil)

func TestService_AddOrMerge(t *testing.T) {
	s := NewService(testCatalog(), &fakeCartRepo{})
	ctx := context.Background()

	lines, err := s.AddOrMerge(ctx, "u1", []Item{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Waffle", lines[0].Name)
	assert.Equal(t, "waffle.jpg", lines[0].Image)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(lines[0].Price))

	// Re-adding the same product merges quantities instead of duplicating.
	lines, err = s.AddOrMerge(ctx, "u1", []Item{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, "p2", lines[1].ProductID)
}

func TestService_AddOrMerge_SplitEquivalence(t *testing.T) {
	ctx := context.Background()

	// Adding quantity 5 in one call and as 2+3 across calls must end in the
	// same cart.
	one := NewService(testCatalog(), &fakeCartRepo{})
	single, err := one.AddOrMerge(ctx, "u1", []Item{{ProductID: "p1", Quantity: 5}})
	require.NoError(t, err)

	two := NewService(testCatalog(), &fakeCartRepo{})
	_, err = two.AddOrMerge(ctx, "u1", []Item{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	split, err := two.AddOrMerge(ctx, "u1", []Item{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)

	assert.Equal(t, single, split)
}

func TestService_AddOrMerge_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty items",
			items: nil,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyItems)
			},
		},
		{
			name:  "zero quantity",
			items: []Item{{ProductID: "p1", Quantity: 0}},
			check: func(t *testing.T, err error) {
				var invalid *InvalidQuantityError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, "p1", invalid.ProductID)
			},
		},
		{
			name:  "negative quantity",
			items: []Item{{ProductID: "p1", Quantity: -2}},
			check: func(t *testing.T, err error) {
				var invalid *InvalidQuantityError
				require.ErrorAs(t, err, &invalid)
			},
		},
		{
			name:  "unknown product",
			items: []Item{{ProductID: "ghost", Quantity: 1}},
			check: func(t *testing.T, err error) {
				var notFound *catalog.NotFoundError
				require.ErrorAs(t, err, &notFound)
				assert.Equal(t, "ghost", notFound.ProductID)
			},
		},
		{
			name: "any invalid item rejects the batch",
			items: []Item{
				{ProductID: "p1", Quantity: 1},
				{ProductID: "ghost", Quantity: 1},
			},
			check: func(t *testing.T, err error) {
				var notFound *catalog.NotFoundError
				require.ErrorAs(t, err, &notFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeCartRepo{}
			s := NewService(testCatalog(), repo)

			_, err := s.AddOrMerge(context.Background(), "u1", tt.items)
			tt.check(t, err)
			assert.Empty(t, repo.lines, "failed batch must not touch the cart")
		})
	}
}

func TestService_Remove(t *testing.T) {
	repo := &fakeCartRepo{}
	s := NewService(testCatalog(), repo)
	ctx := context.Background()

	_, err := s.AddOrMerge(ctx, "u1", []Item{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 2},
	})
	require.NoError(t, err)

	// Unmatched IDs alongside matched ones are fine.
	removed, err := s.Remove(ctx, "u1", []string{"p1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	lines, err := s.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)

	_, err = s.Remove(ctx, "u1", []string{"ghost"})
	require.ErrorIs(t, err, ErrNoMatchingProducts)

	_, err = s.Remove(ctx, "u1", nil)
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestService_SetQuantity(t *testing.T) {
	repo := &fakeCartRepo{}
	s := NewService(testCatalog(), repo)
	ctx := context.Background()

	_, err := s.AddOrMerge(ctx, "u1", []Item{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	// Last write wins, absolute not additive.
	require.NoError(t, s.SetQuantity(ctx, "u1", "p1", 7))
	require.NoError(t, s.SetQuantity(ctx, "u1", "p1", 3))

	lines, err := s.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	require.ErrorIs(t, s.SetQuantity(ctx, "u1", "ghost", 1), ErrLineNotFound)

	var invalid *InvalidQuantityError
	require.ErrorAs(t, s.SetQuantity(ctx, "u1", "p1", 0), &invalid)
}
