package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvateru/storefront/internal/domain/promo"
)

// fakeOrderRepo is an in-memory order.Repository implementing the documented
// contract, including the review guard and the cart-strip bookkeeping.
type fakeOrderRepo struct {
	orders  map[string][]*Order  // userID -> ordered sequence
	images  map[string][][]byte  // orderID -> blobs
	cleared map[string][]string  // userID -> product IDs stripped on create
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  map[string][]*Order{},
		images:  map[string][][]byte{},
		cleared: map[string][]string{},
	}
}

func (f *fakeOrderRepo) find(userID, orderID string) *Order {
	for _, o := range f.orders[userID] {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

func (f *fakeOrderRepo) Create(_ context.Context, userID string, o *Order, clearProducts []string) error {
	cp := *o
	f.orders[userID] = append(f.orders[userID], &cp)
	f.cleared[userID] = append(f.cleared[userID], clearProducts...)
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, userID string) ([]Order, error) {
	out := make([]Order, len(f.orders[userID]))
	for i, o := range f.orders[userID] {
		out[i] = *o
	}
	return out, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, userID string, o *Order) (bool, error) {
	existing := f.find(userID, o.ID)
	if existing == nil {
		return false, nil
	}
	review := existing.Review
	*existing = *o
	existing.Review = review
	return true, nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, userID, orderID string) (bool, error) {
	seq := f.orders[userID]
	for i, o := range seq {
		if o.ID == orderID {
			f.orders[userID] = append(seq[:i], seq[i+1:]...)
			delete(f.images, orderID)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderRepo) CreateReview(_ context.Context, userID, orderID, comment string, rating int, images [][]byte) error {
	o := f.find(userID, orderID)
	if o == nil {
		return ErrNotFound
	}
	if o.Review != nil {
		return ErrAlreadyReviewed
	}
	o.Review = &Review{Comment: comment, Rating: rating, ImageCount: len(images)}
	f.images[orderID] = images
	return nil
}

func (f *fakeOrderRepo) DeleteReview(_ context.Context, userID, orderID string) (bool, error) {
	o := f.find(userID, orderID)
	if o == nil || o.Review == nil {
		return false, nil
	}
	o.Review = nil
	delete(f.images, orderID)
	return true, nil
}

func (f *fakeOrderRepo) ReviewImage(_ context.Context, userID, orderID string, index int) ([]byte, error) {
	o := f.find(userID, orderID)
	if o == nil || o.Review == nil {
		return nil, ErrImageNotFound
	}
	images := f.images[orderID]
	if index < 0 || index >= len(images) {
		return nil, ErrImageNotFound
	}
	return images[index], nil
}

var _ Repository = (*fakeOrderRepo)(nil)

func newTestService(repo Repository) (*Service, stubCatalog) {
	cat := testCatalog()
	s := NewService(NewQuoter(cat, testPromos()), repo)
	return s, cat
}

const testUser = "user-1"

func TestService_Create(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)
	fixedNow := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixedNow }

	o, err := s.Create(context.Background(), testUser,
		[]Item{{ProductID: "p1", Quantity: 2}}, "123", "456")
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(o.Total))
	assert.Equal(t, "Courier", o.ShippingMethod)
	assert.Equal(t, fixedNow, o.CreatedAt)
	require.NotNil(t, o.Coupon)
	assert.Equal(t, "123", o.Coupon.Code)

	// The ordered products were stripped from the cart in the same call.
	assert.Equal(t, []string{"p1"}, repo.cleared[testUser])
}

func TestService_Create_SnapshotIsolation(t *testing.T) {
	repo := newFakeOrderRepo()
	s, cat := newTestService(repo)

	o, err := s.Create(context.Background(), testUser,
		[]Item{{ProductID: "p1", Quantity: 2}}, "", "free")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(20).Equal(o.Total))

	// Raising the catalog price must not retroactively change the order.
	p := cat["p1"]
	p.Price = decimal.NewFromInt(1000)
	cat["p1"] = p

	orders, err := s.List(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(orders[0].Total))
	assert.True(t, decimal.NewFromInt(10).Equal(orders[0].Lines[0].Price))
}

func TestService_CreateDeleteRecreate(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)
	items := []Item{{ProductID: "p1", Quantity: 2}}

	first, err := s.Create(context.Background(), testUser, items, "123", "456")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), testUser, first.ID))

	second, err := s.Create(context.Background(), testUser, items, "123", "456")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.Total.Equal(second.Total))
}

func TestService_Delete_NotFound(t *testing.T) {
	s, _ := newTestService(newFakeOrderRepo())

	err := s.Delete(context.Background(), testUser, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Edit(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	edited := created.Add(48 * time.Hour)
	s.now = func() time.Time { return created }

	o, err := s.Create(context.Background(), testUser,
		[]Item{{ProductID: "p1", Quantity: 2}}, "123", "456")
	require.NoError(t, err)

	// Attach a review; the edit must leave it alone.
	require.NoError(t, s.AddReview(context.Background(), testUser, o.ID, "great", 5, nil))

	s.now = func() time.Time { return edited }
	updated, err := s.Edit(context.Background(), testUser, o.ID,
		[]Item{{ProductID: "p2", Quantity: 1}}, "", "free")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("5.50").Equal(updated.Total))
	assert.Equal(t, "Pickup", updated.ShippingMethod)
	assert.Nil(t, updated.Coupon, "coupon is cleared, not left stale")
	assert.Equal(t, edited, updated.CreatedAt)

	orders, err := s.List(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].Review, "edit must not touch the review")
	assert.Equal(t, 5, orders[0].Review.Rating)
	assert.Equal(t, edited, orders[0].CreatedAt)
}

func TestService_Edit_NotFound(t *testing.T) {
	s, _ := newTestService(newFakeOrderRepo())

	_, err := s.Edit(context.Background(), testUser, "missing",
		[]Item{{ProductID: "p1", Quantity: 1}}, "", "free")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Edit_ClearsUnknownCoupon(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)

	o, err := s.Create(context.Background(), testUser,
		[]Item{{ProductID: "p1", Quantity: 1}}, "123", "456")
	require.NoError(t, err)
	require.NotNil(t, o.Coupon)

	updated, err := s.Edit(context.Background(), testUser, o.ID,
		[]Item{{ProductID: "p1", Quantity: 1}}, "EXPIRED", "456")
	require.NoError(t, err)
	assert.Nil(t, updated.Coupon)
	assert.True(t, decimal.NewFromInt(110).Equal(updated.Total))
}

func TestService_Edit_RequiresShipping(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)

	o, err := s.Create(context.Background(), testUser,
		[]Item{{ProductID: "p1", Quantity: 1}}, "", "456")
	require.NoError(t, err)

	// Unlike a stale coupon, shipping never degrades: an empty ID rejects the
	// edit and leaves the stored order untouched.
	_, err = s.Edit(context.Background(), testUser, o.ID,
		[]Item{{ProductID: "p1", Quantity: 1}}, "", "")
	require.ErrorIs(t, err, promo.ErrUnknownShipping)

	orders, err := s.List(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ShippingMethod, orders[0].ShippingMethod)
}

func TestService_Reviews(t *testing.T) {
	repo := newFakeOrderRepo()
	s, _ := newTestService(repo)
	ctx := context.Background()

	o, err := s.Create(ctx, testUser, []Item{{ProductID: "p1", Quantity: 1}}, "", "free")
	require.NoError(t, err)

	img0 := []byte{0xFF, 0xD8, 0x01}
	img1 := []byte{0xFF, 0xD8, 0x02}

	t.Run("invalid rating", func(t *testing.T) {
		require.ErrorIs(t, s.AddReview(ctx, testUser, o.ID, "", 0, nil), ErrInvalidRating)
		require.ErrorIs(t, s.AddReview(ctx, testUser, o.ID, "", 6, nil), ErrInvalidRating)
	})

	t.Run("too many images", func(t *testing.T) {
		six := make([][]byte, 6)
		require.ErrorIs(t, s.AddReview(ctx, testUser, o.ID, "", 4, six), ErrTooManyImages)
	})

	t.Run("order not found", func(t *testing.T) {
		require.ErrorIs(t, s.AddReview(ctx, testUser, "missing", "", 4, nil), ErrNotFound)
	})

	t.Run("add then conflict", func(t *testing.T) {
		require.NoError(t, s.AddReview(ctx, testUser, o.ID, "tasty", 4, [][]byte{img0, img1}))
		require.ErrorIs(t, s.AddReview(ctx, testUser, o.ID, "again", 5, nil), ErrAlreadyReviewed)
	})

	t.Run("image bytes round-trip", func(t *testing.T) {
		got, err := s.ReviewImage(ctx, testUser, o.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, img1, got)
	})

	t.Run("image index out of bounds", func(t *testing.T) {
		_, err := s.ReviewImage(ctx, testUser, o.ID, 2)
		require.ErrorIs(t, err, ErrImageNotFound)
		_, err = s.ReviewImage(ctx, testUser, o.ID, -1)
		require.ErrorIs(t, err, ErrImageNotFound)
	})

	t.Run("delete then add again", func(t *testing.T) {
		require.NoError(t, s.DeleteReview(ctx, testUser, o.ID))
		require.ErrorIs(t, s.DeleteReview(ctx, testUser, o.ID), ErrReviewNotFound)
		require.NoError(t, s.AddReview(ctx, testUser, o.ID, "second take", 3, nil))
	})
}
