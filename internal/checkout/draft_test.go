package checkout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

func draftStores(t *testing.T) map[string]DraftStore {
	t.Helper()
	files, err := NewFileDrafts(t.TempDir())
	require.NoError(t, err)
	return map[string]DraftStore{
		"memory": NewMemoryDrafts(),
		"file":   files,
	}
}

func TestDraftStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range draftStores(t) {
		t.Run(name, func(t *testing.T) {
			var missing domain.CustomerProfile
			found, err := store.Load(ctx, ProfileKey, &missing)
			require.NoError(t, err)
			assert.False(t, found)

			want := validProfile()
			require.NoError(t, store.Save(ctx, ProfileKey, want))

			var got domain.CustomerProfile
			found, err = store.Load(ctx, ProfileKey, &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)

			require.NoError(t, store.Remove(ctx, ProfileKey, CartKey))
			found, err = store.Load(ctx, ProfileKey, &got)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestFileDrafts_RejectsPathKeys(t *testing.T) {
	store, err := NewFileDrafts(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc", "a/b", `a\b`} {
		err := store.Save(context.Background(), key, 1)
		assert.Error(t, err, "key %q", key)
	}
}

func TestFileDrafts_CorruptDraft(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDrafts(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, CartKey+".json"), []byte("{not json"), 0o644))

	_, err = NewCart(store).Items(context.Background())
	assert.ErrorContains(t, err, "decode draft tacoCart")
}

func TestCart(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(NewMemoryDrafts())

	taco := domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(150), Quantity: 1}
	shake := domain.LineItem{Name: "Shake", Price: decimal.NewFromInt(90), Quantity: 2}

	require.NoError(t, cart.AddItem(ctx, taco))
	require.NoError(t, cart.AddItem(ctx, shake))
	require.NoError(t, cart.AddItem(ctx, taco))

	items, err := cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, cart.SetQuantity(ctx, "Shake", 5))
	items, err = cart.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, items[1].Quantity)

	require.NoError(t, cart.RemoveItem(ctx, "Taco"))
	items, err = cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Shake", items[0].Name)

	require.NoError(t, cart.ClearCart(ctx))
	items, err = cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_AddItemRejectsBadLines(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(NewMemoryDrafts())

	err := cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(10), Quantity: 0})
	assert.ErrorContains(t, err, "quantity must be at least 1")

	err = cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(-10), Quantity: 1})
	assert.ErrorContains(t, err, "price must not be negative")

	err = cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(10), Quantity: MaxQuantity + 1})
	assert.ErrorContains(t, err, "quantity must be at most")

	err = cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.RequireFromString("0.005"), Quantity: 1})
	assert.ErrorContains(t, err, "at most 2 decimal places")

	err = cart.SetQuantity(ctx, "Taco", MaxQuantity+1)
	assert.ErrorContains(t, err, "quantity must be at most")
}

func TestCart_AddItemCapsMergedQuantity(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(NewMemoryDrafts())

	require.NoError(t, cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(10), Quantity: MaxQuantity}))

	err := cart.AddItem(ctx, domain.LineItem{Name: "Taco", Price: decimal.NewFromInt(10), Quantity: 1})
	assert.ErrorContains(t, err, "quantity of Taco must be at most")

	items, err := cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, MaxQuantity, items[0].Quantity)
}
