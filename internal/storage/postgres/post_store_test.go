package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

func testPost(id string, createdAt int64) *domain.Post {
	return &domain.Post{
		PostID:        id,
		RedditURL:     "https://reddit.com/r/test/comments/" + id,
		Title:         "post " + id,
		Subreddit:     "test",
		Author:        "author",
		TokenSupply:   1_000_000_000_000,
		TokenDecimals: 6,
		InitialPrice:  decimal.RequireFromString("0.000001"),
		CurrentPrice:  decimal.RequireFromString("0.000001"),
		TotalVolume:   decimal.Zero,
		MarketCap:     decimal.Zero,
		Status:        domain.PostStatusPending,
		CreatedAt:     createdAt,
	}
}

func TestPostStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostStore(pool)
	ctx := context.Background()

	p := testPost("post-001", 1700000000000)
	require.NoError(t, store.Insert(ctx, p))

	got, err := store.GetByID(ctx, "post-001")
	require.NoError(t, err)

	assert.Equal(t, p.PostID, got.PostID)
	assert.Equal(t, p.RedditURL, got.RedditURL)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.TokenSupply, got.TokenSupply)
	assert.Equal(t, p.TokenDecimals, got.TokenDecimals)
	assert.True(t, got.InitialPrice.Equal(p.InitialPrice), "initial price = %s", got.InitialPrice)
	assert.Equal(t, "", got.PoolAddress)
	assert.Equal(t, domain.PostStatusPending, got.Status)
	assert.False(t, got.Tradable())
}

func TestPostStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostStore(pool)
	ctx := context.Background()

	p := testPost("post-dup", 1700000000000)
	require.NoError(t, store.Insert(ctx, p))

	err := store.Insert(ctx, p)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPostStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostStore(pool)
	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostStore_ListAndTopByVolume(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostStore(pool)
	ctx := context.Background()

	a := testPost("post-a", 100)
	a.TotalVolume = decimal.RequireFromString("5")
	b := testPost("post-b", 300)
	b.TotalVolume = decimal.RequireFromString("20")
	c := testPost("post-c", 200)
	c.TotalVolume = decimal.RequireFromString("10")
	for _, p := range []*domain.Post{a, b, c} {
		require.NoError(t, store.Insert(ctx, p))
	}

	posts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post-b", posts[0].PostID)
	assert.Equal(t, "post-c", posts[1].PostID)
	assert.Equal(t, "post-a", posts[2].PostID)

	top, err := store.TopByVolume(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "post-b", top[0].PostID)
	assert.Equal(t, "post-c", top[1].PostID)
}

func TestPostStore_SetPool(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPostStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testPost("post-001", 100)))
	require.NoError(t, store.SetPool(ctx, "post-001", "PoolAddress123"))

	got, err := store.GetByID(ctx, "post-001")
	require.NoError(t, err)
	assert.Equal(t, "PoolAddress123", got.PoolAddress)
	assert.Equal(t, domain.PostStatusActive, got.Status)
	assert.True(t, got.Tradable())

	err = store.SetPool(ctx, "missing", "PoolAddress123")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
