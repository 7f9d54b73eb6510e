package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PostStore implements storage.PostStore using PostgreSQL. Monetary
// values are stored as NUMERIC and moved over the wire as text for
// exact decimal precision.
type PostStore struct {
	pool *Pool
}

// NewPostStore creates a new PostStore.
func NewPostStore(pool *Pool) *PostStore {
	return &PostStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PostStore = (*PostStore)(nil)

const selectPostColumns = `
	post_id, reddit_url, title, subreddit, author,
	token_supply, token_decimals, initial_price::TEXT, current_price::TEXT,
	pool_address, total_volume::TEXT, market_cap::TEXT, holders, status, created_at
`

// Insert adds a new post. Returns ErrDuplicateKey if post_id exists.
func (s *PostStore) Insert(ctx context.Context, p *domain.Post) error {
	if p == nil || p.PostID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO posts (
			post_id, reddit_url, title, subreddit, author,
			token_supply, token_decimals, initial_price, current_price,
			pool_address, total_volume, market_cap, holders, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8::NUMERIC, $9::NUMERIC,
			$10, $11::NUMERIC, $12::NUMERIC, $13, $14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PostID, p.RedditURL, p.Title, p.Subreddit, p.Author,
		p.TokenSupply, p.TokenDecimals, p.InitialPrice.String(), p.CurrentPrice.String(),
		p.PoolAddress, p.TotalVolume.String(), p.MarketCap.String(), p.Holders, p.Status, p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by its ID. Returns ErrNotFound if not exists.
func (s *PostStore) GetByID(ctx context.Context, postID string) (*domain.Post, error) {
	query := `SELECT ` + selectPostColumns + ` FROM posts WHERE post_id = $1`

	p, err := scanPost(s.pool.QueryRow(ctx, query, postID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return p, nil
}

// List retrieves all posts, ordered by created_at DESC.
func (s *PostStore) List(ctx context.Context) ([]*domain.Post, error) {
	query := `SELECT ` + selectPostColumns + ` FROM posts ORDER BY created_at DESC, post_id ASC`
	return s.queryPosts(ctx, query)
}

// TopByVolume retrieves the highest-volume posts.
func (s *PostStore) TopByVolume(ctx context.Context, limit int) ([]*domain.Post, error) {
	query := `SELECT ` + selectPostColumns + ` FROM posts ORDER BY total_volume DESC, post_id ASC`
	return s.queryPosts(ctx, withLimit(query, limit))
}

// SetPool records the pool address and activates the post.
func (s *PostStore) SetPool(ctx context.Context, postID, poolAddress string) error {
	if postID == "" || poolAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `UPDATE posts SET pool_address = $2, status = $3 WHERE post_id = $1`
	tag, err := s.pool.Exec(ctx, query, postID, poolAddress, domain.PostStatusActive)
	if err != nil {
		return fmt.Errorf("set pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var p domain.Post
	var initialPrice, currentPrice, totalVolume, mktCap string
	err := row.Scan(
		&p.PostID, &p.RedditURL, &p.Title, &p.Subreddit, &p.Author,
		&p.TokenSupply, &p.TokenDecimals, &initialPrice, &currentPrice,
		&p.PoolAddress, &totalVolume, &mktCap, &p.Holders, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.InitialPrice, err = decimal.NewFromString(initialPrice); err != nil {
		return nil, fmt.Errorf("parse initial_price: %w", err)
	}
	if p.CurrentPrice, err = decimal.NewFromString(currentPrice); err != nil {
		return nil, fmt.Errorf("parse current_price: %w", err)
	}
	if p.TotalVolume, err = decimal.NewFromString(totalVolume); err != nil {
		return nil, fmt.Errorf("parse total_volume: %w", err)
	}
	if p.MarketCap, err = decimal.NewFromString(mktCap); err != nil {
		return nil, fmt.Errorf("parse market_cap: %w", err)
	}
	return &p, nil
}

func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]*domain.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var result []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return result, nil
}
