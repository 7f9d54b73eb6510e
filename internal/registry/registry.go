// Package registry creates tokenized posts and tracks their lifecycle
// from pending to active. Pools are created externally; the registry
// records the pool address when it appears.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/idhash"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// Token economics defaults applied when a create request leaves them
// unset.
const (
	DefaultTokenDecimals = 6
	DefaultTokenSupply   = int64(1_000_000_000_000) // 1M tokens at 6 decimals
)

var (
	// ErrInvalidURL is returned when the URL is not a Reddit post link.
	ErrInvalidURL = errors.New("registry: invalid reddit post url")

	// ErrAlreadyRegistered is returned when the post was tokenized
	// before. Registration is idempotent on the canonical URL.
	ErrAlreadyRegistered = errors.New("registry: post already registered")

	// ErrInvalidPool is returned when the pool address is not a
	// well-formed Solana pubkey.
	ErrInvalidPool = errors.New("registry: invalid pool address")

	// ErrPostNotFound is returned when the post does not exist.
	ErrPostNotFound = errors.New("registry: post not found")
)

// CreateRequest describes a post to tokenize.
type CreateRequest struct {
	RedditURL string
	Title     string
	Subreddit string
	Author    string

	// Optional overrides; zero values select the defaults.
	TokenSupply   int64
	TokenDecimals int
	InitialPrice  decimal.Decimal
}

// Service registers posts and attaches pools.
type Service struct {
	posts  storage.PostStore
	logger *zap.Logger
	now    func() int64
}

// NewService creates a registry service.
func NewService(posts storage.PostStore, logger *zap.Logger, now func() int64) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{posts: posts, logger: logger, now: now}
}

// Create registers a Reddit post for tokenization. The post starts in
// pending status and becomes tradable when a pool is attached. The
// post_id is derived from the canonical URL, so registering the same
// post twice returns ErrAlreadyRegistered.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Post, error) {
	canonical, subreddit, err := CanonicalPostURL(req.RedditURL)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrInvalidURL)
	}
	if req.Subreddit == "" {
		req.Subreddit = subreddit
	}

	supply := req.TokenSupply
	if supply <= 0 {
		supply = DefaultTokenSupply
	}
	dec := req.TokenDecimals
	if dec <= 0 {
		dec = DefaultTokenDecimals
	}

	post := &domain.Post{
		PostID:        idhash.ComputePostID(canonical),
		RedditURL:     canonical,
		Title:         req.Title,
		Subreddit:     req.Subreddit,
		Author:        req.Author,
		TokenSupply:   supply,
		TokenDecimals: dec,
		InitialPrice:  req.InitialPrice,
		CurrentPrice:  req.InitialPrice,
		Status:        domain.PostStatusPending,
		CreatedAt:     s.now(),
	}

	if err := s.posts.Insert(ctx, post); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}

	s.logger.Info("post registered",
		zap.String("post", post.PostID),
		zap.String("subreddit", post.Subreddit),
		zap.String("url", canonical))
	return post, nil
}

// AttachPool records the externally created bonding-curve pool and
// activates the post for trading.
func (s *Service) AttachPool(ctx context.Context, postID, poolAddress string) (*domain.Post, error) {
	// Pool addresses are program-derived and may be off-curve, so only
	// the pubkey shape is checked.
	if _, err := solana.DecodePubkey(poolAddress); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPool, err)
	}

	if err := s.posts.SetPool(ctx, postID, poolAddress); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("set pool: %w", err)
	}

	s.logger.Info("pool attached",
		zap.String("post", postID),
		zap.String("pool", poolAddress))
	return s.Get(ctx, postID)
}

// Get retrieves one post.
func (s *Service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	return post, nil
}

// List retrieves all posts, newest first.
func (s *Service) List(ctx context.Context) ([]*domain.Post, error) {
	return s.posts.List(ctx)
}

// CanonicalPostURL normalizes a Reddit post link: https scheme, bare
// reddit.com host, no query or fragment, no trailing slash. Returns
// the canonical URL and the subreddit. Only comment-page links
// (/r/<subreddit>/comments/<id>/...) are accepted.
func CanonicalPostURL(raw string) (canonical, subreddit string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "old.")
	if host != "reddit.com" {
		return "", "", fmt.Errorf("%w: host %q", ErrInvalidURL, u.Host)
	}

	path := strings.TrimSuffix(u.Path, "/")
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	// r/<subreddit>/comments/<id>[/<slug>]
	if len(parts) < 4 || parts[0] != "r" || parts[2] != "comments" || parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidURL, u.Path)
	}

	return "https://reddit.com/" + strings.Join(parts, "/"), parts[1], nil
}
