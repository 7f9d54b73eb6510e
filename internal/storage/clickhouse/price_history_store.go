package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/observability"
	"github.com/adityaslyf/redcircle-trading/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using
// ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Insert appends one point. MergeTree does not enforce uniqueness and
// settlement never writes the same trade twice, so this is a plain
// append.
func (s *PriceHistoryStore) Insert(ctx context.Context, p *domain.PricePoint) (err error) {
	if p == nil || p.PostID == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (post_id, price, volume, timestamp_ms)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	if err := batch.Append(p.PostID, p.Price, p.Volume, uint64(p.TimestampMs)); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPost retrieves points within [from, to], ordered by timestamp
// ASC.
func (s *PriceHistoryStore) GetByPost(ctx context.Context, postID string, from, to int64, limit int) (_ []*domain.PricePoint, err error) {
	if to <= 0 {
		to = time.Now().UnixMilli()
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "select", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT post_id, price, volume, timestamp_ms
		FROM price_history
		WHERE post_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.Query(ctx, query, postID, uint64(from), uint64(to))
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	var result []*domain.PricePoint
	for rows.Next() {
		var (
			p  domain.PricePoint
			ts uint64
		)
		if err := rows.Scan(&p.PostID, &p.Price, &p.Volume, &ts); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		p.TimestampMs = int64(ts)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history: %w", err)
	}
	return result, nil
}
