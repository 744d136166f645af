// internal/repository/memory_repository.go
package repository

import (
	"context"
	"sync"
	"time"

	"motion-service/internal/model"
)

// DefaultMemoryCapacity is used when a non-positive capacity is given
const DefaultMemoryCapacity = 5000

// memoryExchangeRepository keeps the newest exchanges in a ring buffer
type memoryExchangeRepository struct {
	mutex sync.RWMutex
	ring  []*model.Exchange
	next  int
	count int
}

// NewMemoryExchangeRepository creates an in-memory exchange repository.
// The oldest exchange is dropped once capacity is reached.
func NewMemoryExchangeRepository(capacity int) ExchangeRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &memoryExchangeRepository{ring: make([]*model.Exchange, capacity)}
}

// Create stores a copy of exchange
func (r *memoryExchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := *exchange

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.ring[r.next] = &stored
	r.next = (r.next + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
	return nil
}

// List returns the most recent exchanges
func (r *memoryExchangeRepository) List(ctx context.Context, limit int) ([]*model.Exchange, error) {
	return r.collect(normalizeLimit(limit), func(*model.Exchange) bool { return true }), nil
}

// ListByChannel returns the most recent exchanges of a channel
func (r *memoryExchangeRepository) ListByChannel(ctx context.Context, channel int, limit int) ([]*model.Exchange, error) {
	return r.collect(normalizeLimit(limit), func(e *model.Exchange) bool { return e.Channel == channel }), nil
}

// GetExchangeStats aggregates exchanges matching filter
func (r *memoryExchangeRepository) GetExchangeStats(ctx context.Context, filter *ExchangeStatsFilter) (*ExchangeStats, error) {
	match := func(e *model.Exchange) bool {
		if filter == nil {
			return true
		}
		if filter.Channel != nil && e.Channel != *filter.Channel {
			return false
		}
		if filter.Since != nil && e.CreatedAt.Before(*filter.Since) {
			return false
		}
		return true
	}

	stats := &ExchangeStats{ByOperation: make(map[model.ExchangeOperation]int)}
	var attempts, duration int64
	for _, e := range r.collect(-1, match) {
		stats.TotalExchanges++
		stats.ByOperation[e.Operation]++
		if e.Succeeded() {
			stats.Succeeded++
		}
		if e.Resent() {
			stats.Resent++
		}
		attempts += int64(e.Attempts)
		duration += int64(e.DurationMs)
	}

	stats.Failed = stats.TotalExchanges - stats.Succeeded
	if stats.TotalExchanges > 0 {
		stats.AvgAttempts = float64(attempts) / float64(stats.TotalExchanges)
		stats.AvgDurationMs = float64(duration) / float64(stats.TotalExchanges)
	}
	return stats, nil
}

// DeleteOlderThan removes exchanges created before olderThan
func (r *memoryExchangeRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	kept := make([]*model.Exchange, 0, r.count)
	for i := 0; i < r.count; i++ {
		e := r.at(i)
		if !e.CreatedAt.Before(olderThan) {
			kept = append(kept, e)
		}
	}
	deleted := int64(r.count - len(kept))

	for i := range r.ring {
		r.ring[i] = nil
	}
	copy(r.ring, kept)
	r.count = len(kept)
	r.next = r.count % len(r.ring)

	return deleted, nil
}

// at returns the i-th oldest stored exchange. Caller holds r.mutex.
func (r *memoryExchangeRepository) at(i int) *model.Exchange {
	start := (r.next - r.count + len(r.ring)) % len(r.ring)
	return r.ring[(start+i)%len(r.ring)]
}

// collect walks newest first; limit < 0 means no limit
func (r *memoryExchangeRepository) collect(limit int, match func(*model.Exchange) bool) []*model.Exchange {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := []*model.Exchange{}
	for i := r.count - 1; i >= 0; i-- {
		if limit >= 0 && len(out) >= limit {
			break
		}
		e := r.at(i)
		if match(e) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}
