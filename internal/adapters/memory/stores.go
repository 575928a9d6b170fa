package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
)

// Stores bundles the in-memory implementations used by the dev runtime and tests.
type Stores struct {
	Idempotency *IdempotencyStore
	Submissions *SubmissionStore
	StatsCache  *StatsCache
	Locks       *LockStore
	Sequence    *InvoiceSequence
}

func NewStores() *Stores {
	return &Stores{
		Idempotency: NewIdempotencyStore(),
		Submissions: NewSubmissionStore(),
		StatsCache:  NewStatsCache(),
		Locks:       NewLockStore(),
		Sequence:    NewInvoiceSequence(),
	}
}

type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: map[string]ports.IdempotencyRecord{}}
}

func (s *IdempotencyStore) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if !rec.ExpiresAt.IsZero() && now.After(rec.ExpiresAt) {
		delete(s.records, key)
		return nil, nil
	}
	out := rec
	out.ResponseBody = append([]byte(nil), rec.ResponseBody...)
	return &out, nil
}

func (s *IdempotencyStore) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("%w: idempotency key %s already reserved", domain.ErrConflict, key)
	}
	s.records[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      ports.IdempotencyPending,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = ports.IdempotencyCompleted
	rec.ResponseCode = responseCode
	rec.ResponseBody = append([]byte(nil), responseBody...)
	s.records[key] = rec
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Status == ports.IdempotencyPending {
		delete(s.records, key)
	}
	return nil
}

type SubmissionStore struct {
	mu    sync.RWMutex
	items []domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{items: []domain.Submission{}}
}

func (s *SubmissionStore) Record(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.SubmissionID == submission.SubmissionID {
			return fmt.Errorf("%w: submission %s exists", domain.ErrConflict, submission.SubmissionID)
		}
	}
	s.items = append(s.items, submission)
	return nil
}

func (s *SubmissionStore) List(_ context.Context, query ports.SubmissionQuery) ([]domain.Submission, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Submission, 0, len(s.items))
	for _, item := range s.items {
		if query.TenantID != "" && item.TenantID != query.TenantID {
			continue
		}
		if query.Outcome != "" && string(item.Outcome) != query.Outcome {
			continue
		}
		if query.Operation != "" && string(item.Operation) != query.Operation {
			continue
		}
		matched = append(matched, item)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if query.Offset >= total {
		return []domain.Submission{}, total, nil
	}
	end := total
	if query.Limit > 0 && query.Offset+query.Limit < end {
		end = query.Offset + query.Limit
	}
	return append([]domain.Submission(nil), matched[query.Offset:end]...), total, nil
}

type statsEntry struct {
	summary   domain.AdminStatsSummary
	expiresAt time.Time
}

type StatsCache struct {
	mu      sync.Mutex
	entries map[string]statsEntry
	nowFn   func() time.Time
}

func NewStatsCache() *StatsCache {
	return &StatsCache{entries: map[string]statsEntry{}, nowFn: func() time.Time { return time.Now().UTC() }}
}

func statsKey(tenantID, period string) string { return tenantID + "|" + period }

func (c *StatsCache) Get(_ context.Context, tenantID, period string) (*domain.AdminStatsSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[statsKey(tenantID, period)]
	if !ok {
		return nil, nil
	}
	if c.nowFn().After(entry.expiresAt) {
		delete(c.entries, statsKey(tenantID, period))
		return nil, nil
	}
	out := cloneSummary(entry.summary)
	return &out, nil
}

func (c *StatsCache) Put(_ context.Context, tenantID string, summary domain.AdminStatsSummary, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[statsKey(tenantID, summary.Period)] = statsEntry{summary: cloneSummary(summary), expiresAt: c.nowFn().Add(ttl)}
	return nil
}

func cloneSummary(in domain.AdminStatsSummary) domain.AdminStatsSummary {
	out := in
	out.Users = cloneSeries(in.Users)
	out.Revenue = cloneSeries(in.Revenue)
	out.ChurnRate = cloneSeries(in.ChurnRate)
	return out
}

func cloneSeries(in domain.StatsSummary) domain.StatsSummary {
	out := in
	if in.Normalized != nil {
		out.Normalized = append([]float64{}, in.Normalized...)
	}
	if in.TrendPercent != nil {
		pct := *in.TrendPercent
		out.TrendPercent = &pct
	}
	return out
}

func (c *StatsCache) Invalidate(_ context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := tenantID + "|"
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

type lockEntry struct {
	token string
	until time.Time
}

type LockStore struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	nowFn func() time.Time
}

func NewLockStore() *LockStore {
	return &LockStore{locks: map[string]lockEntry{}, nowFn: time.Now}
}

func (s *LockStore) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	if held, ok := s.locks[key]; ok && now.Before(held.until) {
		return "", false, nil
	}
	token := uuid.NewString()
	s.locks[key] = lockEntry{token: token, until: now.Add(ttl)}
	return token, true, nil
}

func (s *LockStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if held, ok := s.locks[key]; ok && held.token == token {
		delete(s.locks, key)
	}
	return nil
}

type InvoiceSequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewInvoiceSequence() *InvoiceSequence {
	return &InvoiceSequence{counters: map[string]int64{}}
}

func (s *InvoiceSequence) Next(_ context.Context, tenantID string, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID + "|" + day.UTC().Format("20060102")
	s.counters[key]++
	return s.counters[key], nil
}
