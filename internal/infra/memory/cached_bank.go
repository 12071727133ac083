package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
)

// CachedBank caches question bank listings with TTL to avoid repeated DB hits.
type CachedBank struct {
	bank  app.QuestionBank
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu      sync.RWMutex
	rnd     *rand.Rand
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

func NewCachedBank(bank app.QuestionBank, ttl time.Duration) *CachedBank {
	return &CachedBank{
		bank:    bank,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cacheEntry),
	}
}

func (r *CachedBank) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, r, "categories", r.bank.Categories)
}

func (r *CachedBank) Category(ctx context.Context, categoryID int64) (domain.Category, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	return findCategory(categories, categoryID)
}

func (r *CachedBank) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	return cached(ctx, r, "category:"+strconv.FormatInt(categoryID, 10), func(ctx context.Context) ([]domain.Question, error) {
		return r.bank.ListByCategory(ctx, categoryID)
	})
}

func (r *CachedBank) ListAll(ctx context.Context) ([]domain.Question, error) {
	return cached(ctx, r, "questions", r.bank.ListAll)
}

func (r *CachedBank) Get(ctx context.Context, questionID int64) (domain.Question, error) {
	questions, err := r.ListAll(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	return findQuestion(questions, questionID)
}

// Purge drops every cached listing.
func (r *CachedBank) Purge() {
	r.mu.Lock()
	r.entries = make(map[string]cacheEntry)
	r.mu.Unlock()
}

func (r *CachedBank) lookup(key string, now time.Time) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.value, true
}

func cached[T any](ctx context.Context, r *CachedBank, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := r.lookup(key, r.clock()); ok {
		return v.(T), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		if v, ok := r.lookup(key, now); ok {
			return v, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.entries[key] = cacheEntry{value: value, expiresAt: now.Add(r.ttlWithJitterLocked())}
		r.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (r *CachedBank) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
