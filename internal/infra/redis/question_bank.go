package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
)

const bankKeyPrefix = "quizbank:"

// QuestionBank caches question bank listings in Redis as JSON and falls back to the
// wrapped bank on a miss. Keys:
//
//	quizbank:categories
//	quizbank:questions
//	quizbank:category:{id}:questions
type QuestionBank struct {
	client *redis.Client
	bank   app.QuestionBank
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, bank app.QuestionBank, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		bank:   bank,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, b, bankKeyPrefix+"categories", b.bank.Categories)
}

func (b *QuestionBank) Category(ctx context.Context, categoryID int64) (domain.Category, error) {
	categories, err := b.Categories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (b *QuestionBank) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	key := bankKeyPrefix + "category:" + strconv.FormatInt(categoryID, 10) + ":questions"
	return cached(ctx, b, key, func(ctx context.Context) ([]domain.Question, error) {
		return b.bank.ListByCategory(ctx, categoryID)
	})
}

func (b *QuestionBank) ListAll(ctx context.Context) ([]domain.Question, error) {
	return cached(ctx, b, bankKeyPrefix+"questions", b.bank.ListAll)
}

func (b *QuestionBank) Get(ctx context.Context, questionID int64) (domain.Question, error) {
	questions, err := b.ListAll(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	for _, q := range questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// Purge drops every cached listing.
func (b *QuestionBank) Purge(ctx context.Context) error {
	return PurgeQuestionBank(ctx, b.client)
}

// PurgeQuestionBank drops the listings cached on client, e.g. after the catalog was reseeded.
func PurgeQuestionBank(ctx context.Context, client *redis.Client) error {
	return deleteMatching(ctx, client, bankKeyPrefix+"*")
}

func cached[T any](ctx context.Context, b *QuestionBank, key string, load func(context.Context) (T, error)) (T, error) {
	var value T
	if hit, err := getJSON(ctx, b.client, key, &value); err == nil && hit {
		return value, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var value T
		if hit, err := getJSON(ctx, b.client, key, &value); err == nil && hit {
			return value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		// Cache writes are best-effort; the bank stays the source of truth.
		_ = setJSON(ctx, b.client, key, value, b.ttlWithJitter())
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

func getJSON(ctx context.Context, client *redis.Client, key string, dst any) (bool, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, client *redis.Client, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

func deleteMatching(ctx context.Context, client *redis.Client, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}
