package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizsite-service/internal/domain"
	"quizsite-service/internal/infra/memory"
)

func TestQuestionBankCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingBank{StaticBank: sampleBank()}
	bank := NewQuestionBank(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	q, err := bank.Get(ctx, 2)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectAnswer != domain.OptionB || q.Options[domain.OptionD] != "22" {
		t.Fatalf("question did not survive the cache: %+v", q)
	}
	if loader.listAll != 1 {
		t.Fatalf("expected loader called once, got %d", loader.listAll)
	}
	if !mr.Exists("quizbank:questions") {
		t.Fatalf("expected questions cached under quizbank:questions")
	}

	// Second call should hit cache, loader not incremented.
	if _, err := bank.ListAll(ctx); err != nil {
		t.Fatalf("list all: %v", err)
	}
	if loader.listAll != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.listAll)
	}

	if _, err := bank.Get(ctx, 42); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestQuestionBankPurge(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingBank{StaticBank: sampleBank()}
	bank := NewQuestionBank(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	if _, err := bank.ListByCategory(ctx, 1); err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if _, err := bank.Category(ctx, 1); err != nil {
		t.Fatalf("category: %v", err)
	}
	if !mr.Exists("quizbank:category:1:questions") || !mr.Exists("quizbank:categories") {
		t.Fatalf("expected listings cached, keys: %v", mr.Keys())
	}

	if err := bank.Purge(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no keys after purge, got %v", mr.Keys())
	}
	if _, err := bank.ListByCategory(ctx, 1); err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if loader.byCategory != 2 {
		t.Fatalf("expected reload after purge, got %d", loader.byCategory)
	}
}

func TestQuestionBankTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	bank := NewQuestionBank(newClient(mr), sampleBank(), time.Minute)
	if _, err := bank.Categories(context.Background()); err != nil {
		t.Fatalf("categories: %v", err)
	}
	ttl := mr.TTL("quizbank:categories")
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("quizbank:categories") {
		t.Fatalf("expected key expired")
	}
}

type countingBank struct {
	*memory.StaticBank
	byCategory int
	listAll    int
}

func (b *countingBank) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	b.byCategory++
	return b.StaticBank.ListByCategory(ctx, categoryID)
}

func (b *countingBank) ListAll(ctx context.Context) ([]domain.Question, error) {
	b.listAll++
	return b.StaticBank.ListAll(ctx)
}

func sampleBank() *memory.StaticBank {
	categories := []domain.Category{{ID: 1, Name: "Science"}, {ID: 2, Name: "History"}}
	questions := []domain.Question{sampleQuestion(1, 1), sampleQuestion(2, 1), sampleQuestion(3, 2)}
	return memory.NewStaticBank(categories, questions)
}

func sampleQuestion(id, categoryID int64) domain.Question {
	return domain.Question{
		ID:         id,
		CategoryID: categoryID,
		Text:       "What is 2 + 2?",
		Options: map[domain.Option]string{
			domain.OptionA: "3", domain.OptionB: "4", domain.OptionC: "5", domain.OptionD: "22",
		},
		CorrectAnswer: domain.OptionB,
		Difficulty:    domain.DifficultyEasy,
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
