package seed

import (
	"errors"
	"testing"
	"time"

	"quizsite-service/internal/domain"
)

func TestDefaultCatalogIsPlayable(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(c.Categories) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(c.Categories))
	}
	total := 0
	for _, cat := range c.Categories {
		if len(cat.Questions) < 5 {
			t.Fatalf("category %q has %d questions, want at least 5", cat.Name, len(cat.Questions))
		}
		total += len(cat.Questions)
	}
	if total < 10 {
		t.Fatalf("expected enough questions for a mixed quiz, got %d", total)
	}
}

func TestBuildAssignsSequentialIDs(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	categories, questions := c.Build(now)

	if categories[0].ID != 1 || categories[0].QuestionCount != len(c.Categories[0].Questions) {
		t.Fatalf("unexpected first category %+v", categories[0])
	}
	for i, q := range questions {
		if q.ID != int64(i+1) {
			t.Fatalf("question %d has id %d", i, q.ID)
		}
		if q.CategoryName == "" || q.CategoryID == 0 {
			t.Fatalf("question %d missing category: %+v", q.ID, q)
		}
		if !q.CreatedAt.Equal(now) {
			t.Fatalf("question %d created at %v", q.ID, q.CreatedAt)
		}
	}
}

func TestParseRejectsBadCorrectAnswer(t *testing.T) {
	raw := []byte(`
categories:
  - name: Broken
    questions:
      - text: Pick one
        options: {A: a, B: b, C: c, D: d}
        correct_answer: E
`)
	_, err := Parse(raw)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseRejectsDuplicateCategory(t *testing.T) {
	raw := []byte(`
categories:
  - name: Twice
  - name: Twice
`)
	if _, err := Parse(raw); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
