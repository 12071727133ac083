package memory

import (
	"context"
	"sort"

	"quizsite-service/internal/domain"
)

// StaticBank is a question bank backed by fixed slices (useful for tests/demos).
type StaticBank struct {
	categories []domain.Category
	questions  []domain.Question
}

// NewStaticBank indexes categories and questions, filling category names and question counts.
func NewStaticBank(categories []domain.Category, questions []domain.Question) *StaticBank {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	counts := make(map[int64]int, len(categories))
	qs := make([]domain.Question, len(questions))
	for i, q := range questions {
		if q.CategoryName == "" {
			q.CategoryName = names[q.CategoryID]
		}
		counts[q.CategoryID]++
		qs[i] = q
	}
	cs := make([]domain.Category, len(categories))
	for i, c := range categories {
		c.QuestionCount = counts[c.ID]
		cs[i] = c
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
	return &StaticBank{categories: cs, questions: qs}
}

func (b *StaticBank) Categories(_ context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), b.categories...), nil
}

func (b *StaticBank) Category(_ context.Context, categoryID int64) (domain.Category, error) {
	return findCategory(b.categories, categoryID)
}

func (b *StaticBank) ListByCategory(_ context.Context, categoryID int64) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range b.questions {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *StaticBank) ListAll(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), b.questions...), nil
}

func (b *StaticBank) Get(_ context.Context, questionID int64) (domain.Question, error) {
	return findQuestion(b.questions, questionID)
}

func findCategory(categories []domain.Category, id int64) (domain.Category, error) {
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func findQuestion(questions []domain.Question, id int64) (domain.Question, error) {
	for _, q := range questions {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
