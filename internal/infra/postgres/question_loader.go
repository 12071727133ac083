package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizsite-service/internal/domain"
)

const categoryColumns = `
SELECT c.id, c.name, c.description, c.icon, c.color_class, c.created_at, count(q.id)
FROM categories c
LEFT JOIN questions q ON q.category_id = c.id`

const questionColumns = `
SELECT q.id, q.category_id, c.name, q.question_text,
       q.option_a, q.option_b, q.option_c, q.option_d,
       q.correct_answer, q.explanation,
       q.explanation_a, q.explanation_b, q.explanation_c, q.explanation_d,
       q.reference_link, q.difficulty, q.created_at, q.updated_at
FROM questions q
JOIN categories c ON c.id = q.category_id`

// QuestionLoader reads the question bank from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := l.pool.Query(ctx, categoryColumns+` GROUP BY c.id ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (l *QuestionLoader) Category(ctx context.Context, categoryID int64) (domain.Category, error) {
	row := l.pool.QueryRow(ctx, categoryColumns+` WHERE c.id = $1 GROUP BY c.id`, categoryID)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("load category: %w", err)
	}
	return c, nil
}

func (l *QuestionLoader) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Question, error) {
	return l.queryQuestions(ctx, questionColumns+` WHERE q.category_id = $1 ORDER BY q.id`, categoryID)
}

func (l *QuestionLoader) ListAll(ctx context.Context) ([]domain.Question, error) {
	return l.queryQuestions(ctx, questionColumns+` ORDER BY q.id`)
}

func (l *QuestionLoader) Get(ctx context.Context, questionID int64) (domain.Question, error) {
	row := l.pool.QueryRow(ctx, questionColumns+` WHERE q.id = $1`, questionID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (l *QuestionLoader) queryQuestions(ctx context.Context, sql string, args ...interface{}) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.ColorClass, &c.CreatedAt, &c.QuestionCount)
	return c, err
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q                   domain.Question
		a, b, c, d          string
		ea, eb, ec, ed      string
		correct, difficulty string
	)
	err := row.Scan(&q.ID, &q.CategoryID, &q.CategoryName, &q.Text,
		&a, &b, &c, &d,
		&correct, &q.Explanation,
		&ea, &eb, &ec, &ed,
		&q.ReferenceLink, &difficulty, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return domain.Question{}, err
	}
	q.Options = map[domain.Option]string{domain.OptionA: a, domain.OptionB: b, domain.OptionC: c, domain.OptionD: d}
	q.Explanations = map[domain.Option]string{domain.OptionA: ea, domain.OptionB: eb, domain.OptionC: ec, domain.OptionD: ed}
	q.CorrectAnswer = domain.Option(correct)
	q.Difficulty = domain.Difficulty(difficulty)
	return q, nil
}
