package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizsite-service/internal/domain"
)

// SQLSTATE codes translated into domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// Store persists quiz sessions, their questions and user answers with bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateSession(ctx context.Context, session domain.QuizSession, questionIDs []int64) (domain.QuizSession, error) {
	m := newSessionModel(session)
	m.ID = 0
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
			return err
		}
		if len(questionIDs) == 0 {
			return nil
		}
		links := make([]quizQuestionModel, len(questionIDs))
		for i, id := range questionIDs {
			links[i] = quizQuestionModel{SessionID: m.ID, QuestionID: id, Order: i + 1}
		}
		_, err := tx.NewInsert().Model(&links).Exec(ctx)
		return err
	})
	if err != nil {
		return domain.QuizSession{}, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) GetSession(ctx context.Context, sessionID int64) (domain.QuizSession, error) {
	var m sessionModel
	err := s.db.NewSelect().Model(&m).Where("s.id = ?", sessionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("select session: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) QuizQuestions(ctx context.Context, sessionID int64) ([]domain.QuizQuestion, error) {
	var links []quizQuestionModel
	err := s.db.NewSelect().Model(&links).
		Where("qq.quiz_session_id = ?", sessionID).
		OrderExpr(`qq."order" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select quiz questions: %w", err)
	}
	if len(links) == 0 {
		if err := s.ensureSession(ctx, sessionID); err != nil {
			return nil, err
		}
	}
	out := make([]domain.QuizQuestion, len(links))
	for i, l := range links {
		out[i] = domain.QuizQuestion{SessionID: l.SessionID, QuestionID: l.QuestionID, Order: l.Order}
	}
	return out, nil
}

func (s *Store) MarkCompleted(ctx context.Context, sessionID int64, completedAt time.Time, score int, timeTaken time.Duration) (bool, error) {
	res, err := s.db.NewUpdate().Model((*sessionModel)(nil)).
		Set("completed_at = ?", completedAt).
		Set("score = ?", score).
		Set("time_taken_ms = ?", timeTaken.Milliseconds()).
		Where("id = ?", sessionID).
		Where("completed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Either already completed or missing.
		return false, s.ensureSession(ctx, sessionID)
	}
	return true, nil
}

func (s *Store) ensureSession(ctx context.Context, sessionID int64) error {
	exists, err := s.db.NewSelect().Model((*sessionModel)(nil)).Where("s.id = ?", sessionID).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return domain.ErrSessionNotFound
	}
	return nil
}

// TopSessions ranks completed sessions by score ratio, raw score, then earliest start.
// Numeric division keeps equal ratios such as 8/10 and 4/5 tied.
func (s *Store) TopSessions(ctx context.Context, limit int) ([]domain.QuizSession, error) {
	var ms []sessionModel
	err := s.db.NewSelect().Model(&ms).
		Where("s.completed_at IS NOT NULL").
		Where("s.total_questions > 0").
		OrderExpr("s.score::numeric / s.total_questions DESC").
		OrderExpr("s.score DESC").
		OrderExpr("s.started_at ASC").
		OrderExpr("s.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select top sessions: %w", err)
	}
	return sessions(ms), nil
}

func (s *Store) CompletedSessions(ctx context.Context, taker domain.Taker) ([]domain.QuizSession, error) {
	var ms []sessionModel
	q := s.db.NewSelect().Model(&ms).Where("s.completed_at IS NOT NULL")
	if taker.IsAuthenticated() {
		q = q.Where("s.user_id = ?", taker.UserID)
	} else {
		q = q.Where("s.anonymous_key = ?", taker.AnonymousKey)
	}
	if err := q.OrderExpr("s.started_at DESC, s.id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select taker sessions: %w", err)
	}
	return sessions(ms), nil
}

func (s *Store) RecentlyCompleted(ctx context.Context, limit int) ([]domain.QuizSession, error) {
	var ms []sessionModel
	err := s.db.NewSelect().Model(&ms).
		Where("s.completed_at IS NOT NULL").
		OrderExpr("s.completed_at DESC, s.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select recent sessions: %w", err)
	}
	return sessions(ms), nil
}

func sessions(ms []sessionModel) []domain.QuizSession {
	out := make([]domain.QuizSession, len(ms))
	for i, m := range ms {
		out[i] = m.toDomain()
	}
	return out
}

// CreateAnswer relies on the (session, question) unique key, so concurrent submissions
// resolve to exactly one stored answer.
func (s *Store) CreateAnswer(ctx context.Context, answer domain.UserAnswer) (domain.UserAnswer, error) {
	m := answerModel{
		SessionID:   answer.SessionID,
		QuestionID:  answer.QuestionID,
		Selected:    string(answer.Selected),
		IsCorrect:   answer.IsCorrect,
		AnsweredAt:  answer.AnsweredAt,
		TimeTakenMS: answer.TimeTaken.Milliseconds(),
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.UserAnswer{}, translate(err)
	}
	return m.toDomain(), nil
}

func (s *Store) Answers(ctx context.Context, sessionID int64) ([]domain.UserAnswer, error) {
	var ms []answerModel
	err := s.db.NewSelect().Model(&ms).
		Where("ua.quiz_session_id = ?", sessionID).
		OrderExpr("ua.answered_at ASC, ua.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	out := make([]domain.UserAnswer, len(ms))
	for i, m := range ms {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (s *Store) Answer(ctx context.Context, sessionID, questionID int64) (domain.UserAnswer, error) {
	var m answerModel
	err := s.db.NewSelect().Model(&m).
		Where("ua.quiz_session_id = ?", sessionID).
		Where("ua.question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserAnswer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.UserAnswer{}, fmt.Errorf("select answer: %w", err)
	}
	return m.toDomain(), nil
}

// translate maps integrity violations onto domain errors.
func translate(err error) error {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Field('C') {
	case uniqueViolation:
		if pgErr.Field('n') == "user_answers_session_question_key" {
			return domain.ErrDuplicateAnswer
		}
		return domain.InvalidInputf("%s", pgErr.Field('M'))
	case foreignKeyViolation:
		switch pgErr.Field('n') {
		case "user_answers_session_fkey":
			return domain.ErrSessionNotFound
		case "user_answers_question_fkey", "quiz_questions_question_id_fkey":
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.Field('M'))
	case checkViolation:
		return domain.InvalidInputf("%s", pgErr.Field('M'))
	}
	return err
}
