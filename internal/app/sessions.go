package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quizsite-service/internal/domain"
)

// Session kinds used in logs and metrics.
const (
	KindCategory = "category"
	KindMixed    = "mixed"
)

// CreateCategorySession starts a quiz drawn from a single category.
func (s *QuizService) CreateCategorySession(ctx context.Context, categoryID int64, taker domain.Taker) (domain.QuizSession, error) {
	if err := taker.Validate(); err != nil {
		return domain.QuizSession{}, err
	}
	category, err := s.bank.Category(ctx, categoryID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	pool, err := s.bank.ListByCategory(ctx, categoryID)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("list %s questions: %w", category.Name, err)
	}
	if len(pool) < MinCategoryQuestions {
		return domain.QuizSession{}, fmt.Errorf("%w in %s category: minimum %d questions required",
			domain.ErrInsufficientQuestions, category.Name, MinCategoryQuestions)
	}
	id := category.ID
	return s.createSession(ctx, taker, &id, pool)
}

// CreateMixedSession starts a quiz drawn from every category.
func (s *QuizService) CreateMixedSession(ctx context.Context, taker domain.Taker) (domain.QuizSession, error) {
	if err := taker.Validate(); err != nil {
		return domain.QuizSession{}, err
	}
	pool, err := s.bank.ListAll(ctx)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("list questions: %w", err)
	}
	if len(pool) < MinMixedQuestions {
		return domain.QuizSession{}, fmt.Errorf("%w for a mixed quiz: minimum %d questions required",
			domain.ErrInsufficientQuestions, MinMixedQuestions)
	}
	return s.createSession(ctx, taker, nil, pool)
}

func (s *QuizService) createSession(ctx context.Context, taker domain.Taker, categoryID *int64, pool []domain.Question) (domain.QuizSession, error) {
	ids := s.draw(pool)
	session := domain.QuizSession{
		Taker:          taker,
		CategoryID:     categoryID,
		IsMixed:        categoryID == nil,
		StartedAt:      s.now(),
		TotalQuestions: len(ids),
	}
	created, err := s.sessions.CreateSession(ctx, session, ids)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("create session: %w", err)
	}

	kind := KindCategory
	if created.IsMixed {
		kind = KindMixed
	}
	s.metrics.SessionCreated(kind)
	s.log.Info("quiz session created",
		zap.Int64("session_id", created.ID),
		zap.String("kind", kind),
		zap.Int("total_questions", created.TotalQuestions),
	)
	return created, nil
}

// draw shuffles the whole pool and keeps the first MaxSessionQuestions ids.
// The shuffled order is the presentation order.
func (s *QuizService) draw(pool []domain.Question) []int64 {
	ids := make([]int64, len(pool))
	for i, q := range pool {
		ids[i] = q.ID
	}
	s.shuffler.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids[:min(MaxSessionQuestions, len(ids))]
}

// CurrentQuestion returns the first unanswered question in presentation order.
// When none remain the session is completed (once) and Completed is set.
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID int64) (domain.CurrentQuestion, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	quizQuestions, err := s.sessions.QuizQuestions(ctx, sessionID)
	if err != nil {
		return domain.CurrentQuestion{}, fmt.Errorf("load session questions: %w", err)
	}
	answers, err := s.answers.Answers(ctx, sessionID)
	if err != nil {
		return domain.CurrentQuestion{}, fmt.Errorf("load answers: %w", err)
	}

	progress := progressOf(len(answers), session.TotalQuestions)
	next, ok := nextUnanswered(quizQuestions, answers)
	if !ok {
		session, err = s.completeIfFinished(ctx, session, answers)
		if err != nil {
			return domain.CurrentQuestion{}, err
		}
		return domain.CurrentQuestion{Session: session.View(), Completed: true, Progress: progress}, nil
	}

	question, err := s.bank.Get(ctx, next.QuestionID)
	if err != nil {
		return domain.CurrentQuestion{}, err
	}
	prompt := question.Prompt()
	return domain.CurrentQuestion{
		Session:  session.View(),
		Order:    next.Order,
		Question: &prompt,
		Progress: progress,
	}, nil
}

// Progress reports the position of the question currently shown.
func (s *QuizService) Progress(ctx context.Context, sessionID int64) (domain.Progress, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Progress{}, err
	}
	answers, err := s.answers.Answers(ctx, sessionID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load answers: %w", err)
	}
	return progressOf(len(answers), session.TotalQuestions), nil
}

// nextUnanswered scans in order; the first gap wins.
func nextUnanswered(quizQuestions []domain.QuizQuestion, answers []domain.UserAnswer) (domain.QuizQuestion, bool) {
	answered := make(map[int64]struct{}, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = struct{}{}
	}
	for _, qq := range quizQuestions {
		if _, done := answered[qq.QuestionID]; !done {
			return qq, true
		}
	}
	return domain.QuizQuestion{}, false
}

func progressOf(answered, total int) domain.Progress {
	p := domain.Progress{
		Current:  min(answered+1, max(total, 1)),
		Total:    total,
		Answered: answered,
	}
	if total > 0 {
		p.Percentage = float64(answered) / float64(total) * 100
	}
	return p
}

// completeIfFinished moves an active session to Completed. Completed sessions are terminal
// and returned untouched.
func (s *QuizService) completeIfFinished(ctx context.Context, session domain.QuizSession, answers []domain.UserAnswer) (domain.QuizSession, error) {
	if session.Completed() {
		return session, nil
	}

	score := 0
	var taken time.Duration
	for _, a := range answers {
		if a.IsCorrect {
			score++
		}
		taken += a.TimeTaken
	}
	completedAt := s.now()

	done, err := s.sessions.MarkCompleted(ctx, session.ID, completedAt, score, taken)
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("complete session: %w", err)
	}
	if !done {
		// Another request completed it first.
		return s.sessions.GetSession(ctx, session.ID)
	}

	session.CompletedAt = &completedAt
	session.Score = score
	session.TimeTaken = taken

	s.metrics.SessionCompleted()
	s.log.Info("quiz session completed",
		zap.Int64("session_id", session.ID),
		zap.Int("score", score),
		zap.Int("total_questions", session.TotalQuestions),
	)
	s.publishLeaderboard(ctx)
	return session, nil
}

func (s *QuizService) publishLeaderboard(ctx context.Context) {
	if inv, ok := s.leaderboard.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.feed.Subscribers() == 0 {
		return
	}
	lb, err := s.Leaderboard(ctx)
	if err != nil {
		s.log.Error("leaderboard refresh failed", zap.Error(err))
		return
	}
	s.feed.Publish(lb)
}
