package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"quizsite-service/internal/domain"
)

// Results scores a session and, for mixed sessions, breaks answers down by category.
func (s *QuizService) Results(ctx context.Context, sessionID int64) (domain.Results, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Results{}, err
	}
	reviews, err := s.reviews(ctx, sessionID)
	if err != nil {
		return domain.Results{}, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return domain.Results{}, err
	}

	correct := 0
	for _, r := range reviews {
		if r.Answer.IsCorrect {
			correct++
		}
	}
	pct := Percentage(session.Score, session.TotalQuestions)
	results := domain.Results{
		Session:            session.View(),
		CategoryName:       categoryLabel(session, names),
		Answers:            reviews,
		CorrectCount:       correct,
		IncorrectCount:     len(reviews) - correct,
		Percentage:         pct,
		Tier:               TierFor(pct),
		PerformanceMessage: PerformanceMessage(pct),
		CategoryStats:      map[string]domain.CategoryTally{},
	}
	if session.IsMixed {
		results.CategoryStats = CategoryBreakdown(reviews)
	}
	return results, nil
}

// Revision lists the session's answers with all options and explanations for review.
func (s *QuizService) Revision(ctx context.Context, sessionID int64) (domain.Revision, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Revision{}, err
	}
	reviews, err := s.reviews(ctx, sessionID)
	if err != nil {
		return domain.Revision{}, err
	}
	return domain.Revision{Session: session.View(), Answers: reviews}, nil
}

func (s *QuizService) reviews(ctx context.Context, sessionID int64) ([]domain.AnswerReview, error) {
	answers, err := s.answers.Answers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	reviews := make([]domain.AnswerReview, 0, len(answers))
	for _, a := range answers {
		question, err := s.bank.Get(ctx, a.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load question %d: %w", a.QuestionID, err)
		}
		reviews = append(reviews, domain.AnswerReview{Answer: a, Question: question})
	}
	return reviews, nil
}

// Leaderboard ranks the top completed sessions.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	sessions, err := s.leaderboard.TopSessions(ctx, LeaderboardSize)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load leaderboard: %w", err)
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(sessions))
	for i, session := range sessions {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:           i + 1,
			Taker:          session.Taker,
			Player:         session.Taker.PublicName(),
			SessionSummary: Summarize(session, names),
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// UserStatistics aggregates every completed session of the taker.
func (s *QuizService) UserStatistics(ctx context.Context, taker domain.Taker) (domain.UserStatistics, error) {
	if err := taker.Validate(); err != nil {
		return domain.UserStatistics{}, err
	}
	sessions, err := s.sessions.CompletedSessions(ctx, taker)
	if err != nil {
		return domain.UserStatistics{}, fmt.Errorf("load sessions: %w", err)
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return domain.UserStatistics{}, err
	}
	return AggregateUserStatistics(sessions, names), nil
}

// Overview gathers categories with question counts and the latest completed sessions.
func (s *QuizService) Overview(ctx context.Context) (domain.Overview, error) {
	var (
		categories []domain.Category
		recent     []domain.QuizSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.bank.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.sessions.RecentlyCompleted(gctx, RecentOverviewSessions)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Overview{}, fmt.Errorf("load overview: %w", err)
	}

	names := namesOf(categories)
	overview := domain.Overview{
		Categories:      categories,
		RecentSessions:  make([]domain.SessionSummary, 0, len(recent)),
		TotalCategories: len(categories),
	}
	for _, c := range categories {
		overview.TotalQuestions += c.QuestionCount
	}
	for _, session := range recent {
		overview.RecentSessions = append(overview.RecentSessions, Summarize(session, names))
	}
	return overview, nil
}

func (s *QuizService) categoryNames(ctx context.Context) (map[int64]string, error) {
	categories, err := s.bank.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return namesOf(categories), nil
}

func namesOf(categories []domain.Category) map[int64]string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
