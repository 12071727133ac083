package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quizsite-service/internal/domain"
)

const (
	// MaxSessionQuestions caps how many questions a session draws.
	MaxSessionQuestions = 15
	// MinCategoryQuestions is the smallest category that can start a quiz.
	MinCategoryQuestions = 5
	// MinMixedQuestions is the smallest bank that can start a mixed quiz.
	MinMixedQuestions = 10
	// LeaderboardSize is the number of ranked sessions shown.
	LeaderboardSize = 20
	// RecentUserSessions is how many recent sessions user statistics list.
	RecentUserSessions = 10
	// RecentOverviewSessions is how many recently completed sessions the overview lists.
	RecentOverviewSessions = 5
)

// QuestionBank is the read-only catalog of categories and questions.
type QuestionBank interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Category(ctx context.Context, categoryID int64) (domain.Category, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]domain.Question, error)
	ListAll(ctx context.Context) ([]domain.Question, error)
	Get(ctx context.Context, questionID int64) (domain.Question, error)
}

// SessionRepository stores quiz sessions and their ordered questions.
type SessionRepository interface {
	// CreateSession persists the session and one QuizQuestion per id, ordered 1..n, atomically.
	CreateSession(ctx context.Context, session domain.QuizSession, questionIDs []int64) (domain.QuizSession, error)
	GetSession(ctx context.Context, sessionID int64) (domain.QuizSession, error)
	// QuizQuestions returns the session's questions ordered by Order.
	QuizQuestions(ctx context.Context, sessionID int64) ([]domain.QuizQuestion, error)
	// MarkCompleted sets completion fields only if the session is not yet completed.
	// It reports whether this call performed the transition.
	MarkCompleted(ctx context.Context, sessionID int64, completedAt time.Time, score int, timeTaken time.Duration) (bool, error)
	LeaderboardSource
	// CompletedSessions returns the taker's completed sessions, most recently started first.
	CompletedSessions(ctx context.Context, taker domain.Taker) ([]domain.QuizSession, error)
	// RecentlyCompleted returns the latest completed sessions, most recently completed first.
	RecentlyCompleted(ctx context.Context, limit int) ([]domain.QuizSession, error)
}

// LeaderboardSource returns completed sessions ranked by RankSessions order.
type LeaderboardSource interface {
	TopSessions(ctx context.Context, limit int) ([]domain.QuizSession, error)
}

// AnswerRepository stores immutable user answers.
type AnswerRepository interface {
	// CreateAnswer inserts atomically and returns domain.ErrDuplicateAnswer when the
	// (session, question) pair already has an answer.
	CreateAnswer(ctx context.Context, answer domain.UserAnswer) (domain.UserAnswer, error)
	// Answers returns the session's answers ordered by answered_at.
	Answers(ctx context.Context, sessionID int64) ([]domain.UserAnswer, error)
	Answer(ctx context.Context, sessionID, questionID int64) (domain.UserAnswer, error)
}

// Invalidator is implemented by leaderboard sources that cache results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Metrics receives quiz lifecycle events.
type Metrics interface {
	SessionCreated(kind string)
	SessionCompleted()
	AnswerRecorded(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) SessionCreated(string) {}
func (nopMetrics) SessionCompleted()     {}
func (nopMetrics) AnswerRecorded(string) {}

// QuizService contains the quiz use cases.
type QuizService struct {
	bank        QuestionBank
	sessions    SessionRepository
	answers     AnswerRepository
	leaderboard LeaderboardSource
	feed        *LeaderboardFeed
	shuffler    Shuffler
	now         func() time.Time
	log         *zap.Logger
	metrics     Metrics
}

// Option customises a QuizService.
type Option func(*QuizService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithShuffler replaces the default random permutation.
func WithShuffler(shuffler Shuffler) Option {
	return func(s *QuizService) { s.shuffler = shuffler }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

// WithMetrics sets the lifecycle event sink.
func WithMetrics(m Metrics) Option {
	return func(s *QuizService) { s.metrics = m }
}

// WithLeaderboardSource serves the leaderboard from src instead of the session repository.
func WithLeaderboardSource(src LeaderboardSource) Option {
	return func(s *QuizService) { s.leaderboard = src }
}

func NewQuizService(bank QuestionBank, sessions SessionRepository, answers AnswerRepository, opts ...Option) *QuizService {
	s := &QuizService{
		bank:        bank,
		sessions:    sessions,
		answers:     answers,
		leaderboard: sessions,
		feed:        NewLeaderboardFeed(),
		shuffler:    RandomShuffler(),
		now:         time.Now,
		log:         zap.NewNop(),
		metrics:     nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
