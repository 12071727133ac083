package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
)

// Store is an in-memory implementation of app.SessionRepository and app.AnswerRepository.
// Every write happens under one lock, so uniqueness checks and inserts are atomic.
type Store struct {
	mu            sync.RWMutex
	nextSessionID int64
	nextAnswerID  int64
	sessions      map[int64]domain.QuizSession
	quizQuestions map[int64][]domain.QuizQuestion
	answers       map[int64][]domain.UserAnswer
}

func NewStore() *Store {
	return &Store{
		sessions:      make(map[int64]domain.QuizSession),
		quizQuestions: make(map[int64][]domain.QuizQuestion),
		answers:       make(map[int64][]domain.UserAnswer),
	}
}

func (s *Store) CreateSession(_ context.Context, session domain.QuizSession, questionIDs []int64) (domain.QuizSession, error) {
	seen := make(map[int64]struct{}, len(questionIDs))
	links := make([]domain.QuizQuestion, 0, len(questionIDs))
	for i, id := range questionIDs {
		if _, dup := seen[id]; dup {
			return domain.QuizSession{}, domain.InvalidInputf("question %d drawn twice", id)
		}
		seen[id] = struct{}{}
		links = append(links, domain.QuizQuestion{QuestionID: id, Order: i + 1})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID++
	session.ID = s.nextSessionID
	for i := range links {
		links[i].SessionID = session.ID
	}
	s.sessions[session.ID] = session
	s.quizQuestions[session.ID] = links
	return session, nil
}

func (s *Store) GetSession(_ context.Context, sessionID int64) (domain.QuizSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) QuizQuestions(_ context.Context, sessionID int64) ([]domain.QuizQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]domain.QuizQuestion(nil), s.quizQuestions[sessionID]...), nil
}

func (s *Store) MarkCompleted(_ context.Context, sessionID int64, completedAt time.Time, score int, timeTaken time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if session.Completed() {
		return false, nil
	}
	session.CompletedAt = &completedAt
	session.Score = score
	session.TimeTaken = timeTaken
	s.sessions[sessionID] = session
	return true, nil
}

func (s *Store) TopSessions(_ context.Context, limit int) ([]domain.QuizSession, error) {
	return app.RankSessions(s.snapshot(), limit), nil
}

func (s *Store) CompletedSessions(_ context.Context, taker domain.Taker) ([]domain.QuizSession, error) {
	var out []domain.QuizSession
	for _, session := range s.snapshot() {
		if session.Completed() && session.Taker == taker {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) RecentlyCompleted(_ context.Context, limit int) ([]domain.QuizSession, error) {
	var out []domain.QuizSession
	for _, session := range s.snapshot() {
		if session.Completed() {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(*out[j].CompletedAt) {
			return out[i].CompletedAt.After(*out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) snapshot() []domain.QuizSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *Store) CreateAnswer(_ context.Context, answer domain.UserAnswer) (domain.UserAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[answer.SessionID]; !ok {
		return domain.UserAnswer{}, domain.ErrSessionNotFound
	}
	for _, existing := range s.answers[answer.SessionID] {
		if existing.QuestionID == answer.QuestionID {
			return domain.UserAnswer{}, domain.ErrDuplicateAnswer
		}
	}
	s.nextAnswerID++
	answer.ID = s.nextAnswerID
	s.answers[answer.SessionID] = append(s.answers[answer.SessionID], answer)
	return answer, nil
}

func (s *Store) Answers(_ context.Context, sessionID int64) ([]domain.UserAnswer, error) {
	s.mu.RLock()
	out := append([]domain.UserAnswer(nil), s.answers[sessionID]...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnsweredAt.Before(out[j].AnsweredAt) })
	return out, nil
}

func (s *Store) Answer(_ context.Context, sessionID, questionID int64) (domain.UserAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.answers[sessionID] {
		if a.QuestionID == questionID {
			return a, nil
		}
	}
	return domain.UserAnswer{}, domain.ErrAnswerNotFound
}
