package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizsite-service/internal/domain"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestStoreCreateSessionOrdersQuestions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, newSession("u1", base), []int64{7, 3, 5})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != 1 {
		t.Fatalf("expected id 1, got %d", session.ID)
	}
	qqs, err := store.QuizQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("quiz questions: %v", err)
	}
	for i, want := range []int64{7, 3, 5} {
		if qqs[i].QuestionID != want || qqs[i].Order != i+1 {
			t.Fatalf("position %d: got %+v", i, qqs[i])
		}
	}

	if _, err := store.CreateSession(ctx, newSession("u1", base), []int64{1, 1}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for repeated question, got %v", err)
	}
	if _, err := store.GetSession(ctx, 42); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestStoreRejectsSecondAnswerConcurrently(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	session, err := store.CreateSession(ctx, newSession("u1", base), []int64{1, 2})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, opt := range domain.Options {
		wg.Add(1)
		go func(opt domain.Option) {
			defer wg.Done()
			_, err := store.CreateAnswer(ctx, domain.UserAnswer{SessionID: session.ID, QuestionID: 1, Selected: opt, AnsweredAt: base})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrDuplicateAnswer) {
				t.Errorf("unexpected error: %v", err)
			}
		}(opt)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one answer stored, got %d", succeeded)
	}
	answers, _ := store.Answers(ctx, session.ID)
	if len(answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(answers))
	}
	if _, err := store.Answer(ctx, session.ID, 2); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer not found, got %v", err)
	}
}

func TestStoreMarkCompletedOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	session, _ := store.CreateSession(ctx, newSession("u1", base), []int64{1})

	done, err := store.MarkCompleted(ctx, session.ID, base.Add(time.Minute), 1, 12*time.Second)
	if err != nil || !done {
		t.Fatalf("first completion: done=%v err=%v", done, err)
	}
	done, err = store.MarkCompleted(ctx, session.ID, base.Add(time.Hour), 0, 0)
	if err != nil || done {
		t.Fatalf("second completion: done=%v err=%v", done, err)
	}

	got, _ := store.GetSession(ctx, session.ID)
	if got.Score != 1 || !got.CompletedAt.Equal(base.Add(time.Minute)) || got.TimeTaken != 12*time.Second {
		t.Fatalf("completion overwritten: %+v", got)
	}
}

func TestStoreTopSessionsRanking(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a := completeSession(t, store, newSession("a", base.Add(time.Hour)), 10, 8)
	b := completeSession(t, store, newSession("b", base), 5, 4)
	c := completeSession(t, store, newSession("c", base), 10, 9)
	if _, err := store.CreateSession(ctx, newSession("d", base), []int64{1}); err != nil {
		t.Fatalf("create active session: %v", err)
	}

	top, err := store.TopSessions(ctx, 20)
	if err != nil {
		t.Fatalf("top sessions: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected completed sessions only, got %d", len(top))
	}
	want := []int64{c.ID, a.ID, b.ID}
	for i, id := range want {
		if top[i].ID != id {
			t.Fatalf("rank %d: want session %d, got %d", i+1, id, top[i].ID)
		}
	}

	mine, _ := store.CompletedSessions(ctx, domain.Taker{UserID: "a"})
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("unexpected sessions for a: %+v", mine)
	}
	recent, _ := store.RecentlyCompleted(ctx, 2)
	if len(recent) != 2 || recent[0].ID != c.ID {
		t.Fatalf("unexpected recent sessions: %+v", recent)
	}
}

func newSession(user string, started time.Time) domain.QuizSession {
	return domain.QuizSession{Taker: domain.Taker{UserID: user}, IsMixed: true, StartedAt: started}
}

// completeSession stores a session of total questions and completes it with score,
// using the session id as the completion offset so later sessions complete later.
func completeSession(t *testing.T, store *Store, s domain.QuizSession, total, score int) domain.QuizSession {
	t.Helper()
	ids := make([]int64, total)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	s.TotalQuestions = total
	created, err := store.CreateSession(context.Background(), s, ids)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	completedAt := base.Add(time.Duration(created.ID) * time.Minute)
	if _, err := store.MarkCompleted(context.Background(), created.ID, completedAt, score, 0); err != nil {
		t.Fatalf("complete session: %v", err)
	}
	created, _ = store.GetSession(context.Background(), created.ID)
	return created
}
