package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
	"quizsite-service/internal/infra/memory"
)

func TestQuizFlowOverHTTP(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp := do(t, http.MethodPost, server.URL+"/api/quizzes/categories/1", nil, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created sessionCreated
	decode(t, resp, &created)
	if created.TotalQuestions != 5 || created.IsMixed {
		t.Fatalf("unexpected session %+v", created)
	}
	cookie := takerCookie(resp)
	if cookie == nil {
		t.Fatalf("expected %s cookie to be issued", TakerCookie)
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%d/question", server.URL, created.SessionID), nil, nil)
	raw := readBody(t, resp)
	if strings.Contains(raw, "correct_answer") || strings.Contains(raw, "explanation") {
		t.Fatalf("question payload leaks the answer: %s", raw)
	}
	var current domain.CurrentQuestion
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		t.Fatalf("decode current question: %v", err)
	}
	if current.Question == nil || current.Progress.Current != 1 || current.Progress.Total != 5 {
		t.Fatalf("unexpected current question %+v", current)
	}

	body := fmt.Sprintf(`{"session_id":%d,"question_id":%d,"selected_answer":"A","time_taken":2.5}`, created.SessionID, current.Question.ID)
	resp = do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(body), nil)
	var fb map[string]any
	decode(t, resp, &fb)
	if resp.StatusCode != http.StatusOK || fb["success"] != true || fb["is_correct"] != false || fb["correct_answer"] != "B" {
		t.Fatalf("unexpected feedback %d %+v", resp.StatusCode, fb)
	}

	resp = do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(body), nil)
	var failure submitFailure
	decode(t, resp, &failure)
	if resp.StatusCode != http.StatusConflict || failure.Success || failure.Kind != domain.KindDuplicateAnswer {
		t.Fatalf("expected duplicate rejection, got %d %+v", resp.StatusCode, failure)
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/questions/%d?session_id=%d", server.URL, current.Question.ID, created.SessionID), nil, nil)
	var detail domain.QuestionDetail
	decode(t, resp, &detail)
	if detail.UserAnswer == nil || *detail.UserAnswer != domain.OptionA || detail.Question.CorrectAnswer != domain.OptionB {
		t.Fatalf("unexpected detail %+v", detail)
	}

	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/questions/%d?session_id=nope", server.URL, current.Question.ID), nil, nil)
	detail = domain.QuestionDetail{}
	decode(t, resp, &detail)
	if resp.StatusCode != http.StatusOK || detail.UserAnswer != nil {
		t.Fatalf("malformed session id must yield no answer, got %d %+v", resp.StatusCode, detail)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	cases := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed", `{"session_id":`, http.StatusBadRequest, domain.KindInvalidInput},
		{"missing answer", `{"session_id":1,"question_id":1}`, http.StatusBadRequest, domain.KindInvalidInput},
		{"negative time", `{"session_id":1,"question_id":1,"selected_answer":"A","time_taken":-1}`, http.StatusBadRequest, domain.KindInvalidInput},
		{"time over a day", `{"session_id":1,"question_id":1,"selected_answer":"A","time_taken":1e12}`, http.StatusBadRequest, domain.KindInvalidInput},
		{"oversized body", `{"session_id":1,"question_id":1,"selected_answer":"` + strings.Repeat("A", 8<<10) + `"}`, http.StatusBadRequest, domain.KindInvalidInput},
		{"bad option", `{"session_id":1,"question_id":1,"selected_answer":"E"}`, http.StatusBadRequest, domain.KindInvalidInput},
		{"unknown session", `{"session_id":99,"question_id":1,"selected_answer":"A"}`, http.StatusNotFound, domain.KindNotFound},
	}
	for _, c := range cases {
		resp := do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(c.body), nil)
		var failure submitFailure
		decode(t, resp, &failure)
		if resp.StatusCode != c.status || failure.Success || failure.Kind != c.kind || failure.Error == "" {
			t.Fatalf("%s: got %d %+v", c.name, resp.StatusCode, failure)
		}
	}
}

func TestTimeTakenUpperBoundMessage(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	body := `{"session_id":1,"question_id":1,"selected_answer":"A","time_taken":1e12}`
	resp := do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(body), nil)
	var failure submitFailure
	decode(t, resp, &failure)
	if !strings.Contains(failure.Error, "time_taken must be lte 86400") {
		t.Fatalf("expected upper bound message, got %q", failure.Error)
	}
}

func TestSessionPayloadsHideAnonymousKey(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp := do(t, http.MethodPost, server.URL+"/api/quizzes/categories/1", nil, nil)
	var created sessionCreated
	decode(t, resp, &created)
	cookie := takerCookie(resp)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected %s cookie to be issued", TakerCookie)
	}

	sessionURL := fmt.Sprintf("%s/api/sessions/%d", server.URL, created.SessionID)
	resp = do(t, http.MethodGet, sessionURL+"/question", nil, nil)
	raw := readBody(t, resp)
	if strings.Contains(raw, cookie.Value) {
		t.Fatalf("question payload exposes the anonymous key: %s", raw)
	}
	var current domain.CurrentQuestion
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		t.Fatalf("decode current question: %v", err)
	}
	if current.Session.Player != domain.AnonymousPlayer {
		t.Fatalf("expected anonymous player, got %q", current.Session.Player)
	}

	body := fmt.Sprintf(`{"session_id":%d,"question_id":%d,"selected_answer":"B"}`, created.SessionID, current.Question.ID)
	resp = do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(body), nil)
	resp.Body.Close()

	for _, path := range []string{"/question", "/results", "/revision"} {
		resp = do(t, http.MethodGet, sessionURL+path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if raw := readBody(t, resp); strings.Contains(raw, cookie.Value) || strings.Contains(raw, "anonymous_key") {
			t.Fatalf("%s payload exposes the anonymous key: %s", path, raw)
		}
	}
}

func TestErrorStatuses(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodPost, "/api/quizzes/categories/2", http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/quizzes/categories/7", http.StatusNotFound},
		{http.MethodPost, "/api/quizzes/categories/abc", http.StatusBadRequest},
		{http.MethodPost, "/api/quizzes/mixed", http.StatusUnprocessableEntity},
		{http.MethodGet, "/api/sessions/42/results", http.StatusNotFound},
		{http.MethodGet, "/api/questions/42", http.StatusNotFound},
	}
	for _, c := range cases {
		resp := do(t, c.method, server.URL+c.path, nil, nil)
		var body errorBody
		decode(t, resp, &body)
		if resp.StatusCode != c.status || body.Kind == "" {
			t.Fatalf("%s %s: expected %d, got %d %+v", c.method, c.path, c.status, resp.StatusCode, body)
		}
	}
}

func TestStatisticsUseUserHeader(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()
	header := http.Header{UserHeader: []string{"alice"}}

	resp := do(t, http.MethodPost, server.URL+"/api/quizzes/categories/1", nil, header)
	var created sessionCreated
	decode(t, resp, &created)
	if takerCookie(resp) != nil {
		t.Fatalf("authenticated users must not get an anonymous cookie")
	}
	for i := 0; i < created.TotalQuestions; i++ {
		resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%d/question", server.URL, created.SessionID), nil, nil)
		var current domain.CurrentQuestion
		decode(t, resp, &current)
		body := fmt.Sprintf(`{"session_id":%d,"question_id":%d,"selected_answer":"b"}`, created.SessionID, current.Question.ID)
		resp = do(t, http.MethodPost, server.URL+"/api/answers", strings.NewReader(body), nil)
		resp.Body.Close()
	}
	resp = do(t, http.MethodGet, fmt.Sprintf("%s/api/sessions/%d/question", server.URL, created.SessionID), nil, nil)
	var current domain.CurrentQuestion
	decode(t, resp, &current)
	if !current.Completed || current.Session.Score != 5 {
		t.Fatalf("expected completed session, got %+v", current)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/stats/me", nil, header)
	var stats domain.UserStatistics
	decode(t, resp, &stats)
	if stats.TotalSessions != 1 || stats.BestScore != 100 || stats.CategoryPerformance["Science"].Sessions != 1 {
		t.Fatalf("unexpected statistics %+v", stats)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/stats/me", nil, nil)
	stats = domain.UserStatistics{}
	decode(t, resp, &stats)
	if stats.TotalSessions != 0 {
		t.Fatalf("anonymous caller must not see alice's sessions: %+v", stats)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/leaderboard", nil, nil)
	var lb domain.Leaderboard
	decode(t, resp, &lb)
	if len(lb.Entries) != 1 || lb.Entries[0].Player != "alice" || lb.Entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", lb)
	}
	if lb.Entries[0].Taker != (domain.Taker{}) {
		t.Fatalf("taker identity must not be serialized: %+v", lb.Entries[0].Taker)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/overview", nil, nil)
	var overview domain.Overview
	decode(t, resp, &overview)
	if overview.TotalCategories != 2 || overview.TotalQuestions != 9 || len(overview.RecentSessions) != 1 {
		t.Fatalf("unexpected overview %+v", overview)
	}
}

func newTestService(t *testing.T) *app.QuizService {
	t.Helper()
	store := memory.NewStore()
	return app.NewQuizService(newBank(), store, store, app.WithLogger(zaptest.NewLogger(t)))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := newTestService(t)
	mux := http.NewServeMux()
	NewHandler(service, zaptest.NewLogger(t)).Register(mux, nil)
	return httptest.NewServer(mux)
}

// newBank has Science (id 1) with 5 questions and History (id 2) with 4; B is always correct.
func newBank() *memory.StaticBank {
	categories := []domain.Category{{ID: 1, Name: "Science"}, {ID: 2, Name: "History"}}
	var questions []domain.Question
	for id := int64(1); id <= 9; id++ {
		categoryID := int64(1)
		if id > 5 {
			categoryID = 2
		}
		questions = append(questions, domain.Question{
			ID:         id,
			CategoryID: categoryID,
			Text:       fmt.Sprintf("Question %d", id),
			Options: map[domain.Option]string{
				domain.OptionA: "a", domain.OptionB: "b", domain.OptionC: "c", domain.OptionD: "d",
			},
			CorrectAnswer: domain.OptionB,
			Explanation:   "b is right",
			Difficulty:    domain.DifficultyEasy,
		})
	}
	return memory.NewStaticBank(categories, questions)
}

func do(t *testing.T, method, url string, body *strings.Reader, header http.Header) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, url, body)
	} else {
		req, err = http.NewRequest(method, url, bytes.NewReader(nil))
	}
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return buf.String()
}

func takerCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == TakerCookie {
			return c
		}
	}
	return nil
}
