package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
)

// Middleware wraps the handler of a named endpoint, e.g. for metrics.
type Middleware func(endpoint string, next http.Handler) http.Handler

// Handler serves the quiz JSON API.
type Handler struct {
	service  *app.QuizService
	log      *zap.Logger
	validate *validator.Validate
}

func NewHandler(service *app.QuizService, log *zap.Logger) *Handler {
	validate := validator.New()
	// Report JSON field names in validation messages.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		service:  service,
		log:      log,
		validate: validate,
	}
}

// Register mounts every API route on mux, each wrapped by mw when it is not nil.
func (h *Handler) Register(mux *http.ServeMux, mw Middleware) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /api/overview", h.overview},
		{"POST /api/quizzes/categories/{categoryID}", h.startCategoryQuiz},
		{"POST /api/quizzes/mixed", h.startMixedQuiz},
		{"GET /api/sessions/{sessionID}/question", h.currentQuestion},
		{"POST /api/answers", h.submitAnswer},
		{"GET /api/sessions/{sessionID}/results", h.results},
		{"GET /api/sessions/{sessionID}/revision", h.revision},
		{"GET /api/questions/{questionID}", h.questionDetail},
		{"GET /api/leaderboard", h.leaderboard},
		{"GET /api/stats/me", h.myStatistics},
	}
	for _, route := range routes {
		var handler http.Handler = route.handler
		if mw != nil {
			handler = mw(route.pattern, handler)
		}
		mux.Handle(route.pattern, handler)
	}
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type sessionCreated struct {
	SessionID      int64  `json:"session_id"`
	TotalQuestions int    `json:"total_questions"`
	IsMixed        bool   `json:"is_mixed"`
	CategoryID     *int64 `json:"category_id"`
}

func (h *Handler) startCategoryQuiz(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.service.CreateCategorySession(r.Context(), categoryID, takerOf(w, r, true))
	h.writeSession(w, r, session, err)
}

func (h *Handler) startMixedQuiz(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateMixedSession(r.Context(), takerOf(w, r, true))
	h.writeSession(w, r, session, err)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, session domain.QuizSession, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionCreated{
		SessionID:      session.ID,
		TotalQuestions: session.TotalQuestions,
		IsMixed:        session.IsMixed,
		CategoryID:     session.CategoryID,
	})
}

func (h *Handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	current, err := h.service.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// maxSubmitBody bounds the answer payload; real submissions are a few dozen bytes.
const maxSubmitBody = 4 << 10

type submitRequest struct {
	SessionID  int64   `json:"session_id" validate:"required,gt=0"`
	QuestionID int64   `json:"question_id" validate:"required,gt=0"`
	Selected   string  `json:"selected_answer" validate:"required"`
	TimeTaken  float64 `json:"time_taken" validate:"gte=0,lte=86400"`
}

type submitResponse struct {
	Success       bool          `json:"success"`
	IsCorrect     bool          `json:"is_correct"`
	CorrectAnswer domain.Option `json:"correct_answer"`
	Explanation   string        `json:"explanation"`
}

type submitFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeSubmitError(w, r, domain.InvalidInputf("malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeSubmitError(w, r, domain.InvalidInputf("%s", validationMessage(err)))
		return
	}

	feedback, err := h.service.SubmitAnswer(r.Context(), domain.AnswerSubmission{
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Selected:   req.Selected,
		TimeTaken:  time.Duration(req.TimeTaken * float64(time.Second)),
	})
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:       true,
		IsCorrect:     feedback.IsCorrect,
		CorrectAnswer: feedback.CorrectAnswer,
		Explanation:   feedback.Explanation,
	})
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	msg, kind, status := h.publicError(r, err)
	writeJSON(w, status, submitFailure{Success: false, Error: msg, Kind: kind})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt", "gte", "lte":
		return fe.Field() + " must be " + fe.Tag() + " " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	results, err := h.service.Results(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) revision(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	revision, err := h.service.Revision(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revision)
}

// questionDetail ignores a malformed session_id: the answer is simply omitted.
func (h *Handler) questionDetail(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var sessionID *int64
	if raw := r.URL.Query().Get("session_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			sessionID = &id
		}
	}
	detail, err := h.service.QuestionDetail(r.Context(), questionID, sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) myStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.UserStatistics(r.Context(), takerOf(w, r, false))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
