package domain

import "time"

// Progress describes how far a taker is through a session.
// Current is the 1-based number of the question being shown.
type Progress struct {
	Current    int     `json:"current_question_number"`
	Total      int     `json:"total_questions"`
	Answered   int     `json:"answered"`
	Percentage float64 `json:"progress_percentage"`
}

// QuestionPrompt is the client-facing form of a question during a quiz; it omits the answer.
type QuestionPrompt struct {
	ID           int64             `json:"id"`
	CategoryName string            `json:"category"`
	Text         string            `json:"question"`
	Options      map[Option]string `json:"options"`
	Difficulty   Difficulty        `json:"difficulty"`
}

// Prompt strips answer material from q.
func (q Question) Prompt() QuestionPrompt {
	return QuestionPrompt{
		ID:           q.ID,
		CategoryName: q.CategoryName,
		Text:         q.Text,
		Options:      q.Options,
		Difficulty:   q.Difficulty,
	}
}

// SessionView is the client-facing form of a session. The taker is reduced to its public
// name so anonymous keys stay on the server.
type SessionView struct {
	ID             int64         `json:"id"`
	Player         string        `json:"player"`
	CategoryID     *int64        `json:"category_id"`
	IsMixed        bool          `json:"is_mixed"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	TimeTaken      time.Duration `json:"time_taken"`
}

// View renders s for clients.
func (s QuizSession) View() SessionView {
	return SessionView{
		ID:             s.ID,
		Player:         s.Taker.PublicName(),
		CategoryID:     s.CategoryID,
		IsMixed:        s.IsMixed,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		TimeTaken:      s.TimeTaken,
	}
}

// CurrentQuestion is the next unanswered question of a session, or Completed when none remain.
type CurrentQuestion struct {
	Session   SessionView     `json:"session"`
	Completed bool            `json:"completed"`
	Order     int             `json:"order,omitempty"`
	Question  *QuestionPrompt `json:"question,omitempty"`
	Progress  Progress        `json:"progress"`
}

// AnswerFeedback is returned right after an answer is recorded.
type AnswerFeedback struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer Option `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// AnswerSubmission is the input of a single answer.
type AnswerSubmission struct {
	SessionID  int64
	QuestionID int64
	Selected   string
	TimeTaken  time.Duration
}

// AnswerReview pairs a recorded answer with its question.
type AnswerReview struct {
	Answer   UserAnswer `json:"answer"`
	Question Question   `json:"question"`
}

// CategoryTally counts answers within one category. HalfTotal is a display midpoint only.
type CategoryTally struct {
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	HalfTotal float64 `json:"half_total"`
}

// Tier is a performance band keyed by final percentage.
type Tier string

const (
	TierMaster       Tier = "master"
	TierExcellent    Tier = "excellent"
	TierGreat        Tier = "great"
	TierGood         Tier = "good"
	TierKeepStudying Tier = "keep_studying"
)

// Results summarises a session.
type Results struct {
	Session            SessionView              `json:"session"`
	CategoryName       string                   `json:"category"`
	Answers            []AnswerReview           `json:"answers"`
	CorrectCount       int                      `json:"correct_count"`
	IncorrectCount     int                      `json:"incorrect_count"`
	Percentage         int                      `json:"percentage"`
	Tier               Tier                     `json:"tier"`
	PerformanceMessage string                   `json:"performance_message"`
	CategoryStats      map[string]CategoryTally `json:"category_stats"`
}

// Revision lists a session's answers with every option and explanation.
type Revision struct {
	Session SessionView    `json:"session"`
	Answers []AnswerReview `json:"answers"`
}

// QuestionDetail is a full question plus the caller's answer, if any.
type QuestionDetail struct {
	Question   Question `json:"question"`
	UserAnswer *Option  `json:"user_answer"`
}

// SessionSummary is a compact view of a completed session.
type SessionSummary struct {
	SessionID      int64      `json:"session_id"`
	CategoryName   string     `json:"category"`
	IsMixed        bool       `json:"is_mixed"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Percentage     int        `json:"percentage"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// AnonymousPlayer is the public name of takers without an account.
const AnonymousPlayer = "Anonymous"

// LeaderboardEntry is one ranked completed session. Taker stays server-side so anonymous
// keys never reach other clients.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Taker  Taker  `json:"-"`
	Player string `json:"player"`
	SessionSummary
}

// Leaderboard captures the ranked top sessions.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CategoryPerformance aggregates a taker's category sessions.
type CategoryPerformance struct {
	Sessions       int `json:"sessions"`
	TotalScore     int `json:"total_score"`
	TotalQuestions int `json:"total_questions"`
	Percentage     int `json:"percentage"`
}

// UserStatistics aggregates every completed session of a taker.
type UserStatistics struct {
	TotalSessions          int                            `json:"total_sessions"`
	AverageScore           float64                        `json:"avg_score"`
	BestScore              int                            `json:"best_score"`
	TotalQuestionsAnswered int                            `json:"total_questions_answered"`
	TotalCorrect           int                            `json:"total_correct"`
	CategoryPerformance    map[string]CategoryPerformance `json:"category_performance"`
	RecentSessions         []SessionSummary               `json:"recent_sessions"`
}

// Overview feeds the landing page.
type Overview struct {
	Categories      []Category       `json:"categories"`
	RecentSessions  []SessionSummary `json:"recent_sessions"`
	TotalQuestions  int              `json:"total_questions"`
	TotalCategories int              `json:"total_categories"`
}
