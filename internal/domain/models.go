package domain

import (
	"strings"
	"time"
)

// Option is one of the four answer letters of a question.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options lists the answer letters in presentation order.
var Options = [...]Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption accepts a single answer letter; surrounding space and case are ignored.
func ParseOption(raw string) (Option, error) {
	opt := Option(strings.ToUpper(strings.TrimSpace(raw)))
	if !opt.Valid() {
		return "", InvalidInputf("selected answer %q must be one of A, B, C, D", raw)
	}
	return opt, nil
}

// Valid reports whether o is one of A..D.
func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category groups questions by topic. Names are unique.
type Category struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	ColorClass    string    `json:"color_class"`
	CreatedAt     time.Time `json:"created_at"`
	QuestionCount int       `json:"question_count"`
}

// Question is a four-option multiple choice question.
type Question struct {
	ID            int64             `json:"id"`
	CategoryID    int64             `json:"category_id"`
	CategoryName  string            `json:"category"`
	Text          string            `json:"question"`
	Options       map[Option]string `json:"options"`
	CorrectAnswer Option            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Explanations  map[Option]string `json:"explanations"`
	ReferenceLink string            `json:"reference_link,omitempty"`
	Difficulty    Difficulty        `json:"difficulty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Validate checks that the correct answer points at a populated option.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return InvalidInputf("question text is empty")
	}
	for _, opt := range Options {
		if strings.TrimSpace(q.Options[opt]) == "" {
			return InvalidInputf("question %q: option %s is empty", q.Text, opt)
		}
	}
	if !q.CorrectAnswer.Valid() {
		return InvalidInputf("question %q: correct answer %q must be one of A, B, C, D", q.Text, q.CorrectAnswer)
	}
	if q.Difficulty != "" && !q.Difficulty.Valid() {
		return InvalidInputf("question %q: unknown difficulty %q", q.Text, q.Difficulty)
	}
	return nil
}

// Taker identifies who attempts a quiz: an authenticated user or an anonymous key, never both.
type Taker struct {
	UserID       string `json:"user_id,omitempty"`
	AnonymousKey string `json:"anonymous_key,omitempty"`
}

func (t Taker) Validate() error {
	hasUser, hasKey := t.UserID != "", t.AnonymousKey != ""
	if hasUser == hasKey {
		return InvalidInputf("taker must be identified by exactly one of user id or anonymous key")
	}
	return nil
}

// IsAuthenticated reports whether the taker is a known user.
func (t Taker) IsAuthenticated() bool { return t.UserID != "" }

// PublicName is the name shown on the leaderboard.
func (t Taker) PublicName() string {
	if t.IsAuthenticated() {
		return t.UserID
	}
	return AnonymousPlayer
}

// QuizSession is one quiz attempt.
type QuizSession struct {
	ID             int64         `json:"id"`
	Taker          Taker         `json:"taker"`
	CategoryID     *int64        `json:"category_id"`
	IsMixed        bool          `json:"is_mixed"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	TimeTaken      time.Duration `json:"time_taken"`
}

// Completed reports whether the session reached its terminal state.
func (s QuizSession) Completed() bool { return s.CompletedAt != nil }

// QuizQuestion places a question at a 1-based position within a session.
type QuizQuestion struct {
	SessionID  int64 `json:"session_id"`
	QuestionID int64 `json:"question_id"`
	Order      int   `json:"order"`
}

// UserAnswer is the single, immutable answer to a question within a session.
type UserAnswer struct {
	ID         int64         `json:"id"`
	SessionID  int64         `json:"session_id"`
	QuestionID int64         `json:"question_id"`
	Selected   Option        `json:"selected_answer"`
	IsCorrect  bool          `json:"is_correct"`
	AnsweredAt time.Time     `json:"answered_at"`
	TimeTaken  time.Duration `json:"time_taken"`
}
