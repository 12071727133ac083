package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizsite-service/internal/domain"
)

type categoryModel struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull,unique"`
	Description string    `bun:"description,notnull"`
	Icon        string    `bun:"icon,notnull"`
	ColorClass  string    `bun:"color_class,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            int64     `bun:"id,pk,autoincrement"`
	CategoryID    int64     `bun:"category_id,notnull"`
	Text          string    `bun:"question_text,notnull"`
	OptionA       string    `bun:"option_a,notnull"`
	OptionB       string    `bun:"option_b,notnull"`
	OptionC       string    `bun:"option_c,notnull"`
	OptionD       string    `bun:"option_d,notnull"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	Explanation   string    `bun:"explanation,notnull"`
	ExplanationA  string    `bun:"explanation_a,notnull"`
	ExplanationB  string    `bun:"explanation_b,notnull"`
	ExplanationC  string    `bun:"explanation_c,notnull"`
	ExplanationD  string    `bun:"explanation_d,notnull"`
	ReferenceLink string    `bun:"reference_link,notnull"`
	Difficulty    string    `bun:"difficulty,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func newQuestionModel(q domain.Question) questionModel {
	return questionModel{
		CategoryID:    q.CategoryID,
		Text:          q.Text,
		OptionA:       q.Options[domain.OptionA],
		OptionB:       q.Options[domain.OptionB],
		OptionC:       q.Options[domain.OptionC],
		OptionD:       q.Options[domain.OptionD],
		CorrectAnswer: string(q.CorrectAnswer),
		Explanation:   q.Explanation,
		ExplanationA:  q.Explanations[domain.OptionA],
		ExplanationB:  q.Explanations[domain.OptionB],
		ExplanationC:  q.Explanations[domain.OptionC],
		ExplanationD:  q.Explanations[domain.OptionD],
		ReferenceLink: q.ReferenceLink,
		Difficulty:    string(q.Difficulty),
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

type sessionModel struct {
	bun.BaseModel `bun:"table:quiz_sessions,alias:s"`

	ID             int64      `bun:"id,pk,autoincrement"`
	UserID         string     `bun:"user_id,nullzero"`
	AnonymousKey   string     `bun:"anonymous_key,nullzero"`
	CategoryID     *int64     `bun:"category_id"`
	IsMixed        bool       `bun:"is_mixed,notnull"`
	StartedAt      time.Time  `bun:"started_at,notnull"`
	CompletedAt    *time.Time `bun:"completed_at"`
	Score          int        `bun:"score,notnull"`
	TotalQuestions int        `bun:"total_questions,notnull"`
	TimeTakenMS    int64      `bun:"time_taken_ms,notnull"`
}

func newSessionModel(s domain.QuizSession) sessionModel {
	return sessionModel{
		ID:             s.ID,
		UserID:         s.Taker.UserID,
		AnonymousKey:   s.Taker.AnonymousKey,
		CategoryID:     s.CategoryID,
		IsMixed:        s.IsMixed,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		TimeTakenMS:    s.TimeTaken.Milliseconds(),
	}
}

func (m sessionModel) toDomain() domain.QuizSession {
	return domain.QuizSession{
		ID:             m.ID,
		Taker:          domain.Taker{UserID: m.UserID, AnonymousKey: m.AnonymousKey},
		CategoryID:     m.CategoryID,
		IsMixed:        m.IsMixed,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		TimeTaken:      time.Duration(m.TimeTakenMS) * time.Millisecond,
	}
}

type quizQuestionModel struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	SessionID  int64 `bun:"quiz_session_id,pk"`
	QuestionID int64 `bun:"question_id,pk"`
	Order      int   `bun:"order,notnull"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID          int64     `bun:"id,pk,autoincrement"`
	SessionID   int64     `bun:"quiz_session_id,notnull"`
	QuestionID  int64     `bun:"question_id,notnull"`
	Selected    string    `bun:"selected_answer,notnull"`
	IsCorrect   bool      `bun:"is_correct,notnull"`
	AnsweredAt  time.Time `bun:"answered_at,notnull"`
	TimeTakenMS int64     `bun:"time_taken_ms,notnull"`
}

func (m answerModel) toDomain() domain.UserAnswer {
	return domain.UserAnswer{
		ID:         m.ID,
		SessionID:  m.SessionID,
		QuestionID: m.QuestionID,
		Selected:   domain.Option(m.Selected),
		IsCorrect:  m.IsCorrect,
		AnsweredAt: m.AnsweredAt,
		TimeTaken:  time.Duration(m.TimeTakenMS) * time.Millisecond,
	}
}
