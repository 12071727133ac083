package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quizsite-service/internal/domain"
)

// Answer outcomes reported to metrics.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// SubmitAnswer records the single answer to a question of a session and returns immediate feedback.
// It never completes the session; that happens when the next question is requested.
func (s *QuizService) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerFeedback, error) {
	feedback, err := s.submit(ctx, sub)
	switch {
	case err == nil:
		if feedback.IsCorrect {
			s.metrics.AnswerRecorded(OutcomeCorrect)
		} else {
			s.metrics.AnswerRecorded(OutcomeIncorrect)
		}
	case errors.Is(err, domain.ErrDuplicateAnswer):
		s.metrics.AnswerRecorded(OutcomeDuplicate)
		s.log.Warn("duplicate answer submission",
			zap.Int64("session_id", sub.SessionID),
			zap.Int64("question_id", sub.QuestionID),
		)
	default:
		s.metrics.AnswerRecorded(OutcomeRejected)
	}
	return feedback, err
}

func (s *QuizService) submit(ctx context.Context, sub domain.AnswerSubmission) (domain.AnswerFeedback, error) {
	selected, err := domain.ParseOption(sub.Selected)
	if err != nil {
		return domain.AnswerFeedback{}, err
	}
	if sub.TimeTaken < 0 {
		return domain.AnswerFeedback{}, domain.InvalidInputf("time taken must not be negative")
	}

	if _, err := s.sessions.GetSession(ctx, sub.SessionID); err != nil {
		return domain.AnswerFeedback{}, err
	}
	question, err := s.bank.Get(ctx, sub.QuestionID)
	if err != nil {
		return domain.AnswerFeedback{}, err
	}
	quizQuestions, err := s.sessions.QuizQuestions(ctx, sub.SessionID)
	if err != nil {
		return domain.AnswerFeedback{}, fmt.Errorf("load session questions: %w", err)
	}
	if !containsQuestion(quizQuestions, question.ID) {
		return domain.AnswerFeedback{}, domain.ErrQuestionNotInSession
	}

	answer := domain.UserAnswer{
		SessionID:  sub.SessionID,
		QuestionID: question.ID,
		Selected:   selected,
		IsCorrect:  selected == question.CorrectAnswer,
		AnsweredAt: s.now(),
		TimeTaken:  sub.TimeTaken,
	}
	if _, err := s.answers.CreateAnswer(ctx, answer); err != nil {
		return domain.AnswerFeedback{}, err
	}

	return domain.AnswerFeedback{
		IsCorrect:     answer.IsCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}, nil
}

func containsQuestion(quizQuestions []domain.QuizQuestion, questionID int64) bool {
	for _, qq := range quizQuestions {
		if qq.QuestionID == questionID {
			return true
		}
	}
	return false
}

// QuestionDetail returns a full question. When sessionID is set and the session answered the
// question, the selected option is included; a missing answer or session is not an error.
func (s *QuizService) QuestionDetail(ctx context.Context, questionID int64, sessionID *int64) (domain.QuestionDetail, error) {
	question, err := s.bank.Get(ctx, questionID)
	if err != nil {
		return domain.QuestionDetail{}, err
	}
	detail := domain.QuestionDetail{Question: question}
	if sessionID == nil {
		return detail, nil
	}

	answer, err := s.answers.Answer(ctx, *sessionID, questionID)
	switch {
	case err == nil:
		selected := answer.Selected
		detail.UserAnswer = &selected
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.QuestionDetail{}, fmt.Errorf("load answer: %w", err)
	}
	return detail, nil
}
