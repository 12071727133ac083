package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrCategoryNotFound is returned when a category id does not exist.
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	// ErrQuestionNotFound indicates a question id is unknown to the bank.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrSessionNotFound is returned when a quiz session does not exist.
	ErrSessionNotFound = fmt.Errorf("quiz session %w", ErrNotFound)
	// ErrAnswerNotFound is returned when no answer exists for a (session, question) pair.
	ErrAnswerNotFound = fmt.Errorf("answer %w", ErrNotFound)
	// ErrQuestionNotInSession rejects answers for questions the session never drew.
	ErrQuestionNotInSession = fmt.Errorf("question is not part of this session: %w", ErrNotFound)

	// ErrInsufficientQuestions means the pool is below the minimum needed to start a quiz.
	ErrInsufficientQuestions = errors.New("not enough questions")
	// ErrDuplicateAnswer is returned when a question was already answered in the session.
	ErrDuplicateAnswer = errors.New("question already answered in this session")
	// ErrInvalidInput flags malformed client input.
	ErrInvalidInput = errors.New("invalid input")
)

// Error kinds reported to clients.
const (
	KindNotFound              = "not_found"
	KindInsufficientQuestions = "insufficient_questions"
	KindDuplicateAnswer       = "duplicate_answer"
	KindInvalidInput          = "invalid_input"
	KindInternal              = "internal"
)

// KindOf classifies err into one of the known error kinds.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateAnswer):
		return KindDuplicateAnswer
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientQuestions):
		return KindInsufficientQuestions
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// InvalidInputf wraps ErrInvalidInput with a formatted reason.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
