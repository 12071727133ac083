package app

import (
	"math"
	"sort"

	"quizsite-service/internal/domain"
)

// MixedQuizName labels sessions that span every category.
const MixedQuizName = "Mixed Quiz"

var tierMessages = map[domain.Tier]string{
	domain.TierMaster:       "Outstanding! You're a quiz master! 🏆",
	domain.TierExcellent:    "Excellent work! You know your stuff! 🌟",
	domain.TierGreat:        "Great job! You did really well! 👏",
	domain.TierGood:         "Good effort! Room for improvement! 👍",
	domain.TierKeepStudying: "Keep studying and try again! You've got this! 💪",
}

// Percentage is round(score/total*100), or 0 for an empty session.
// Halves round to even.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(score) / float64(total) * 100))
}

// TierFor maps a percentage to its band; lower bounds are inclusive.
func TierFor(percentage int) domain.Tier {
	switch {
	case percentage >= 90:
		return domain.TierMaster
	case percentage >= 80:
		return domain.TierExcellent
	case percentage >= 70:
		return domain.TierGreat
	case percentage >= 60:
		return domain.TierGood
	default:
		return domain.TierKeepStudying
	}
}

// PerformanceMessage returns the feedback line for a percentage.
func PerformanceMessage(percentage int) string {
	return tierMessages[TierFor(percentage)]
}

// CategoryBreakdown groups answers by their question's category name.
func CategoryBreakdown(reviews []domain.AnswerReview) map[string]domain.CategoryTally {
	stats := make(map[string]domain.CategoryTally)
	for _, r := range reviews {
		tally := stats[r.Question.CategoryName]
		tally.Total++
		if r.Answer.IsCorrect {
			tally.Correct++
		}
		stats[r.Question.CategoryName] = tally
	}
	for name, tally := range stats {
		tally.HalfTotal = float64(tally.Total) / 2
		stats[name] = tally
	}
	return stats
}

// RankSessions returns at most limit completed, non-empty sessions ordered by exact score ratio
// desc, raw score desc, then earliest start. The input is not modified.
func RankSessions(sessions []domain.QuizSession, limit int) []domain.QuizSession {
	ranked := make([]domain.QuizSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed() && s.TotalQuestions > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankedBefore(ranked[i], ranked[j])
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankedBefore(a, b domain.QuizSession) bool {
	// Cross-multiplied to compare score/total exactly.
	lhs := int64(a.Score) * int64(b.TotalQuestions)
	rhs := int64(b.Score) * int64(a.TotalQuestions)
	if lhs != rhs {
		return lhs > rhs
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.Before(b.StartedAt)
	}
	return a.ID < b.ID
}

// Summarize builds the compact view of a session. names maps category ids to names.
func Summarize(session domain.QuizSession, names map[int64]string) domain.SessionSummary {
	return domain.SessionSummary{
		SessionID:      session.ID,
		CategoryName:   categoryLabel(session, names),
		IsMixed:        session.IsMixed,
		Score:          session.Score,
		TotalQuestions: session.TotalQuestions,
		Percentage:     Percentage(session.Score, session.TotalQuestions),
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
	}
}

func categoryLabel(session domain.QuizSession, names map[int64]string) string {
	if session.CategoryID == nil {
		return MixedQuizName
	}
	return names[*session.CategoryID]
}

// AggregateUserStatistics folds a taker's completed sessions, most recent first, into statistics.
func AggregateUserStatistics(sessions []domain.QuizSession, names map[int64]string) domain.UserStatistics {
	stats := domain.UserStatistics{
		CategoryPerformance: make(map[string]domain.CategoryPerformance),
		RecentSessions:      make([]domain.SessionSummary, 0, min(len(sessions), RecentUserSessions)),
	}
	if len(sessions) == 0 {
		return stats
	}

	percentSum := 0
	for i, session := range sessions {
		pct := Percentage(session.Score, session.TotalQuestions)
		percentSum += pct
		if i == 0 || pct > stats.BestScore {
			stats.BestScore = pct
		}
		stats.TotalQuestionsAnswered += session.TotalQuestions
		stats.TotalCorrect += session.Score
		if i < RecentUserSessions {
			stats.RecentSessions = append(stats.RecentSessions, Summarize(session, names))
		}

		if session.CategoryID == nil {
			continue
		}
		name := names[*session.CategoryID]
		perf := stats.CategoryPerformance[name]
		perf.Sessions++
		perf.TotalScore += session.Score
		perf.TotalQuestions += session.TotalQuestions
		stats.CategoryPerformance[name] = perf
	}
	for name, perf := range stats.CategoryPerformance {
		perf.Percentage = Percentage(perf.TotalScore, perf.TotalQuestions)
		stats.CategoryPerformance[name] = perf
	}

	stats.TotalSessions = len(sessions)
	avg := float64(percentSum) / float64(len(sessions))
	stats.AverageScore = math.RoundToEven(avg*10) / 10
	return stats
}
