package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizsite-service/internal/domain"
)

const (
	// UserHeader carries the user id set by the upstream auth proxy.
	UserHeader = "X-User-ID"
	// TakerCookie holds the anonymous taker key.
	TakerCookie = "quiz_taker"

	takerCookieMaxAge = 365 * 24 * time.Hour
)

// takerOf identifies the caller. Authenticated users win over the anonymous cookie; a caller with
// neither gets a fresh anonymous key, persisted in a cookie when issue is set.
func takerOf(w http.ResponseWriter, r *http.Request, issue bool) domain.Taker {
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return domain.Taker{UserID: user}
	}
	if c, err := r.Cookie(TakerCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return domain.Taker{AnonymousKey: c.Value}
		}
	}
	key := uuid.NewString()
	if issue {
		http.SetCookie(w, &http.Cookie{
			Name:     TakerCookie,
			Value:    key,
			Path:     "/",
			MaxAge:   int(takerCookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return domain.Taker{AnonymousKey: key}
}
