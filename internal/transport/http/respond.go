package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"quizsite-service/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusOf maps an error kind onto its HTTP status.
func statusOf(kind string) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientQuestions:
		return http.StatusUnprocessableEntity
	case domain.KindDuplicateAnswer:
		return http.StatusConflict
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicError hides internal error detail from clients and logs it instead.
func (h *Handler) publicError(r *http.Request, err error) (string, string, int) {
	kind := domain.KindOf(err)
	status := statusOf(kind)
	if kind == domain.KindInternal {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		return "internal server error", kind, status
	}
	return err.Error(), kind, status
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg, kind, status := h.publicError(r, err)
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidInputf("%s %q is not a valid id", name, raw)
	}
	return id, nil
}
