package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/RimvydasPet/tech-doc-assistant/internal/errors"
)

// UsageResponse reports the rate-limit state and token usage of a session.
type UsageResponse struct {
	SessionID       string          `json:"session_id"`
	RequestsUsed    int             `json:"requests_used"`
	RequestsLimit   int             `json:"requests_limit"`
	Remaining       int             `json:"remaining"`
	WindowSeconds   int             `json:"window_seconds"`
	ResetsInSeconds int             `json:"resets_in_seconds"`
	TokensUsed      int64           `json:"tokens_used"`
	History         []UsageQuestion `json:"history,omitempty"`
}

// UsageQuestion is one answered question in the session history.
type UsageQuestion struct {
	Question    string    `json:"question"`
	Language    string    `json:"language"`
	TotalTokens int       `json:"total_tokens"`
	AskedAt     time.Time `json:"asked_at"`
}

// UsageHandler answers GET /api/usage/{session}.
func UsageHandler(w http.ResponseWriter, r *http.Request) {
	if globalAssistant == nil {
		respondWithError(w, r, apperrors.NewInternalError("assistant not initialized"))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "session"))
	if sessionID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("session id is required"))
		return
	}

	snap := globalAssistant.Usage(sessionID)

	response := UsageResponse{
		SessionID:       sessionID,
		RequestsUsed:    snap.Used,
		RequestsLimit:   snap.Used + snap.Remaining,
		Remaining:       snap.Remaining,
		WindowSeconds:   int(snap.Window.Seconds()),
		ResetsInSeconds: int(snap.ResetsIn.Round(time.Second).Seconds()),
		TokensUsed:      snap.TokensUsed,
	}

	if limit := historyLimit(r); limit > 0 {
		records, err := globalAssistant.SessionHistory(r.Context(), sessionID, limit)
		if err != nil {
			respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load session history"))
			return
		}
		for _, rec := range records {
			response.History = append(response.History, UsageQuestion{
				Question:    rec.Question,
				Language:    rec.Language,
				TotalTokens: rec.Usage.TotalTokens,
				AskedAt:     rec.AskedAt,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// UsageResetResponse is the body of POST /api/usage/{session}/reset.
type UsageResetResponse struct {
	SessionID string `json:"session_id"`
	Reset     bool   `json:"reset"`
}

// UsageResetHandler clears a session's sliding window and token count.
func UsageResetHandler(w http.ResponseWriter, r *http.Request) {
	if globalAssistant == nil {
		respondWithError(w, r, apperrors.NewInternalError("assistant not initialized"))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "session"))
	if sessionID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("session id is required"))
		return
	}

	globalAssistant.ResetUsage(sessionID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(UsageResetResponse{SessionID: sessionID, Reset: true})
}

// historyLimit parses the optional history query parameter (0 = no history).
func historyLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("history"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}
