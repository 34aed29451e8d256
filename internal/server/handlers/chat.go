package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/RimvydasPet/tech-doc-assistant/internal/assistant"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	apperrors "github.com/RimvydasPet/tech-doc-assistant/internal/errors"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/metrics"
)

// globalAssistant is injected from the server package at startup.
var globalAssistant *assistant.Assistant

// SetAssistant injects the question-answering pipeline.
func SetAssistant(a *assistant.Assistant) {
	globalAssistant = a
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID string              `json:"session_id"`
	Message   string              `json:"message"`
	Language  string              `json:"language,omitempty"`
	Visual    bool                `json:"visual,omitempty"`
	UseTools  *bool               `json:"use_tools,omitempty"`
	History   []core.HistoryEntry `json:"history,omitempty"`
}

// ChatHandler answers one question.
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	if globalAssistant == nil {
		respondWithError(w, r, gferrors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "assistant not initialized"))
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be valid JSON"))
		return
	}

	if strings.TrimSpace(req.SessionID) == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("session_id is required"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("message is required"))
		return
	}

	start := time.Now()
	answer, err := globalAssistant.Ask(r.Context(), assistant.AskRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
		Language:  req.Language,
		History:   req.History,
		Visual:    req.Visual,
		UseTools:  req.UseTools,
	})
	if err != nil {
		metrics.RecordQuestion(req.Language, false, time.Since(start))

		var rle *assistant.RateLimitError
		if errors.As(err, &rle) {
			w.Header().Set("Retry-After", retryAfterHeader(rle.RetryAfter))
		}
		respondWithError(w, r, classifyChatError(r, err))
		return
	}

	metrics.RecordQuestion(answer.Language, true, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(answer)
}

// classifyChatError maps pipeline failures onto API error envelopes. The
// wrapped error text is preserved so upstream failures surface unmodified.
func classifyChatError(r *http.Request, err error) error {
	var rle *assistant.RateLimitError
	if errors.As(err, &rle) {
		metrics.RecordRateLimitRejection()

		seconds := int(rle.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}

		envelope := apperrors.NewRateLimitedError(rle.Error())
		envelope = envelope.WithDetails(map[string]interface{}{
			"retry_after_seconds": seconds,
			"requests_used":       rle.Used,
			"limit":               rle.Limit,
		})
		return envelope
	}

	if driver.IsRateLimited(err) {
		return apperrors.WrapExternalService(r.Context(), err, "model provider rate limited the request")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.WrapTimeout(r.Context(), err, "question processing timed out")
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) {
		return apperrors.WrapExternalService(r.Context(), err, "model provider request failed")
	}

	return apperrors.WrapInternal(r.Context(), err, "failed to answer question")
}

// retryAfterHeader renders the Retry-After value for a rate-limit rejection.
func retryAfterHeader(retryAfter time.Duration) string {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
