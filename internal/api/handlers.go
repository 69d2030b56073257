package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// handleChat runs one conversational turn and returns the full
// interaction record, response text included.
func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds %d bytes", tooLarge.Limit)
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request", "message is required")
			return
		}
		if req.SessionID == "" {
			req.SessionID = defaultSession
		}

		turn, err := deps.Chat.ProcessMessage(r.Context(), req.SessionID, req.Message)
		if err != nil {
			logging.APIError("Chat turn failed: %v", err)
			httpError(w, http.StatusInternalServerError, "internal_error", "chat turn failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, turn)
	}
}

// handleStatus evaluates and returns the current journey status.
func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := deps.Journey.Status(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "status evaluation failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// handleGetAssessment returns the latest ability assessment.
func handleGetAssessment(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := deps.Store.LatestAssessment()
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no ability assessment yet")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "load assessment failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// handlePutAssessment applies a partial assessment update. The patch is
// merged onto the latest assessment (or scored standalone when none
// exists), persisted, and any cached improvement plan for that date is
// dropped.
func handlePutAssessment(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch types.AbilityAssessment
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request", "invalid assessment payload: %v", err)
			return
		}

		base, err := deps.Store.LatestAssessment()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "internal_error", "load assessment failed: %v", err)
			return
		}

		merged := deps.Engine.Merge(base, &patch)
		if err := deps.Engine.Validate(merged); err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "merged assessment invalid: %v", err)
			return
		}
		if err := deps.Store.SaveAssessment(merged); err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "save assessment failed: %v", err)
			return
		}
		if deps.Plans != nil {
			deps.Plans.Invalidate(merged.Date())
		}
		logging.API("Assessment %s updated via PUT (overall %d)", merged.Date(), merged.OverallScore)

		writeJSON(w, http.StatusOK, merged)
	}
}

// handleAssessmentHistory returns the assessment timeline, newest first.
// Condensed date/score/level snapshots by default; full=true returns the
// complete payloads.
func handleAssessmentHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 10)

		if r.URL.Query().Get("full") == "true" {
			history, err := deps.Store.AssessmentHistory(limit)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "internal_error", "load history failed: %v", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"count":       len(history),
				"assessments": history,
			})
			return
		}

		snaps, err := deps.Store.AssessmentSnapshots(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "load history failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":     len(snaps),
			"snapshots": snaps,
		})
	}
}

// handleListInteractions returns recent interactions for a session,
// newest first.
func handleListInteractions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := r.URL.Query().Get("session")
		if session == "" {
			session = defaultSession
		}
		limit := queryInt(r, "limit", 0)

		history, err := deps.Chat.History(session, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "load interactions failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session":      session,
			"count":        len(history),
			"interactions": history,
		})
	}
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

// handleResetSession clears a session's interaction history.
func handleResetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		// An empty body is fine and resets the default session.
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid_request", "invalid request body: %v", err)
			return
		}
		if req.SessionID == "" {
			req.SessionID = defaultSession
		}

		cleared, err := deps.Chat.Reset(req.SessionID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "reset failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session": req.SessionID,
			"cleared": cleared,
		})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
