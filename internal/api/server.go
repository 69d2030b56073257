// Package api exposes the agent over HTTP and MCP. The HTTP surface is a
// chi router around the same chat service and store the CLI uses; the MCP
// surface adapts the tool registry for MCP clients.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/agent"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/journey"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// maxRequestBodySize caps request bodies (1MB).
const maxRequestBodySize = 1 << 20

// defaultSession is the session id used when a request does not name one.
const defaultSession = "default"

// Store is the slice of the persistence layer the HTTP surface reads
// and writes directly, bypassing the chat loop. Interaction history goes
// through the chat service instead.
type Store interface {
	LatestAssessment() (*types.AbilityAssessment, error)
	AssessmentHistory(limit int) ([]*types.AbilityAssessment, error)
	AssessmentSnapshots(limit int) ([]types.AssessmentSnapshot, error)
	SaveAssessment(a *types.AbilityAssessment) error
	Counts() (types.EntityCounts, error)
}

// Deps carries everything the handlers need. Chat, Journey, Engine, and
// Store are required; Logger defaults to a no-op.
type Deps struct {
	Chat     *agent.ChatService
	Journey  *journey.Manager
	Engine   *assessment.Engine
	Plans    *assessment.PlanCache
	Registry *tools.Registry
	Store    Store
	Version  string
	Logger   *zap.Logger
}

// NewRouter builds the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", handleHealth(deps))
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", handleChat(deps))
		r.Get("/status", handleStatus(deps))
		r.Get("/assessment", handleGetAssessment(deps))
		r.Put("/assessment", handlePutAssessment(deps))
		r.Get("/assessment/history", handleAssessmentHistory(deps))
		r.Get("/interactions", handleListInteractions(deps))
		r.Post("/session/reset", handleResetSession(deps))
	})

	return r
}

// requestLogger logs one line per request with status and timing.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}

// handleHealth reports liveness. The store counts double as the database
// probe: if they fail, the service is up but degraded.
func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := deps.Store.Counts()
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "degraded",
				"version": deps.Version,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"version": deps.Version,
			"store":   counts,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, code string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": fmt.Sprintf(format, args...),
		},
	})
}
