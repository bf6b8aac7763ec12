package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/clauselens/clauselens/internal/application/coordinator"
	appsession "github.com/clauselens/clauselens/internal/application/session"
	"github.com/clauselens/clauselens/internal/domain/analysis"
	domainconv "github.com/clauselens/clauselens/internal/domain/conversation"
	domain "github.com/clauselens/clauselens/internal/domain/session"
	"github.com/clauselens/clauselens/internal/middleware"
)

type Router struct {
	manager       *coordinator.Manager
	history       domain.Repository     // optional
	conversations domainconv.Repository // optional
}

// NewRouter mounts the add-in facing API. The add-in runs inside a browser
// sandbox, so CORS is part of the surface, not an afterthought.
func NewRouter(manager *coordinator.Manager, history domain.Repository, conversations domainconv.Repository, corsOrigins []string) http.Handler {
	r := &Router{manager: manager, history: history, conversations: conversations}
	mux := chi.NewRouter()

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/sessions", r.wrap(r.handleOpenSession))
		rt.Get("/sessions/{id}", r.wrap(r.handleSessionState))
		rt.Delete("/sessions/{id}", r.wrap(r.handleCloseSession))
		rt.Post("/sessions/{id}/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/sessions/{id}/questions", r.wrap(r.handleAsk))
		rt.Get("/sessions/{id}/conversation", r.wrap(r.handleConversation))
		rt.Post("/sessions/{id}/highlights/risk", r.wrap(r.handleHighlightRisk))
		rt.Post("/sessions/{id}/highlights/citation", r.wrap(r.handleHighlightCitation))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Get("/history/{recordID}", r.wrap(r.handleHistoryRecord))
		rt.Get("/conversations/{sessionID}", r.wrap(r.handlePersistedConversation))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if tenant := chi.URLParam(req, "tenant"); tenant != "" {
			if err := middleware.ValidateTenantID(tenant); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if id := chi.URLParam(req, "id"); id != "" {
			if err := middleware.ValidateSessionID(id); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if err := h(w, req); err != nil {
			if errors.Is(err, coordinator.ErrSessionNotFound) || errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func (r *Router) session(req *http.Request) (*coordinator.Coordinator, error) {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	return r.manager.Get(tenant, id)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/sessions
func (r *Router) handleOpenSession(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	co := r.manager.Open(tenant)
	return writeJSON(w, map[string]any{
		"id":    co.ID(),
		"state": co.State(),
	})
}

// GET /v1/{tenant}/sessions/{id}
func (r *Router) handleSessionState(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"id":             co.ID(),
		"state":          co.State(),
		"overall":        co.Overall(),
		"document_id":    co.DocumentID(),
		"failure_reason": co.FailureReason(),
	})
}

// DELETE /v1/{tenant}/sessions/{id}
func (r *Router) handleCloseSession(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	r.manager.Close(co.Tenant(), co.ID())
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{tenant}/sessions/{id}/analyze
// Body: {"document_text": "..."}; the add-in pushes the live document text.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		DocumentText string `json:"document_text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	co.LoadDocument(body.DocumentText)

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	outcome := co.RequestAnalysis(req.Context())
	middleware.DecrementAnalysesRunning()
	if outcome.Status == appsession.AnalyzeFailed {
		middleware.IncrementAnalysesFailed()
	}

	return writeJSON(w, outcome)
}

// POST /v1/{tenant}/sessions/{id}/questions
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateQuestion(body.Question); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	middleware.IncrementQuestions()
	outcome := co.Ask(req.Context(), middleware.SanitizeString(body.Question))
	if outcome.Status != "answered" {
		middleware.IncrementQuestionsFailed()
	}

	return writeJSON(w, outcome)
}

// GET /v1/{tenant}/sessions/{id}/conversation
func (r *Router) handleConversation(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"entries": co.Entries(),
	})
}

// POST /v1/{tenant}/sessions/{id}/highlights/risk
// Body: {"risk_index": 0}; positional identity into the current result.
func (r *Router) handleHighlightRisk(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		RiskIndex int `json:"risk_index"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	return writeJSON(w, co.HighlightRisk(req.Context(), body.RiskIndex))
}

// POST /v1/{tenant}/sessions/{id}/highlights/citation
func (r *Router) handleHighlightCitation(w http.ResponseWriter, req *http.Request) error {
	co, err := r.session(req)
	if err != nil {
		return err
	}
	var body struct {
		EntryIndex    int `json:"entry_index"`
		CitationIndex int `json:"citation_index"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	return writeJSON(w, co.ActivateCitation(req.Context(), body.EntryIndex, body.CitationIndex))
}

// GET /v1/{tenant}/history?limit=20&severity=high or ?page=2&limit=20
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	if r.history == nil {
		return fmt.Errorf("history persistence is not configured")
	}
	tenant := chi.URLParam(req, "tenant")
	limit := middleware.ValidateLimit(atoiQuery(req, "limit"))

	severity := req.URL.Query().Get("severity")
	if severity != "" {
		if err := middleware.ValidateSeverity(severity); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
	}

	var list []*domain.Record
	var err error
	if page := atoiQuery(req, "page"); page > 0 {
		list, err = r.history.Paginate(req.Context(), tenant, page, limit)
	} else {
		list, err = r.history.Latest(req.Context(), tenant, limit)
	}
	if err != nil {
		return err
	}
	if severity != "" {
		list = filterByOverall(list, analysis.ParseSeverity(severity))
	}
	return writeJSON(w, list)
}

func filterByOverall(list []*domain.Record, level analysis.Severity) []*domain.Record {
	out := make([]*domain.Record, 0, len(list))
	for _, rec := range list {
		if rec.Overall == level {
			out = append(out, rec)
		}
	}
	return out
}

// GET /v1/{tenant}/history/{recordID}
func (r *Router) handleHistoryRecord(w http.ResponseWriter, req *http.Request) error {
	if r.history == nil {
		return fmt.Errorf("history persistence is not configured")
	}
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "recordID")

	rec, err := r.history.Get(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	if rec == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil
	}
	return writeJSON(w, rec)
}

// GET /v1/{tenant}/conversations/{sessionID}?limit=100
// Reads the persisted audit trail; works after the live session is gone.
func (r *Router) handlePersistedConversation(w http.ResponseWriter, req *http.Request) error {
	if r.conversations == nil {
		return fmt.Errorf("conversation persistence is not configured")
	}
	tenant := chi.URLParam(req, "tenant")
	sessionID := chi.URLParam(req, "sessionID")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	entries, err := r.conversations.ListBySession(req.Context(), tenant, sessionID, atoiQuery(req, "limit"))
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"entries": entries})
}

func atoiQuery(req *http.Request, key string) int {
	n, _ := strconv.Atoi(req.URL.Query().Get(key))
	return n
}
