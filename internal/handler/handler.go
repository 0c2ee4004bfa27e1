// Package handler exposes the assessment workflow as a JSON API plus the
// public share-link endpoint.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akozachenko/accesscheck/internal/mailer"
	"github.com/akozachenko/accesscheck/internal/model"
	"github.com/akozachenko/accesscheck/internal/recommend"
	"github.com/akozachenko/accesscheck/internal/report"
	"github.com/akozachenko/accesscheck/internal/scoring"
	"github.com/akozachenko/accesscheck/internal/store"
)

// Answers are stored verbatim; cap the body so a client cannot stuff the
// database with arbitrary blobs.
const maxAnswerBody = 64 * 1024

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	catalog   *model.Catalog
	assembler *report.Assembler
	mailer    *mailer.Mailer
	config    model.Config
}

// New creates a new Handler.
func New(s *store.Store, catalog *model.Catalog, m *mailer.Mailer, cfg model.Config) *Handler {
	return &Handler{
		store:     s,
		catalog:   catalog,
		assembler: report.New(catalog),
		mailer:    m,
		config:    cfg,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.handleCatalog)

		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Patch("/", h.handleUpdateSession)
			r.Get("/answers", h.handleListAnswers)
			r.Put("/answers/{questionID}", h.handleSaveAnswer)
			r.Delete("/answers/{questionID}", h.handleDeleteAnswer)
			r.Get("/results", h.handleResults)
			r.Post("/complete", h.handleComplete)
			r.Post("/send", h.handleSend)
			r.Post("/share", h.handleShare)
		})

		r.Post("/admin/login", h.handleLogin)
		r.Post("/admin/logout", h.handleLogout)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/sessions", h.handleAdminSessions)
			r.Get("/admin/sessions/{sessionID}/report", h.handleAdminReport)
		})
	})

	r.Get("/share/{token}", h.handleShareDocument)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionFromURL resolves the {sessionID} URL parameter to a stored session.
// On failure it writes the error response and returns ok=false.
func (h *Handler) sessionFromURL(w http.ResponseWriter, r *http.Request) (model.AssessmentSession, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return model.AssessmentSession{}, false
	}
	sess, err := h.store.GetSession(id)
	if err == sql.ErrNoRows {
		writeError(w, http.StatusNotFound, "session not found")
		return model.AssessmentSession{}, false
	}
	if err != nil {
		slog.Error("failed to get session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return model.AssessmentSession{}, false
	}
	return sess, true
}

// answersForSession loads and decodes the answer snapshot for a session.
func (h *Handler) answersForSession(sessionID int64) (map[string]model.AnswerValue, error) {
	raw, err := h.store.RawAnswers(sessionID)
	if err != nil {
		return nil, err
	}
	return model.DecodeAnswers(raw, h.catalog), nil
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

type sessionResponse struct {
	model.AssessmentSession
	AnsweredQuestions int `json:"answered_questions"`
	TotalQuestions    int `json:"total_questions"`
}

func (h *Handler) sessionResponse(sess model.AssessmentSession) (sessionResponse, error) {
	answered, err := h.store.AnswerCount(sess.ID)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{
		AssessmentSession: sess,
		AnsweredQuestions: answered,
		TotalQuestions:    h.catalog.QuestionCount(),
	}, nil
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CenterName string `json:"center_name"`
	}
	if r.Body != nil {
		// An empty body is fine, the center name can be set later.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id, err := h.store.CreateSession(req.CenterName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, err := h.store.GetSession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp, err := h.sessionResponse(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	resp, err := h.sessionResponse(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}

	var req struct {
		CenterName *string `json:"center_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CenterName == nil {
		writeError(w, http.StatusBadRequest, "center_name is required")
		return
	}

	if err := h.store.SetCenterName(sess.ID, *req.CenterName); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess.CenterName = *req.CenterName
	resp, err := h.sessionResponse(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	raw, err := h.store.RawAnswers(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	if sess.Status == model.StatusCompleted {
		writeError(w, http.StatusConflict, "session already completed")
		return
	}

	questionID := chi.URLParam(r, "questionID")
	if h.catalog.FindQuestion(questionID) == nil {
		writeError(w, http.StatusNotFound, "unknown question")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAnswerBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxAnswerBody {
		writeError(w, http.StatusRequestEntityTooLarge, "answer too large")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "answer must be valid JSON")
		return
	}

	if err := h.store.SaveAnswer(sess.ID, questionID, body); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	if sess.Status == model.StatusCompleted {
		writeError(w, http.StatusConflict, "session already completed")
		return
	}

	if err := h.store.DeleteAnswer(sess.ID, chi.URLParam(r, "questionID")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resultsResponse struct {
	Session         model.AssessmentSession   `json:"session"`
	Scores          scoring.ScoreReport       `json:"scores"`
	Recommendations []recommend.CategoryGroup `json:"recommendations"`
	Summary         []recommend.SummaryItem   `json:"summary"`
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	answers, err := h.answersForSession(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	scores := scoring.ComputeScores(answers, h.catalog)
	groups := recommend.Generate(scores.ByCategory, h.catalog)
	writeJSON(w, http.StatusOK, resultsResponse{
		Session:         sess,
		Scores:          scores,
		Recommendations: groups,
		Summary:         recommend.Summary(groups),
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	if sess.Status == model.StatusCompleted {
		writeError(w, http.StatusConflict, "session already completed")
		return
	}

	if err := h.store.UpdateSessionStatus(sess.ID, model.StatusCompleted); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess, err := h.store.GetSession(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp, err := h.sessionResponse(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("session completed", "session_id", sess.ID, "center", sess.CenterName)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp, err := h.sessionResponse(sess)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAdminReport returns the full session export as JSON, or the rendered
// full-answers document with ?format=html.
func (h *Handler) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	answers, err := h.answersForSession(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "html" {
		doc, err := h.assembler.FullAnswersHTML(r.Context(), sess, answers)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(doc)
		return
	}

	writeJSON(w, http.StatusOK, h.assembler.BuildExport(sess, answers))
}

func isNotConfigured(err error) bool {
	return errors.Is(err, mailer.ErrNotConfigured)
}
