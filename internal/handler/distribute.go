package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/akozachenko/accesscheck/internal/model"
)

// Report variants a client can request for sending and sharing.
const (
	reportResults = "results"
	reportAnswers = "answers"
)

type distributeRequest struct {
	Report string `json:"report"`
}

func decodeDistributeRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	// An empty body defaults to the results report.
	req := distributeRequest{Report: reportResults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Report == "" {
		req.Report = reportResults
	}
	if req.Report != reportResults && req.Report != reportAnswers {
		writeError(w, http.StatusBadRequest, "report must be 'results' or 'answers'")
		return "", false
	}
	return req.Report, true
}

// renderReport produces the requested report variant for a session.
func (h *Handler) renderReport(ctx context.Context, variant string, sess model.AssessmentSession) ([]byte, string, error) {
	answers, err := h.answersForSession(sess.ID)
	if err != nil {
		return nil, "", err
	}
	switch variant {
	case reportAnswers:
		doc, err := h.assembler.FullAnswersHTML(ctx, sess, answers)
		return doc, fmt.Sprintf("accesscheck-answers-%d.html", sess.ID), err
	default:
		doc, err := h.assembler.ResultsHTML(ctx, sess, answers)
		return doc, fmt.Sprintf("accesscheck-report-%d.html", sess.ID), err
	}
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	variant, ok := decodeDistributeRequest(w, r)
	if !ok {
		return
	}
	if !h.mailer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	doc, filename, err := h.renderReport(r.Context(), variant, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if variant == reportAnswers {
		err = h.mailer.SendFullAnswers(r.Context(), sess.CenterName, filename, doc)
	} else {
		err = h.mailer.SendResults(r.Context(), sess.CenterName, filename, doc)
	}
	if isNotConfigured(err) {
		writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "report": variant})
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromURL(w, r)
	if !ok {
		return
	}
	variant, ok := decodeDistributeRequest(w, r)
	if !ok {
		return
	}

	doc, filename, err := h.renderReport(r.Context(), variant, sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.store.CreateShareLink(sess.ID, filename, "text/html; charset=utf-8", doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("created share link", "session_id", sess.ID, "report", variant, "token", token)
	writeJSON(w, http.StatusCreated, map[string]string{
		"token": token,
		"url":   strings.TrimSuffix(h.config.BaseURL, "/") + "/share/" + token,
	})
}

func (h *Handler) handleShareDocument(w http.ResponseWriter, r *http.Request) {
	link, err := h.store.GetShareLink(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if link == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", link.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", link.Filename))
	_, _ = w.Write(link.Content)
}
