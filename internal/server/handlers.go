package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/session"
	"github.com/goliatone/go-formprompt/pkg/store"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.openapi)
}

func (s *Server) getBaseForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.fetcher.Fetch(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// proposeFields is the stateless prompt endpoint. The client owns the
// conversation and sends it with every call.
func (s *Server) proposeFields(w http.ResponseWriter, r *http.Request) {
	var req proposal.Request
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		s.fail(w, r, proposal.ErrEmptyPrompt)
		return
	}
	current, err := proposal.Normalize(req.CurrentFields)
	if err != nil {
		s.fail(w, r, invalid("currentFields: %v", err))
		return
	}
	req.CurrentFields = current

	resp, err := s.proposer.Propose(r.Context(), req)
	if err != nil {
		s.metrics.proposal(OutcomeFailed)
		s.fail(w, r, err)
		return
	}
	if resp.Fields == nil {
		resp.Fields = []model.Field{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getSavedForm(w http.ResponseWriter, r *http.Request) {
	form, err := store.LoadForm(r.Context(), s.kv)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, r, errSessionNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		s.fail(w, r, errSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryBody struct {
	Code string `json:"code"`
}

func (s *Server) selectCategory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body categoryBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := sess.SelectCategory(r.Context(), body.Code); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

func (s *Server) submitPrompt(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body promptBody
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	if !sess.Busy() {
		sess.SetPrompt(body.Prompt)
	}
	outcome, err := sess.SubmitPrompt(r.Context(), body.Prompt)
	switch {
	case errors.Is(err, session.ErrBusy):
		s.metrics.proposal(OutcomeBusy)
	case errors.Is(err, session.ErrSuperseded):
		s.metrics.proposal(OutcomeStale)
	case err != nil:
		s.metrics.proposal(OutcomeFailed)
	case outcome.Skipped:
		s.metrics.proposal(OutcomeSkipped)
	default:
		s.metrics.merged(len(outcome.Added), outcome.Discarded)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if outcome.Added == nil {
		outcome.Added = []model.Field{}
	}
	if outcome.Skipped {
		if current := sess.Snapshot().Current; current != nil {
			outcome.Form = *current
		}
	}
	if outcome.Form.Fields == nil {
		outcome.Form.Fields = []model.Field{}
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) removeField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveField(chi.URLParam(r, "fieldID")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Submit(r.Context(), s.kv); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	data, filename, err := sess.Export()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
