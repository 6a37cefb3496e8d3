package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/proposal"
	"github.com/goliatone/go-formprompt/pkg/session"
	"github.com/goliatone/go-formprompt/pkg/store"
)

const maxBodyBytes = 1 << 20

var errSessionNotFound = errors.New("server: session not found")

// badRequest marks client input errors.
type badRequest struct {
	err error
}

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func invalid(format string, args ...any) error {
	return badRequest{err: fmt.Errorf(format, args...)}
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// classify maps domain errors to a status and a stable code.
func classify(err error) (int, string) {
	var (
		bad        badRequest
		serviceErr *proposal.ServiceError
		trigger    *session.TriggerError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, proposal.ErrEmptyPrompt):
		return http.StatusBadRequest, "EMPTY_PROMPT"
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, session.ErrFieldNotFound):
		return http.StatusNotFound, "FIELD_NOT_FOUND"
	case errors.Is(err, store.ErrNoForm):
		return http.StatusNotFound, "NO_SAVED_FORM"
	case errors.Is(err, session.ErrFieldLocked):
		return http.StatusForbidden, "FIELD_LOCKED"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, session.ErrNoForm):
		return http.StatusConflict, "NO_FORM"
	case errors.Is(err, proposal.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_PROPOSAL"
	case errors.As(err, &serviceErr):
		return http.StatusBadGateway, "PROPOSAL_FAILED"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.As(err, &trigger):
		return http.StatusBadGateway, "UPSTREAM_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}
	writeError(w, status, code, message)
}

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}
