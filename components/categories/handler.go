package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type HTTPError interface {
	error
	StatusCode() int
}

// StatusError lets a guard choose the rejection status.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type listResponse struct {
	Data []Option `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{Data: c.Search(query.Get("q"), limit)})
}

func (c *Component) get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	category, ok := c.opts.Source.Category(code)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown category "+strconv.Quote(code))
		return
	}
	writeJSON(w, r, http.StatusOK, optionOf(category))
}

func (c *Component) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := c.opts.Guard(r); err != nil {
			status := http.StatusForbidden
			var httpErr HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.StatusCode()
			}
			writeError(w, status, statusCode(status), err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("categories: limit must be a non-negative integer")
	}
	return value, nil
}

func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code})
}
