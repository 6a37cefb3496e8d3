package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formprompt/pkg/model"
)

// FormsPath is the endpoint prefix served for base forms.
const FormsPath = "/api/forms/"

// HTTPOption customises an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithFetchTimeout bounds each fetch.
func WithFetchTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.timeout = timeout
	}
}

// HTTPFetcher fetches base forms from GET {base}/api/forms/{code}.
type HTTPFetcher struct {
	base    string
	client  *http.Client
	timeout time.Duration
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher for the server at baseURL.
func NewHTTPFetcher(baseURL string, options ...HTTPOption) (*HTTPFetcher, error) {
	baseURL = strings.TrimSpace(baseURL)
	parsed, err := url.Parse(baseURL)
	if baseURL == "" || err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: invalid base url %q", baseURL)
	}
	f := &HTTPFetcher{
		base:    strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		timeout: 10 * time.Second,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f, nil
}

// Fetch retrieves and locks the base form for code. A 404 maps to ErrNotFound.
func (f *HTTPFetcher) Fetch(ctx context.Context, code string) (model.Form, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Form{}, errors.New("catalog: category code is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if f.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.base+FormsPath+url.PathEscape(code), nil)
	if err != nil {
		return model.Form{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return model.Form{}, fmt.Errorf("catalog: fetch %s: %w", code, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return model.Form{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Form{}, errors.New("catalog: unexpected status " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Form{}, fmt.Errorf("catalog: read %s: %w", code, err)
	}
	var form model.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return model.Form{}, fmt.Errorf("catalog: decode %s: %w", code, err)
	}
	form.Fields = model.LockAll(form.Fields)
	if form.Fields == nil {
		form.Fields = []model.Field{}
	}
	return form, nil
}
