package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

const defaultTimeout = 30 * time.Second

// HTTP is a read-only Store backed by a remote wiki. Pages are fetched raw
// from <base>/+get/<name>; names are listed by <base>/?do=list&prefix=<p>,
// which answers with a JSON array.
type HTTP struct {
	baseURL    string
	user       string
	token      string
	httpClient *http.Client
}

// NewHTTP returns a store for the wiki at baseURL. user and token, when set,
// are sent as basic auth.
func NewHTTP(baseURL, user, token string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		user:    user,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// StatusError is a failed response other than not found or forbidden.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wiki error (status %d): %s", e.StatusCode, e.Body)
}

// do executes a GET request and returns the response.
func (h *HTTP) do(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if h.user != "" || h.token != "" {
		req.SetBasicAuth(h.user, h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, nil, ErrForbidden
	case resp.StatusCode >= 400:
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, resp.Header, nil
}

// Get implements Store. The content type comes from the response; plain
// text answers are taken as wiki markup.
func (h *HTTP) Get(ctx context.Context, name string) (Page, error) {
	name = strings.Trim(name, "/")
	body, header, err := h.do(ctx, "/+get/"+escapeName(name), nil)
	if err != nil {
		return Page{}, err
	}

	contentType := mime.MoinWiki
	if ct := header.Get("Content-Type"); ct != "" {
		if t, err := mime.Parse(ct); err == nil && !mime.PlainText.IsSupertype(t) {
			contentType = t
		}
	}
	return Page{Name: name, Content: string(body), ContentType: contentType}, nil
}

// List implements Store.
func (h *HTTP) List(ctx context.Context, prefix string) ([]string, error) {
	body, _, err := h.do(ctx, "/", url.Values{"do": {"list"}, "prefix": {prefix}})
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to parse page list: %w", err)
	}
	return names, nil
}

func escapeName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
