package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/N3z3d/prioris/internal/model"
)

// HTTPDoer is the subset of [*http.Client] the adapter uses. Defining it
// as an interface allows mock injection in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter talks to the Prioris cloud API. Create one with [NewAdapter] or,
// for tests, [NewAdapterWithClient]. The repositories returned by
// [Adapter.Lists] and [Adapter.Items] satisfy the engine's ports.
type Adapter struct {
	baseURL string
	token   string
	hc      HTTPDoer
	log     *slog.Logger
}

// NewAdapter creates an Adapter for the API at baseURL, authenticating
// every request with the given bearer token.
func NewAdapter(baseURL, token string, logger *slog.Logger) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     logger,
	}
}

// NewAdapterWithClient creates an Adapter with a caller-supplied HTTP
// client. Intended for testing with a mock [HTTPDoer].
func NewAdapterWithClient(baseURL, token string, hc HTTPDoer, logger *slog.Logger) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      hc,
		log:     logger,
	}
}

// Ping validates connectivity and the token with retry. Used at startup;
// a failed ping means the engine starts unauthenticated.
func (a *Adapter) Ping(ctx context.Context) error {
	err := Retry(ctx, defaultMaxAttempts, func() error {
		return a.doJSON(ctx, http.MethodGet, "/api/v1/ping", nil, nil)
	})
	if err != nil {
		return fmt.Errorf("ping cloud API: %w", err)
	}
	return nil
}

// Lists returns the cloud list repository.
func (a *Adapter) Lists() *ListClient { return &ListClient{a: a} }

// Items returns the cloud item repository.
func (a *Adapter) Items() *ItemClient { return &ItemClient{a: a} }

// errNotFound marks a 404 response so GetByID can map it to (nil, nil).
type errNotFound struct{ path string }

func (e *errNotFound) Error() string { return fmt.Sprintf("resource %s not found", e.path) }

// doJSON performs one request against the API. in (when non-nil) is
// marshalled as the JSON body; out (when non-nil) receives the decoded
// response body.
func (a *Adapter) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("executing %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &errNotFound{path: path}
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("cloud API returned 401 Unauthorized — check api_token")
	case resp.StatusCode >= 300:
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("cloud API returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("cloud API returned unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
		}
	}
	return nil
}

// --- ListClient --------------------------------------------------------------

// ListClient is the cloud-backed list repository.
type ListClient struct {
	a *Adapter
}

// GetAll fetches every list.
func (c *ListClient) GetAll(ctx context.Context) ([]*model.List, error) {
	var env listsEnvelope
	if err := c.a.doJSON(ctx, http.MethodGet, "/api/v1/lists", nil, &env); err != nil {
		return nil, err
	}
	lists := make([]*model.List, 0, len(env.Lists))
	for _, d := range env.Lists {
		lists = append(lists, listFromDTO(d))
	}
	return lists, nil
}

// GetByID fetches one list, or (nil, nil) if the API reports 404.
func (c *ListClient) GetByID(ctx context.Context, id string) (*model.List, error) {
	var d listDTO
	err := c.a.doJSON(ctx, http.MethodGet, "/api/v1/lists/"+url.PathEscape(id), nil, &d)
	if err != nil {
		var nf *errNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return listFromDTO(d), nil
}

// Save creates the list server-side. The server enforces its own
// uniqueness constraints on the id.
func (c *ListClient) Save(ctx context.Context, list *model.List) error {
	return c.a.doJSON(ctx, http.MethodPost, "/api/v1/lists", listToDTO(list), nil)
}

// Update replaces the list's server-side representation.
func (c *ListClient) Update(ctx context.Context, list *model.List) error {
	return c.a.doJSON(ctx, http.MethodPut, "/api/v1/lists/"+url.PathEscape(list.ID), listToDTO(list), nil)
}

// Delete removes the list server-side.
func (c *ListClient) Delete(ctx context.Context, id string) error {
	return c.a.doJSON(ctx, http.MethodDelete, "/api/v1/lists/"+url.PathEscape(id), nil, nil)
}

// --- ItemClient --------------------------------------------------------------

// ItemClient is the cloud-backed item repository.
type ItemClient struct {
	a *Adapter
}

// GetAll fetches every item.
func (c *ItemClient) GetAll(ctx context.Context) ([]*model.Item, error) {
	var env itemsEnvelope
	if err := c.a.doJSON(ctx, http.MethodGet, "/api/v1/items", nil, &env); err != nil {
		return nil, err
	}
	items := make([]*model.Item, 0, len(env.Items))
	for _, d := range env.Items {
		items = append(items, itemFromDTO(d))
	}
	return items, nil
}

// GetByID fetches one item, or (nil, nil) if the API reports 404.
func (c *ItemClient) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var d itemDTO
	err := c.a.doJSON(ctx, http.MethodGet, "/api/v1/items/"+url.PathEscape(id), nil, &d)
	if err != nil {
		var nf *errNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return itemFromDTO(d), nil
}

// GetByListID fetches the items of one list.
func (c *ItemClient) GetByListID(ctx context.Context, listID string) ([]*model.Item, error) {
	var env itemsEnvelope
	path := "/api/v1/lists/" + url.PathEscape(listID) + "/items"
	if err := c.a.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	items := make([]*model.Item, 0, len(env.Items))
	for _, d := range env.Items {
		items = append(items, itemFromDTO(d))
	}
	return items, nil
}

// Save creates the item server-side.
func (c *ItemClient) Save(ctx context.Context, item *model.Item) error {
	return c.a.doJSON(ctx, http.MethodPost, "/api/v1/items", itemToDTO(item), nil)
}

// Update replaces the item's server-side representation.
func (c *ItemClient) Update(ctx context.Context, item *model.Item) error {
	return c.a.doJSON(ctx, http.MethodPut, "/api/v1/items/"+url.PathEscape(item.ID), itemToDTO(item), nil)
}

// Delete removes the item server-side.
func (c *ItemClient) Delete(ctx context.Context, id string) error {
	return c.a.doJSON(ctx, http.MethodDelete, "/api/v1/items/"+url.PathEscape(id), nil, nil)
}
