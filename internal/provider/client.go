// Package provider implements the HTTP client for the hosted conversation
// API. Responses are normalized into canonical records and failures are
// classified; retry policy lives one layer up.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/logger"
)

// DefaultBaseURL is the hosted provider endpoint.
const DefaultBaseURL = "https://tavusapi.com"

// timeNow is stubbed in tests that pin client-side timestamps.
var timeNow = time.Now

// Client issues authenticated calls against the provider REST API.
type Client struct {
	BaseURL string

	http    *http.Client
	limiter *rate.Limiter

	mu    sync.RWMutex
	creds *config.Credentials
}

// New returns a client using creds. Requests are rate limited client-side
// because the verify scheduler and repository can hammer the list endpoint.
func New(creds *config.Credentials) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		creds:   creds,
	}
}

// SetCredentials swaps the credentials, e.g. after a hot reload of the
// credentials file.
func (c *Client) SetCredentials(creds *config.Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

func (c *Client) credentials() *config.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

func (c *Client) requireKey() error {
	if c.credentials().APIKey == "" {
		return &MissingCredentialsError{Reason: "API key is required. Run 'parley config set' first."}
	}
	return nil
}

func (c *Client) requireAll() error {
	if err := c.requireKey(); err != nil {
		return err
	}
	creds := c.credentials()
	if creds.ReplicaID == "" || creds.PersonaID == "" {
		return &MissingCredentialsError{Reason: "Replica ID and Persona ID are required. Run 'parley config set' first."}
	}
	return nil
}

// do issues one request and returns the status code and body. Transport
// failures come back as ConnectionError with status 0; non-2xx statuses are
// classified by the caller since End needs to inspect them.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, &ConnectionError{Message: err.Error()}
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.credentials().APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &ConnectionError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &ConnectionError{Status: resp.StatusCode, Message: err.Error()}
	}
	return resp.StatusCode, respBody, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// errMessage extracts the provider's error message from a failed response
// body, falling back to the status text.
func errMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}

// TestConnection probes the listing endpoint and falls back to the replicas
// capability probe. It reports the item count found in whichever body shape
// the successful probe returned.
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	if err := c.requireKey(); err != nil {
		return 0, err
	}

	status, body, err := c.do(ctx, http.MethodGet, "/v2/conversations", nil, nil, nil)
	if err == nil && success(status) {
		return countItems(body), nil
	}

	logger.Debug("conversations probe failed, trying replicas", "status", status)
	status, body, err = c.do(ctx, http.MethodGet, "/v2/replicas", nil, nil, nil)
	if err != nil {
		return 0, err
	}
	if !success(status) {
		return 0, &ConnectionError{Status: status, Message: errMessage(status, body)}
	}
	return countItems(body), nil
}

// countItems finds the item count in a probe body: a top-level array, or the
// first array-valued field of a wrapper object.
func countItems(body []byte) int {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return 0
	}
	if items, ok := matchBareArray(v); ok {
		return len(items)
	}
	if items, ok := matchWrappedArray(v); ok {
		return len(items)
	}
	if obj, ok := v.(map[string]any); ok {
		for _, key := range sortedKeys(obj) {
			if items, ok := obj[key].([]any); ok {
				return len(items)
			}
		}
	}
	return 0
}

// List fetches up to limit conversations. The request is timestamped to
// defeat intermediate caches; items without a conversation id are discarded.
func (c *Client) List(ctx context.Context, limit int) ([]Record, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	now := timeNow().UTC()
	query := url.Values{
		"limit": {strconv.Itoa(limit)},
		"_t":    {strconv.FormatInt(now.UnixMilli(), 10)},
	}
	headers := map[string]string{
		"Cache-Control": "no-cache",
		"Pragma":        "no-cache",
		"Expires":       "0",
	}

	status, body, err := c.do(ctx, http.MethodGet, "/v2/conversations", query, nil, headers)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if !success(status) {
		return nil, &ConnectionError{Status: status, Message: errMessage(status, body)}
	}

	records, err := normalizeList(body)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	stampMissingCreatedAt(records, now.Format(time.RFC3339))
	return records, nil
}

// Get fetches a single conversation by id.
func (c *Client) Get(ctx context.Context, id string) (Record, error) {
	if err := c.requireKey(); err != nil {
		return Record{}, err
	}

	status, body, err := c.do(ctx, http.MethodGet, "/v2/conversations/"+id, nil, nil, nil)
	if err != nil {
		return Record{}, fmt.Errorf("get conversation: %w", err)
	}
	if !success(status) {
		return Record{}, &ConnectionError{Status: status, Message: errMessage(status, body)}
	}

	records, err := normalizeList(body)
	if err != nil {
		return Record{}, fmt.Errorf("get conversation: %w", err)
	}
	if len(records) == 0 {
		return Record{}, &NotFoundError{ID: id}
	}
	rec := records[0]
	if rec.CreatedAt == "" {
		rec.CreatedAt = timeNow().UTC().Format(time.RFC3339)
	}
	return rec, nil
}

// Create provisions a new conversation. All three credentials are validated
// before any network call. When no name is supplied one is generated from
// the request timestamp, and that same timestamp backfills created_at if the
// provider omits it.
func (c *Client) Create(ctx context.Context, name string) (Record, error) {
	if err := c.requireAll(); err != nil {
		return Record{}, err
	}

	requested := timeNow().UTC().Format(time.RFC3339)
	if name == "" {
		name = "Conversation " + requested
	}

	creds := c.credentials()
	payload := map[string]string{
		"replica_id":        creds.ReplicaID,
		"persona_id":        creds.PersonaID,
		"conversation_name": name,
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v2/conversations", nil, payload, nil)
	if err != nil {
		return Record{}, fmt.Errorf("create conversation: %w", err)
	}
	if !success(status) {
		return Record{}, &ConnectionError{Status: status, Message: errMessage(status, body)}
	}

	rec, err := normalizeOne(body)
	if err != nil {
		return Record{}, fmt.Errorf("create conversation: %w", err)
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = requested
	}
	logger.Info("conversation created", "id", rec.ID, "name", rec.Name)
	return rec, nil
}

// End stops a conversation without deleting it: the dedicated end action
// first, then a status update for providers that lack it. It never
// escalates to deletion.
func (c *Client) End(ctx context.Context, id string) error {
	if err := c.requireKey(); err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodPost, "/v2/conversations/"+id+"/end", nil, nil, nil)
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	if success(status) {
		return nil
	}

	logger.Debug("end action unsupported, trying status update", "id", id, "status", status)
	patchStatus, body, err := c.do(ctx, http.MethodPatch, "/v2/conversations/"+id, nil, map[string]string{"status": "ended"}, nil)
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	if success(patchStatus) {
		return nil
	}
	return &EndUnsupportedError{Status: patchStatus, Message: errMessage(patchStatus, body)}
}

// Delete permanently removes a conversation.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.requireKey(); err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodDelete, "/v2/conversations/"+id, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if !success(status) {
		return &DeleteError{Status: status, Message: errMessage(status, body)}
	}
	logger.Info("conversation deleted", "id", id)
	return nil
}
