package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"rankkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the rankkit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

func boardPath(board string, parts ...string) (string, error) {
	if strings.TrimSpace(board) == "" {
		return "", ErrEmptyBoard
	}
	var sb strings.Builder
	sb.WriteString("/boards/")
	sb.WriteString(url.PathEscape(board))
	for _, p := range parts {
		sb.WriteByte('/')
		sb.WriteString(p)
	}
	return sb.String(), nil
}

func entryPath(board, id string, parts ...string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	return boardPath(board, append([]string{"entries", url.PathEscape(id)}, parts...)...)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

// Set upserts an entry's score and payload.
func (c *Client) Set(ctx context.Context, board, id string, score float64, payload any) error {
	p, err := entryPath(board, id)
	if err != nil {
		return err
	}
	body := map[string]any{"score": score, "payload": payload}
	return c.do(ctx, http.MethodPut, p, nil, body, nil)
}

// Get returns the entry with its rank, or nil when it holds no visible rank.
func (c *Client) Get(ctx context.Context, board, id string) (*core.Ranked, error) {
	p, err := entryPath(board, id)
	if err != nil {
		return nil, err
	}
	var body struct {
		Entry core.Ranked `json:"entry"`
	}
	if err := c.do(ctx, http.MethodGet, p, nil, nil, &body); err != nil {
		if isEntryNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &body.Entry, nil
}

func isEntryNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "entry_not_found"
}

// Delete removes an entry.
func (c *Client) Delete(ctx context.Context, board, id string) error {
	p, err := entryPath(board, id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, p, nil, nil, nil)
}

// Rank returns the entry's 1-based rank, or core.NotRanked.
func (c *Client) Rank(ctx context.Context, board, id string) (Rank, error) {
	p, err := entryPath(board, id, "rank")
	if err != nil {
		return Rank{}, err
	}
	var r Rank
	err = c.do(ctx, http.MethodGet, p, nil, nil, &r)
	return r, err
}

// Range returns the entries at positions [start, stop].
func (c *Client) Range(ctx context.Context, board string, start, stop int64) (Board, error) {
	p, err := boardPath(board, "range")
	if err != nil {
		return Board{}, err
	}
	q := url.Values{}
	q.Set("start", strconv.FormatInt(start, 10))
	q.Set("stop", strconv.FormatInt(stop, 10))
	var b Board
	err = c.do(ctx, http.MethodGet, p, q, nil, &b)
	return b, err
}

// All returns the whole visible board.
func (c *Client) All(ctx context.Context, board string) (Board, error) {
	p, err := boardPath(board)
	if err != nil {
		return Board{}, err
	}
	var b Board
	err = c.do(ctx, http.MethodGet, p, nil, nil, &b)
	return b, err
}

// Save archives the current view and returns it.
func (c *Client) Save(ctx context.Context, board string) (Board, error) {
	p, err := boardPath(board, "save")
	if err != nil {
		return Board{}, err
	}
	var b Board
	err = c.do(ctx, http.MethodPost, p, nil, nil, &b)
	return b, err
}

// Archive loads a saved snapshot. season may be empty for the current one. A missing snapshot
// is returned as a nil Entries slice without error.
func (c *Client) Archive(ctx context.Context, board, season string) (Board, error) {
	p, err := boardPath(board, "archive")
	if err != nil {
		return Board{}, err
	}
	var q url.Values
	if season != "" {
		q = url.Values{"season": {season}}
	}
	var b Board
	if err := c.do(ctx, http.MethodGet, p, q, nil, &b); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "archive_not_found" {
			return Board{Board: board, Season: season}, nil
		}
		return Board{}, err
	}
	return b, nil
}

// Clean drops the board's live ranking and payloads.
func (c *Client) Clean(ctx context.Context, board string) error {
	p, err := boardPath(board, "clean")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, p, nil, nil, nil)
}

// Rotate archives and cleans season of a seasonal board (current season when empty).
func (c *Client) Rotate(ctx context.Context, board, season string) (Board, error) {
	p, err := boardPath(board, "rotate")
	if err != nil {
		return Board{}, err
	}
	var q url.Values
	if season != "" {
		q = url.Values{"season": {season}}
	}
	var b Board
	err = c.do(ctx, http.MethodPost, p, q, nil, &b)
	return b, err
}

// Season returns the current season of a seasonal board.
func (c *Client) Season(ctx context.Context, board string) (string, error) {
	p, err := boardPath(board, "season")
	if err != nil {
		return "", err
	}
	var body struct {
		Season string `json:"season"`
	}
	err = c.do(ctx, http.MethodGet, p, nil, nil, &body)
	return body.Season, err
}

// Boards lists the registered board names.
func (c *Client) Boards(ctx context.Context) ([]string, error) {
	var body struct {
		Boards []string `json:"boards"`
	}
	err := c.do(ctx, http.MethodGet, "/boards", nil, nil, &body)
	return body.Boards, err
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, &hs)
	return hs, err
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values, optionally
// only for the named boards. The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, boards ...string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if len(boards) > 0 {
		target += "?" + url.Values{"board": {strings.Join(boards, ",")}}.Encode()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			default:
				// drop if consumer is slow
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
