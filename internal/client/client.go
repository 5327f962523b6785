// Package client provides an HTTP client for the market tracker REST
// API plus the local tracking state used by the CLI.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rumfor/market-tracker/internal/auth"
	"github.com/rumfor/market-tracker/internal/comment"
	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

// Client is an HTTP client for the market tracker API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. The token may be a JWT access token or
// an API key; both go in the same bearer header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Pagination mirrors the list response page window.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListOptions controls filtering for ListMarkets. All fields map
// directly to query parameters.
type ListOptions struct {
	Search        string
	Categories    []string
	Statuses      []string
	Location      string
	Accessibility []string
	Tags          []string
	Sort          string
	Page          int
	Limit         int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if len(o.Categories) > 0 {
		q.Set("category", strings.Join(o.Categories, ","))
	}
	if len(o.Statuses) > 0 {
		q.Set("status", strings.Join(o.Statuses, ","))
	}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	if len(o.Accessibility) > 0 {
		q.Set("accessibility", strings.Join(o.Accessibility, ","))
	}
	if len(o.Tags) > 0 {
		q.Set("tags", strings.Join(o.Tags, ","))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListMarkets returns a filtered page of markets.
func (c *Client) ListMarkets(opts ListOptions) ([]*market.Market, *Pagination, error) {
	var markets []*market.Market
	page, err := c.get("/api/markets"+opts.query(), &markets)
	if err != nil {
		return nil, nil, err
	}
	return markets, page, nil
}

// ShowResponse is the response from GET /api/markets/{id}.
type ShowResponse struct {
	Market  *market.Market `json:"market"`
	Tracked bool           `json:"tracked"`
}

// GetMarket returns one market with the caller's tracking flag.
func (c *Client) GetMarket(id int64) (*ShowResponse, error) {
	var resp ShowResponse
	if _, err := c.get(fmt.Sprintf("/api/markets/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateMarket adds a new market owned by the caller.
func (c *Client) CreateMarket(m *market.Market) (*market.Market, error) {
	var created market.Market
	if err := c.post("/api/markets", m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Track starts tracking a market, optionally at a specific status
// instead of the default interested.
func (c *Client) Track(marketID int64, status ...tracking.Status) (*tracking.Tracking, error) {
	var body interface{}
	if len(status) > 0 {
		body = map[string]tracking.Status{"status": status[0]}
	}

	var tr tracking.Tracking
	if err := c.post(fmt.Sprintf("/api/markets/%d/track", marketID), body, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Untrack stops tracking a market.
func (c *Client) Untrack(marketID int64) error {
	return c.post(fmt.Sprintf("/api/markets/%d/untrack", marketID), nil, nil)
}

// ListTrackings returns the caller's tracked markets.
func (c *Client) ListTrackings() ([]*tracking.Tracking, error) {
	var trackings []*tracking.Tracking
	if _, err := c.get("/api/trackings", &trackings); err != nil {
		return nil, err
	}
	return trackings, nil
}

// UpdateTrackingStatus moves a tracking to a new status.
func (c *Client) UpdateTrackingStatus(trackingID int64, status string) (*tracking.Tracking, error) {
	var tr tracking.Tracking
	err := c.put(fmt.Sprintf("/api/trackings/%d/status", trackingID), map[string]string{"status": status}, &tr)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// AddTodo records a preparation task.
func (c *Client) AddTodo(trackingID int64, title string) (*tracking.Todo, error) {
	var todo tracking.Todo
	err := c.post(fmt.Sprintf("/api/trackings/%d/todos", trackingID), map[string]string{"title": title}, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// AddExpense records a cost in cents.
func (c *Client) AddExpense(trackingID int64, description string, amountCents int64) (*tracking.Expense, error) {
	var e tracking.Expense
	body := map[string]interface{}{"description": description, "amountCents": amountCents}
	if err := c.post(fmt.Sprintf("/api/trackings/%d/expenses", trackingID), body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// AddComment adds a comment to a market.
func (c *Client) AddComment(marketID int64, text string) (*comment.Comment, error) {
	var comm comment.Comment
	err := c.post(fmt.Sprintf("/api/markets/%d/comments", marketID), map[string]string{"text": text}, &comm)
	if err != nil {
		return nil, err
	}
	return &comm, nil
}

// ListComments returns comments for a market.
func (c *Client) ListComments(marketID int64) ([]*comment.Comment, error) {
	var comments []*comment.Comment
	if _, err := c.get(fmt.Sprintf("/api/markets/%d/comments", marketID), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// LoginResponse is the response from POST /api/auth/login.
type LoginResponse struct {
	User         *auth.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Login authenticates with email and password.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post("/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAPIKey mints a long-lived CLI credential. The plaintext key is
// only ever returned here.
func (c *Client) CreateAPIKey(name string) (string, error) {
	var resp struct {
		Key string `json:"key"`
	}
	if err := c.post("/api/keys", map[string]string{"name": name}, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

// get performs a GET request and decodes the envelope.
func (c *Client) get(path string, result interface{}) (*Pagination, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	return c.send("POST", path, body, result)
}

// put performs a PUT request with a JSON body.
func (c *Client) put(path string, body interface{}, result interface{}) error {
	return c.send("PUT", path, body, result)
}

func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	_, err = c.do(req, result)
	return err
}

// do executes an HTTP request with the auth header and unwraps the
// response envelope.
func (c *Client) do(req *http.Request, result interface{}) (*Pagination, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var env struct {
		Success    bool            `json:"success"`
		Data       json.RawMessage `json:"data"`
		Error      string          `json:"error"`
		Pagination *Pagination     `json:"pagination"`
	}

	if resp.StatusCode >= 400 {
		if json.Unmarshal(respBody, &env) == nil && env.Error != "" {
			return nil, fmt.Errorf("%s", env.Error)
		}
		return nil, fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("%s", env.Error)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
	}

	return env.Pagination, nil
}
