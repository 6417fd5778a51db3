package story

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/storyapp/storyapp/pkg/auth"
)

// DefaultBaseURL is the public story API.
const DefaultBaseURL = "https://story-api.dicoding.dev/v1"

// maxResponseSize bounds API response bodies.
const maxResponseSize = 8 << 20

// APIError is a non-2xx answer from the story API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("story api: %d %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses to sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return auth.ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsTransient reports whether err is worth retrying later, i.e. it is not
// a client-side rejection by the API.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Client talks to the story API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient creates an API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "story-api")
	return c
}

// Login implements auth.Authenticator.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Principal, error) {
	body, err := c.postJSON(ctx, "/login", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.Principal{}, err
	}
	r := gjson.GetBytes(body, "loginResult")
	return auth.Principal{
		UserID: r.Get("userId").String(),
		Name:   r.Get("name").String(),
		Token:  r.Get("token").String(),
	}, nil
}

// Register implements auth.Authenticator.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	_, err := c.postJSON(ctx, "/register", "", map[string]string{"name": name, "email": email, "password": password})
	return err
}

// Stories lists a page of stories.
func (c *Client) Stories(ctx context.Context, token string, opts ListOptions) ([]Story, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}
	if opts.WithLocation {
		q.Set("location", "1")
	}
	path := "/stories"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, path, token, "", nil)
	if err != nil {
		return nil, err
	}

	list := gjson.GetBytes(body, "listStory").Array()
	stories := make([]Story, 0, len(list))
	for _, item := range list {
		stories = append(stories, parseStory(item))
	}
	return stories, nil
}

// Story fetches one story.
func (c *Client) Story(ctx context.Context, token, id string) (Story, error) {
	body, err := c.do(ctx, http.MethodGet, "/stories/"+url.PathEscape(id), token, "", nil)
	if err != nil {
		return Story{}, err
	}
	r := gjson.GetBytes(body, "story")
	if !r.Exists() {
		return Story{}, ErrNotFound
	}
	return parseStory(r), nil
}

// AddStory publishes a story as a multipart upload.
func (c *Client) AddStory(ctx context.Context, token string, n NewStory) error {
	if err := n.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("description", n.Description); err != nil {
		return err
	}
	name := n.PhotoName
	if name == "" {
		name = "photo.jpg"
	}
	part, err := w.CreateFormFile("photo", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(n.Photo); err != nil {
		return err
	}
	if n.Lat != nil && n.Lon != nil {
		_ = w.WriteField("lat", strconv.FormatFloat(*n.Lat, 'f', -1, 64))
		_ = w.WriteField("lon", strconv.FormatFloat(*n.Lon, 'f', -1, 64))
	}
	if err := w.Close(); err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPost, "/stories", token, w.FormDataContentType(), &buf)
	return err
}

func (c *Client) postJSON(ctx context.Context, path, token string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, token, "application/json", bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, method, path, token, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("story api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("story api: read response: %w", err)
	}
	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	// The API reports failures both through the status and an "error" flag.
	if resp.StatusCode >= 300 || gjson.GetBytes(data, "error").Bool() {
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		status := resp.StatusCode
		if status < 300 {
			status = http.StatusBadRequest
		}
		return nil, &APIError{Status: status, Message: msg}
	}
	return data, nil
}

func parseStory(r gjson.Result) Story {
	s := Story{
		ID:          r.Get("id").String(),
		Name:        r.Get("name").String(),
		Description: r.Get("description").String(),
		PhotoURL:    r.Get("photoUrl").String(),
	}
	if t, err := time.Parse(time.RFC3339, r.Get("createdAt").String()); err == nil {
		s.CreatedAt = t
	}
	lat, lon := r.Get("lat"), r.Get("lon")
	if lat.Type == gjson.Number && lon.Type == gjson.Number {
		la, lo := lat.Float(), lon.Float()
		s.Lat, s.Lon = &la, &lo
	}
	return s
}
