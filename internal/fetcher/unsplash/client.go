package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxDownloadBytes caps a single photo download.
const DefaultMaxDownloadBytes = 25 << 20

// ErrNoResults reports a search page with no photos.
var ErrNoResults = errors.New("no search results")

// ErrTooLarge reports a download that exceeded the size ceiling.
var ErrTooLarge = errors.New("download exceeds size limit")

// Photo is the subset of an Unsplash photo the fetcher needs.
type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AltText     string `json:"alt_description"`
	URLs        URLs   `json:"urls"`
}

// URLs lists the rendition links of a photo.
type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
}

// SearchResponse models /search/photos.
type SearchResponse struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

// Payload is a downloaded photo.
type Payload struct {
	Data        []byte
	ContentType string
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unsplash %s returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("unsplash %s returned %d: %s", e.Op, e.Status, e.Body)
}

// RateLimited reports whether the server refused the call for quota reasons.
func (e *StatusError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests || (e.Status == http.StatusForbidden && strings.Contains(strings.ToLower(e.Body), "rate limit"))
}

// Client talks to the Unsplash API.
type Client struct {
	accessKey   string
	baseURL     string
	orientation string
	maxBytes    int64
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithMaxDownloadBytes overrides DefaultMaxDownloadBytes.
func WithMaxDownloadBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBytes = limit
		}
	}
}

// New creates an Unsplash client. Orientation may be empty.
func New(accessKey, baseURL, orientation string, opts ...Option) (*Client, error) {
	accessKey = strings.TrimSpace(accessKey)
	if accessKey == "" {
		return nil, errors.New("unsplash access key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("unsplash base url required")
	}
	client := &Client{
		accessKey:   accessKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		orientation: strings.TrimSpace(orientation),
		maxBytes:    DefaultMaxDownloadBytes,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search returns the photo on the given 1-based result page. It returns
// ErrNoResults when the page is empty.
func (c *Client) Search(ctx context.Context, query string, page int) (Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Photo{}, errors.New("query must not be empty")
	}
	if page < 1 {
		page = 1
	}
	endpoint, err := url.Parse(c.baseURL + "/search/photos")
	if err != nil {
		return Photo{}, fmt.Errorf("parse unsplash url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("page", strconv.Itoa(page))
	if c.orientation != "" {
		params.Set("orientation", c.orientation)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Photo{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Photo{}, fmt.Errorf("execute search (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Photo{}, statusError("search", resp)
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Photo{}, fmt.Errorf("decode unsplash response: %w", err)
	}
	for _, photo := range payload.Results {
		if photo.URLs.Regular != "" {
			return photo, nil
		}
	}
	return Photo{}, ErrNoResults
}

// Download fetches a photo rendition.
func (c *Client) Download(ctx context.Context, rawURL string) (Payload, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Payload{}, errors.New("download url must not be empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("execute download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Payload{}, statusError("download", resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("read download: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return Payload{}, ErrTooLarge
	}
	return Payload{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
