// Package remote talks to the optional movie metadata service: it reads the
// enrichment catalog once at startup and reports watch events.
package remote

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

	"tableflip.dev/reel/pkg/library"
)

const (
	// DefaultLimit bounds the number of records requested from the service.
	DefaultLimit = 500

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 8 << 20 // 8 MiB
)

// ErrNotFound is returned when the service does not know a watched path.
var ErrNotFound = errors.New("remote: movie not found")

// ServiceError describes a failed call to the metadata service.
type ServiceError struct {
	Op     string
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Client is a small HTTP client for the metadata service.
type Client struct {
	base  *url.URL
	root  string
	limit int
	http  *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLimit sets how many records Movies requests.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a client for the service at baseURL. root is the library root
// used to derive path keys for watch notifications.
func New(baseURL, root string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("remote: base url required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote: base url %q must be absolute", baseURL)
	}
	if root != "" {
		root = absPath(root)
	}
	c := &Client{
		base:  u,
		root:  root,
		limit: DefaultLimit,
		http:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	u.RawQuery = q.Encode()
	return u.String()
}

// Movies fetches up to the configured limit of movie records.
func (c *Client) Movies(ctx context.Context) ([]Movie, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/movies/", q), nil)
	if err != nil {
		return nil, &ServiceError{Op: "list movies", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: "list movies", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &ServiceError{Op: "list movies", Status: resp.StatusCode}
	}

	var movies []Movie
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&movies); err != nil {
		return nil, &ServiceError{Op: "decode movies", Err: err}
	}
	return movies, nil
}

// Index fetches the movie records and builds a path index over them.
func (c *Client) Index(ctx context.Context) (*Index, error) {
	movies, err := c.Movies(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(c.root, movies), nil
}

// Watched reports that e was played. Each candidate path key is tried until
// the service accepts one.
func (c *Client) Watched(ctx context.Context, e library.Entry) error {
	var last error = ErrNotFound
	for _, key := range Candidates(c.root, e.Path) {
		err := c.incrementWatch(ctx, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		last = err
	}
	return last
}

func (c *Client) incrementWatch(ctx context.Context, key string) error {
	q := url.Values{}
	q.Set("path", key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/movies/increment_watch/", q), nil)
	if err != nil {
		return &ServiceError{Op: "increment watch", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Op: "increment watch", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ServiceError{Op: "increment watch", Status: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode/100 != 2:
		return &ServiceError{Op: "increment watch", Status: resp.StatusCode}
	}
	return nil
}
