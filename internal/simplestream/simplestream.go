// Package simplestream provides the HTTPS client for retrieving the
// published cloud-image catalog document.
package simplestream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the published Ubuntu cloud-image host.
	DefaultBaseURL = "https://cloud-images.ubuntu.com"

	// DefaultIndexPath is the released-download catalog document.
	DefaultIndexPath = "/releases/streams/v1/com.ubuntu.cloud:released:download.json"

	// DefaultSignedIndexPath is the GPG-clearsigned variant of the catalog.
	DefaultSignedIndexPath = "/releases/streams/v1/com.ubuntu.cloud:released:download.sjson"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is the default User-Agent header.
	DefaultUserAgent = "simplestream-parser/1.0"
)

// Custom error types for better error handling
var (
	// ErrIndexNotFound indicates the catalog document is not published at
	// the configured location.
	ErrIndexNotFound = errors.New("catalog index not found")

	// ErrNetworkError indicates a transport or server-side failure.
	ErrNetworkError = errors.New("network error")
)

// StreamError represents a failed catalog retrieval.
type StreamError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e StreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetching %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("fetching %s: %d %s", e.URL, e.StatusCode, e.Message)
}

func (e StreamError) Is(target error) bool {
	if target == ErrIndexNotFound && e.StatusCode == http.StatusNotFound {
		return true
	}
	if target == ErrNetworkError && (e.StatusCode == 0 || e.StatusCode >= 500) {
		return true
	}
	return false
}

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the catalog client
type Config struct {
	BaseURL         string
	IndexPath       string
	SignedIndexPath string
	UserAgent       string
	Timeout         time.Duration
	HTTPClient      HTTPClient
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		IndexPath:       DefaultIndexPath,
		SignedIndexPath: DefaultSignedIndexPath,
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Client defines the interface for the catalog client
type Client interface {
	// FetchIndex retrieves the raw catalog document.
	FetchIndex(ctx context.Context) ([]byte, error)

	// FetchSignedIndex retrieves the clearsigned catalog document. The
	// caller is responsible for verification.
	FetchSignedIndex(ctx context.Context) ([]byte, error)
}

// client implements the Client interface
type client struct {
	config Config
}

// NewClient creates a new catalog client
func NewClient(config Config) Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.IndexPath == "" {
		config.IndexPath = DefaultIndexPath
	}
	if config.SignedIndexPath == "" {
		config.SignedIndexPath = DefaultSignedIndexPath
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &client{config: config}
}

// FetchIndex retrieves the raw catalog document.
func (c *client) FetchIndex(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, c.config.IndexPath)
}

// FetchSignedIndex retrieves the clearsigned catalog document.
func (c *client) FetchSignedIndex(ctx context.Context) ([]byte, error) {
	return c.fetch(ctx, c.config.SignedIndexPath)
}

func (c *client) fetch(ctx context.Context, path string) ([]byte, error) {
	// The catalog paths contain colons, which url.JoinPath would escape,
	// so the URL is assembled by hand.
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	streamURL := strings.TrimSuffix(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, StreamError{
			StatusCode: 0,
			Message:    err.Error(),
			URL:        streamURL,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, StreamError{
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			URL:        streamURL,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, StreamError{
			StatusCode: 0,
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			URL:        streamURL,
		}
	}

	return body, nil
}
