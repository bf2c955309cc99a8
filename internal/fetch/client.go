// Package fetch is the HTTP client used for every remote page, feed and audio file.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 20 << 20

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config holds HTTP client settings
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxBodyBytes caps Get responses; downloads to disk are not capped.
	MaxBodyBytes int64
	UserAgent    string
}

// Client sends browser-like requests so sites that reject bare HTTP clients still answer.
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient creates a Client, filling zero fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = browserUserAgent
	}

	maxRedirects := cfg.MaxRedirects
	return &Client{
		cfg: cfg,
		http: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Get returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return nil, domain.Wrap(domain.ErrFetchFailed, fmt.Errorf("read %s: %w", url, err))
	}
	return body, nil
}

// ResolveURL follows redirects with a HEAD request and returns the final URL.
func (c *Client) ResolveURL(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return resp.Request.URL.String(), nil
}

// DownloadFile streams a 200 response into path and returns the bytes written.
// Only the connection is bounded by the context; large audio files may take
// longer than the page timeout.
func (c *Client) DownloadFile(ctx context.Context, url, path string) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, domain.Wrap(domain.ErrFetchFailed, fmt.Errorf("download %s: %w", url, err))
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, domain.Wrap(domain.ErrFetchFailed, err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Wrap(domain.ErrFetchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, domain.Wrap(domain.ErrFetchStatus, fmt.Errorf("%s %s: %d", method, url, resp.StatusCode))
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
