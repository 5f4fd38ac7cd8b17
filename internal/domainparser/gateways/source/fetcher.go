// Package source retrieves the raw public suffix list document.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/haukened/domainparser/internal/domainparser/common/log"
	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// maxDocumentSize bounds the body read from the source.
const maxDocumentSize = 16 << 20

// Fetcher downloads suffix list documents over http(s) or reads them from file URLs.
type Fetcher struct {
	client *http.Client
	logger log.Logger
}

// Options configures a Fetcher.
type Options struct {
	// Client is used as-is when set; otherwise a client with Timeout is created.
	Client  *http.Client
	Timeout time.Duration
	Logger  log.Logger
}

// New constructs a Fetcher.
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch returns the document at rawURL. Every failure wraps domain.ErrSourceUnreachable.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %w", domain.ErrSourceUnreachable, err)
	}

	start := time.Now()
	var body []byte
	switch u.Scheme {
	case "file":
		body, err = f.readFile(u.Path)
	case "http", "https":
		body, err = f.get(ctx, u.String())
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		f.logger.Warn(map[string]any{"url": rawURL, "error": err}, "Failed to fetch source document")
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreachable, err)
	}

	f.logger.Debug(map[string]any{
		"url":      rawURL,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}, "Source document fetched")
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return readLimited(resp.Body)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readLimited(fh)
}

func readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(b) > maxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}
	return b, nil
}
