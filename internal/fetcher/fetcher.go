package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/oshokin/tpi/internal/logger"
)

// MediaType is requested through the accept header.
const MediaType = "application/sorbet"

// notFoundMarker in a response body means the registry has no such package.
const notFoundMarker = "not found"

// LocalPackageTip explains how to refer to a descriptor on disk.
const LocalPackageTip = `If you're trying to install a local package, it must be prefixed with './', '.\' or '/'`

var (
	// ErrPackageNotFound is returned after the not-found exit hook when it returns.
	ErrPackageNotFound = errors.New("package not found")
	// errBadHTTPStatus is returned for non-2xx responses that are not a not-found body.
	errBadHTTPStatus = errors.New("unexpected http status")
)

// Reporter receives the user-facing diagnostic printed before a not-found exit.
type Reporter interface {
	Fail(message string)
	Tip(message string)
}

// Fetcher retrieves descriptor text.
type Fetcher struct {
	// client performs the requests.
	client *http.Client
	// reporter prints the not-found diagnostic.
	reporter Reporter
	// exit terminates the process on a not-found body.
	exit func(code int)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each request. Zero keeps requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			client := *f.client
			client.Timeout = timeout
			f.client = &client
		}
	}
}

// WithExit replaces os.Exit for the not-found hard exit.
func WithExit(exit func(code int)) Option {
	return func(f *Fetcher) {
		if exit != nil {
			f.exit = exit
		}
	}
}

// New creates a fetcher reporting not-found packages through reporter.
func New(reporter Reporter, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   http.DefaultClient,
		reporter: reporter,
		exit:     os.Exit,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads the descriptor at url and returns its body.
//
// A body containing "not found" (any case) prints a diagnostic and terminates
// the process with status 1 instead of returning an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", MediaType)

	logger.DebugKV(ctx, "Fetching descriptor", "url", url)

	response, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", url, err)
	}

	text := string(body)

	if strings.Contains(strings.ToLower(text), notFoundMarker) {
		logger.WarnKV(ctx, "Registry reported a missing package", "url", url, "status", response.StatusCode)

		if f.reporter != nil {
			f.reporter.Fail("Package not found!")
			f.reporter.Tip(LocalPackageTip)
		}

		f.exit(1)

		return "", fmt.Errorf("%s: %w", url, ErrPackageNotFound)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	return text, nil
}
