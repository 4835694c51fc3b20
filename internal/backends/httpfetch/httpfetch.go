// Package httpfetch is the built-in backend: it fetches the target page
// over net/http, routing each request through its record's proxy.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/dispatch"
	"github.com/yoleg/proxytest/internal/request"
)

// Name is the backend's registry name.
const Name = "http"

const maxErrorBodyBytes = 1024

// HTTPError represents a response with an error status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Register adds the backend to the registry. It doubles as the plugin load
// function.
func Register(reg *backend.Registry) error {
	return reg.Register(Name, backend.Func(Process))
}

// Process fetches every record in the session, parallelized per the
// session's worker-count hint.
func Process(ctx context.Context, session *request.Session) error {
	dispatch.ForEach(ctx, session.Records, session.Workers, func(ctx context.Context, rec *request.Record) {
		processRecord(ctx, rec, session.Timeout)
	})
	return nil
}

func processRecord(ctx context.Context, rec *request.Record, timeout time.Duration) {
	rec.Start()
	result, statusCode, err := fetch(ctx, rec.Config, timeout)
	if err != nil {
		rec.Fail(err)
		return
	}
	rec.Succeed(result, statusCode)
}

func fetch(ctx context.Context, cfg request.Config, timeout time.Duration) (string, int, error) {
	client, err := newClient(cfg.ProxyURL, timeout)
	if err != nil {
		return "", 0, err
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return "", 0, err
	}
	if cfg.Headers != nil {
		req.Header = cfg.Headers.Clone()
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if readErr != nil {
			return "", resp.StatusCode, readErr
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// newClient builds a client that dials through the record's proxy, or
// directly when no proxy is configured. Proxy settings from the environment
// are deliberately ignored so the test exercises exactly the proxy under
// test.
func newClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
