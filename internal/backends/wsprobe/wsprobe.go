// Package wsprobe is a backend that validates proxies by completing a
// WebSocket handshake through them. Useful for proxies that front realtime
// endpoints, where a plain GET passing is not enough.
package wsprobe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/dispatch"
	"github.com/yoleg/proxytest/internal/request"
)

// Name is the backend's registry name.
const Name = "websocket"

// Register adds the backend to the registry. It doubles as the plugin load
// function.
func Register(reg *backend.Registry) error {
	return reg.Register(Name, backend.Func(Process))
}

// Process probes every record in the session, parallelized per the
// session's worker-count hint.
func Process(ctx context.Context, session *request.Session) error {
	dispatch.ForEach(ctx, session.Records, session.Workers, func(ctx context.Context, rec *request.Record) {
		processRecord(ctx, rec, session)
	})
	return nil
}

func processRecord(ctx context.Context, rec *request.Record, session *request.Session) {
	rec.Start()
	statusCode, err := probe(ctx, rec.Config, session)
	if err != nil {
		rec.Fail(err)
		return
	}
	rec.Succeed("", statusCode)
}

func probe(ctx context.Context, cfg request.Config, session *request.Session) (int, error) {
	target, err := websocketURL(cfg.URL)
	if err != nil {
		return 0, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: session.Timeout,
	}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return 0, fmt.Errorf("invalid proxy URL %q: %w", cfg.ProxyURL, err)
		}
		dialer.Proxy = http.ProxyURL(proxy)
	}

	header := http.Header{}
	if cfg.Headers != nil {
		header = cfg.Headers.Clone()
	}

	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return resp.StatusCode, fmt.Errorf("websocket handshake failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return 0, err
	}
	defer conn.Close()

	statusCode := http.StatusSwitchingProtocols
	if resp != nil {
		statusCode = resp.StatusCode
	}
	return statusCode, nil
}

// websocketURL maps the configured target to its WebSocket form: http
// becomes ws, https becomes wss, ws/wss pass through.
func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		// already a websocket URL
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("cannot probe %q over websocket", raw)
	}
	return u.String(), nil
}
