// Package proxyurl expands command-line proxy shorthand such as
// "user:pass@1.2.3.4:8080-8084" into one full proxy URL per port.
package proxyurl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is assumed when the shorthand names no port.
const DefaultPort = 8080

// Expand parses one proxy shorthand string and returns the expanded URLs.
// The scheme defaults to http, credentials and a port range are optional,
// and nothing may follow the port or port range.
func Expand(raw string, defaultPort int) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("proxyurl: proxy URL is required")
	}
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}

	scheme := "http"
	rest := raw
	if before, after, ok := strings.Cut(raw, "://"); ok {
		scheme = strings.ToLower(before)
		rest = after
		if scheme != "http" && scheme != "https" {
			return nil, fmt.Errorf("proxyurl: unsupported scheme %q", before)
		}
	}

	// A bare trailing slash is tolerated; any real path, query, or fragment
	// after the port or port range is not.
	rest = strings.TrimSuffix(rest, "/")
	if strings.ContainsAny(rest, "/?#") {
		return nil, errors.New("proxyurl: nothing may follow the port or port range")
	}
	if rest == "" {
		return nil, errors.New("proxyurl: missing host")
	}

	userinfo := ""
	hostport := rest
	if before, after, ok := strings.Cut(rest, "@"); ok {
		userinfo = before
		hostport = after
	}

	host := hostport
	ports := strconv.Itoa(defaultPort)
	if i := strings.LastIndex(hostport, ":"); i >= 0 {
		host = hostport[:i]
		ports = hostport[i+1:]
	}
	if host == "" {
		return nil, errors.New("proxyurl: missing host")
	}

	startStr, endStr, isRange := strings.Cut(ports, "-")
	if !isRange {
		endStr = startStr
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return nil, fmt.Errorf("proxyurl: invalid port %q", startStr)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return nil, fmt.Errorf("proxyurl: invalid port %q", endStr)
	}
	if start < 1 || end > 65535 || end < start {
		return nil, fmt.Errorf("proxyurl: invalid port range %q", ports)
	}

	prefix := scheme + "://"
	if userinfo != "" {
		prefix += userinfo + "@"
	}
	urls := make([]string, 0, end-start+1)
	for port := start; port <= end; port++ {
		urls = append(urls, prefix+host+":"+strconv.Itoa(port))
	}
	return urls, nil
}
