package main

import (
	"fmt"
	"math/rand"
	"net/http"

	"github.com/yoleg/proxytest/internal/config"
	"github.com/yoleg/proxytest/internal/proxyurl"
	"github.com/yoleg/proxytest/internal/request"
)

// noProxy as a proxy argument fetches the webpage directly.
const noProxy = "none"

// userAgents is the pool a random agent is drawn from when --agent is unset.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.7; rv:11.0) Gecko/20100101 Firefox/11.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:22.0) Gecko/20100 101 Firefox/22.0",
	"Mozilla/5.0 (Windows NT 6.1; rv:11.0) Gecko/20100101 Firefox/11.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_7_4) AppleWebKit/536.5 (KHTML, like Gecko) Chrome/19.0.1084.46 Safari/536.5",
	"Mozilla/5.0 (Windows; Windows NT 6.1) AppleWebKit/536.5 (KHTML, like Gecko) Chrome/19.0.1084.46 Safari/536.5",
}

// expandEndpoints converts command-line proxy shorthand into one proxy URL
// per request endpoint. An empty string means a direct fetch.
func expandEndpoints(proxies []string) ([]string, error) {
	var endpoints []string
	for _, raw := range proxies {
		if raw == noProxy {
			endpoints = append(endpoints, "")
			continue
		}
		urls, err := proxyurl.Expand(raw, proxyurl.DefaultPort)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		endpoints = append(endpoints, urls...)
	}
	return endpoints, nil
}

// newBatchFunc returns the per-cycle batch builder. Every cycle gets fresh
// records; configs may repeat URLs and proxies but never share status.
func newBatchFunc(cfg *config.Config, endpoints []string, observer request.Observer) func() ([]*request.Record, error) {
	return func() ([]*request.Record, error) {
		records := make([]*request.Record, 0, len(endpoints)*cfg.Number)
		for n := 0; n < cfg.Number; n++ {
			for i, endpoint := range endpoints {
				agent := cfg.UserAgent
				if agent == "" {
					agent = userAgents[rand.Intn(len(userAgents))]
				}
				headers := http.Header{}
				headers.Set("User-Agent", agent)

				rec, err := request.New(request.Config{
					Name:     fmt.Sprintf("request%d", n*len(endpoints)+i),
					URL:      cfg.TargetURL,
					ProxyURL: endpoint,
					Headers:  headers,
					Observer: observer,
				})
				if err != nil {
					return nil, err
				}
				records = append(records, rec)
			}
		}
		return records, nil
	}
}
