package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/yoleg/proxytest/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Proxy Test Results ---")
	fmt.Fprintf(w, "Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Cycles:            %d\n", stats.Cycles)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.FailuresByProxy) > 0 {
		fmt.Fprintln(w, "\nFailures by Proxy:")
		proxies := make([]string, 0, len(stats.FailuresByProxy))
		for proxy := range stats.FailuresByProxy {
			proxies = append(proxies, proxy)
		}
		sort.Slice(proxies, func(i, j int) bool {
			if stats.FailuresByProxy[proxies[i]] != stats.FailuresByProxy[proxies[j]] {
				return stats.FailuresByProxy[proxies[i]] > stats.FailuresByProxy[proxies[j]]
			}
			return proxies[i] < proxies[j]
		})
		for _, proxy := range proxies {
			fmt.Fprintf(w, "  - %s: %d\n", proxy, stats.FailuresByProxy[proxy])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
