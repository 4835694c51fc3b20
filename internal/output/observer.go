package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yoleg/proxytest/internal/request"
)

// LogObserver logs request lifecycle events and optionally prints fetched
// content using a placeholder template. It is shared across workers, so the
// print path is serialized; the log path relies on zerolog being safe for
// concurrent use.
type LogObserver struct {
	Log      zerolog.Logger
	Print    io.Writer // nil disables content printing
	Template string

	mu sync.Mutex
}

var _ request.Observer = (*LogObserver)(nil)

// RequestStarted logs the beginning of a fetch.
func (o *LogObserver) RequestStarted(rec *request.Record) {
	o.Log.Info().Str("request", rec.LogKey()).Msgf("%s: connecting to %s", rec.LogKey(), rec.Config.URL)
}

// RequestFinished logs the outcome and, on success, prints the rendered
// template to the configured writer.
func (o *LogObserver) RequestFinished(rec *request.Record) {
	status := rec.Status()
	elapsed := rec.Elapsed()

	if !rec.Succeeded() {
		o.Log.Warn().
			Str("request", rec.LogKey()).
			Dur("elapsed", elapsed).
			Msgf("%s: error connecting to %s: %s (%.2fs)", rec.LogKey(), rec.Config.URL, status.Error, elapsed.Seconds())
		return
	}

	o.Log.Info().
		Str("request", rec.LogKey()).
		Dur("elapsed", elapsed).
		Msgf("%s: success! got %d characters from %s (%.2fs)", rec.LogKey(), len(status.Result), rec.Config.URL, elapsed.Seconds())

	if o.Print == nil || o.Template == "" {
		return
	}
	line := ApplyPlaceholders(o.Template, rec.Placeholders())
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.Print, line)
}
