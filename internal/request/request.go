// Package request models a single proxy fetch attempt: its immutable
// configuration, its mutable status, and the session object shared with a
// backend strategy.
package request

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// State identifies where a record is in its lifecycle.
type State int

const (
	StateUnstarted State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer receives lifecycle events for a record. Callbacks run on the
// worker goroutine processing the record and must not block; a slow observer
// stalls the dispatcher.
type Observer interface {
	RequestStarted(*Record)
	RequestFinished(*Record)
}

// Config is the immutable configuration for one fetch attempt.
type Config struct {
	Name     string
	URL      string
	ProxyURL string // empty means fetch the URL directly, without a proxy
	Headers  http.Header
	Observer Observer
}

// Status is a snapshot of a record's mutable outcome. All writes go through
// Record methods; callers only ever see copies.
type Status struct {
	State      State
	Started    time.Time
	Finished   time.Time
	Error      string
	Result     string
	StatusCode int
}

func (s Status) String() string {
	switch s.State {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "error: " + s.Error
	default:
		return "unstarted"
	}
}

// Record pairs one Config with one Status. A record transitions
// unstarted -> running -> succeeded|failed exactly once and is read-only
// afterward. Each record is mutated by at most one worker, so no locking is
// needed as long as that ownership invariant holds.
type Record struct {
	Config Config
	status Status
}

// New validates the configuration and returns an unstarted record.
func New(cfg Config) (*Record, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("request: URL is required")
	}
	return &Record{Config: cfg}, nil
}

// State returns the record's current lifecycle state.
func (r *Record) State() State { return r.status.State }

// Status returns a copy of the record's status. Only meaningful for
// statistics and output once the record is finished.
func (r *Record) Status() Status { return r.status }

// Finished reports whether the record reached a terminal state.
func (r *Record) Finished() bool {
	return r.status.State == StateSucceeded || r.status.State == StateFailed
}

// Succeeded reports whether the record finished without an error. Calling it
// before the record is finished is a contract violation and panics.
func (r *Record) Succeeded() bool {
	if !r.Finished() {
		panic(fmt.Sprintf("request: Succeeded called on %s record %q", r.status.State, r.Config.Name))
	}
	return r.status.State == StateSucceeded
}

// Start marks the record as running and fires the observer's start event.
// It is a programmer error to start a record twice or after it finished.
func (r *Record) Start() {
	if r.status.State != StateUnstarted {
		panic(fmt.Sprintf("request: Start called on %s record %q", r.status.State, r.Config.Name))
	}
	r.status.State = StateRunning
	r.status.Started = time.Now()
	if r.Config.Observer != nil {
		r.Config.Observer.RequestStarted(r)
	}
}

// Succeed marks the record as finished with the fetched result and fires the
// observer's finish event. Legal only while running.
func (r *Record) Succeed(result string, statusCode int) {
	r.finish(StateSucceeded)
	r.status.Result = result
	r.status.StatusCode = statusCode
	if r.Config.Observer != nil {
		r.Config.Observer.RequestFinished(r)
	}
}

// Fail marks the record as finished with an error and fires the observer's
// finish event. Legal only while running; err must be non-nil because
// completion requires stating an outcome.
func (r *Record) Fail(err error) {
	if err == nil {
		panic(fmt.Sprintf("request: Fail called with nil error on record %q", r.Config.Name))
	}
	r.finish(StateFailed)
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	r.status.Error = msg
	if r.Config.Observer != nil {
		r.Config.Observer.RequestFinished(r)
	}
}

func (r *Record) finish(terminal State) {
	if r.status.State != StateRunning {
		panic(fmt.Sprintf("request: finish called on %s record %q", r.status.State, r.Config.Name))
	}
	r.status.State = terminal
	r.status.Finished = time.Now()
}

// Elapsed returns the time between start and finish, or zero if the record
// has not finished.
func (r *Record) Elapsed() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.status.Finished.Sub(r.status.Started)
}

// LogKey identifies the record in logs.
func (r *Record) LogKey() string {
	proxy := r.Config.ProxyURL
	if proxy == "" {
		proxy = "no proxy"
	}
	return fmt.Sprintf("%s (%s)", r.Config.Name, proxy)
}

// Placeholders exposes the record's fields for templated output, keyed the
// way --format templates reference them.
func (r *Record) Placeholders() map[string]string {
	s := r.status
	data := map[string]string{
		"name":          r.Config.Name,
		"url":           r.Config.URL,
		"proxy_url":     r.Config.ProxyURL,
		"log_key":       r.LogKey(),
		"status":        s.String(),
		"error":         s.Error,
		"result":        s.Result,
		"result_flat":   strings.Join(strings.Fields(s.Result), " "),
		"result_length": strconv.Itoa(len(s.Result)),
		"status_code":   "",
		"succeeded":     "false",
		"duration":      "",
	}
	if s.StatusCode != 0 {
		data["status_code"] = strconv.Itoa(s.StatusCode)
	}
	if r.Finished() {
		data["succeeded"] = strconv.FormatBool(s.State == StateSucceeded)
		data["duration"] = fmt.Sprintf("%.2fs", r.Elapsed().Seconds())
	}
	return data
}
