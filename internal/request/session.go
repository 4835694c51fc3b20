package request

import "time"

// Session is the single object handed to a backend strategy: the batch of
// records to process plus the knobs the strategy needs to process them.
//
// The record list is fixed after construction. Each record's status may be
// mutated independently by the worker assigned to it; no two workers may
// process the same record.
type Session struct {
	Timeout time.Duration
	Workers int
	Records []*Record
}

// NewSession builds a session, clamping negative timeout and worker values
// to zero so strategies only ever see the documented policy range
// (0 = unbounded workers, no timeout).
func NewSession(records []*Record, timeout time.Duration, workers int) *Session {
	if timeout < 0 {
		timeout = 0
	}
	if workers < 0 {
		workers = 0
	}
	return &Session{
		Timeout: timeout,
		Workers: workers,
		Records: records,
	}
}

// Unfinished counts records that have not reached a terminal state.
func (s *Session) Unfinished() int {
	count := 0
	for _, rec := range s.Records {
		if !rec.Finished() {
			count++
		}
	}
	return count
}
