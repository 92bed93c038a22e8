// Package health runs named, timeout-bounded probes and aggregates their
// outcomes into a single UP/DOWN report.
package health

import (
	"context"
	"time"
)

// DefaultTimeout applies to probes registered without a timeout.
const DefaultTimeout = time.Second

// Status is the reported state of a probe or of the whole report.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Result is what a probe's check function hands back: pass/fail plus an
// arbitrary metadata payload.
type Result struct {
	OK   bool
	Data map[string]any
}

// OK builds a passing result.
func OK(data map[string]any) Result {
	return Result{OK: true, Data: data}
}

// KO builds a failing result.
func KO(data map[string]any) Result {
	return Result{OK: false, Data: data}
}

// CheckFunc performs one check.  A returned error marks the probe DOWN with
// the error as its cause.  Implementations should honour ctx, which carries
// the probe timeout.
type CheckFunc func(ctx context.Context) (Result, error)

// Probe is a named check registered once at startup.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   CheckFunc
}

// Check is one entry of a Report.
type Check struct {
	ID     string         `json:"id"`
	Status Status         `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
}

// Report is built fresh for every health request.  Outcome mirrors Status
// for clients that read either field.
type Report struct {
	Status  Status  `json:"status"`
	Checks  []Check `json:"checks"`
	Outcome Status  `json:"outcome"`
}

// Up reports whether every check passed.
func (r Report) Up() bool {
	return r.Status == StatusUp
}
