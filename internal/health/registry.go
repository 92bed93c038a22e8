package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

const (
	failureKey   = "procedure-execution-failure"
	causeKey     = "cause"
	timeoutCause = "Timeout"
)

// Registry holds the probes run for every report.  It is not modified after
// NewRegistry returns, so a single instance is shared by all requests.
type Registry struct {
	probes []Probe
}

// NewRegistry validates probes and fixes their order.  Names must be unique
// and non-empty, every probe needs a check function, and a zero timeout
// becomes DefaultTimeout.
func NewRegistry(probes ...Probe) (*Registry, error) {
	seen := make(map[string]bool, len(probes))
	out := make([]Probe, 0, len(probes))
	for _, p := range probes {
		if p.Name == "" {
			return nil, errors.New("health: probe name must not be empty")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("health: duplicate probe %q", p.Name)
		}
		if p.Check == nil {
			return nil, fmt.Errorf("health: probe %q has no check function", p.Name)
		}
		if p.Timeout < 0 {
			return nil, fmt.Errorf("health: probe %q has negative timeout", p.Name)
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultTimeout
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return &Registry{probes: out}, nil
}

// Names lists the registered probes in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.probes))
	for i, p := range r.probes {
		names[i] = p.Name
	}
	return names
}

// Run invokes every probe concurrently and aggregates the outcomes.  Checks
// keep registration order.  The report is UP only if every probe is UP.
func (r *Registry) Run(ctx context.Context) Report {
	checks := make([]Check, len(r.probes))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.probes {
		i, p := i, p
		g.Go(func() error {
			checks[i] = invoke(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	status := StatusUp
	for _, c := range checks {
		if c.Status != StatusUp {
			status = StatusDown
			break
		}
	}
	return Report{Status: status, Checks: checks, Outcome: status}
}

type outcome struct {
	res Result
	err error
}

// invoke runs one probe under its timeout.  The check runs on its own
// goroutine so a probe that ignores ctx still cannot hold up the report.
func invoke(ctx context.Context, p Probe) Check {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", v)}
			}
		}()
		res, err := p.Check(ctx)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			slog.Debug("health probe failed", "probe", p.Name, "error", o.err)
			return failure(p.Name, o.err.Error())
		}
		if !o.res.OK {
			slog.Debug("health probe reported KO", "probe", p.Name)
			return Check{ID: p.Name, Status: StatusDown, Data: o.res.Data}
		}
		return Check{ID: p.Name, Status: StatusUp, Data: o.res.Data}
	case <-ctx.Done():
		slog.Debug("health probe timed out", "probe", p.Name, "timeout", p.Timeout)
		return failure(p.Name, timeoutCause)
	}
}

func failure(name, cause string) Check {
	return Check{
		ID:     name,
		Status: StatusDown,
		Data:   map[string]any{failureKey: true, causeKey: cause},
	}
}
