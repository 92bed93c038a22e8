// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/experiment-server/internal/health"
)

// DefaultHealthQueue is the durable queue health reports are published to.
const DefaultHealthQueue = "health.reported"

// HealthReportedEvent is published after every /health request.  It carries
// the full report so consumers never need to call back into the server.
type HealthReportedEvent struct {
	Host       string         `json:"host"`
	Status     health.Status  `json:"status"`
	Checks     []health.Check `json:"checks"`
	ReportedAt string         `json:"reported_at"`
}

// NewHealthReportedEvent stamps report with the reporting host and time.
func NewHealthReportedEvent(host string, report health.Report, at time.Time) HealthReportedEvent {
	return HealthReportedEvent{
		Host:       host,
		Status:     report.Status,
		Checks:     report.Checks,
		ReportedAt: at.UTC().Format(time.RFC3339),
	}
}
