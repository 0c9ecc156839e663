package transform

import (
	"context"
	"strings"
	"time"

	"server/internal/infra"
	"server/internal/providers/homedesigns"
)

// PollState is the polling loop's view of a queued job.
type PollState string

const (
	StateSubmitted  PollState = "submitted"
	StateProcessing PollState = "processing"
	StateComplete   PollState = "complete"
	StateFailed     PollState = "failed"
	StateTimedOut   PollState = "timed_out"
)

// StatusQuerier is the slice of the provider client the poller needs.
type StatusQuerier interface {
	JobStatus(ctx context.Context, jobID string) (*homedesigns.StatusPayload, error)
}

// Poller drives a queued job toward a terminal state: one status query per
// tick, a fixed interval between ticks, and a hard attempt budget. Polls are
// strictly sequential; the provider's status endpoint is not guaranteed
// idempotent under concurrent queries for the same job.
type Poller struct {
	querier     StatusQuerier
	clock       Clock
	interval    time.Duration
	maxAttempts int
	logger      infra.Logger
}

// NewPoller builds a poller. Zero interval and attempts fall back to the
// provider's documented 5s x 60 budget.
func NewPoller(querier StatusQuerier, clock Clock, interval time.Duration, maxAttempts int, logger infra.Logger) *Poller {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	return &Poller{
		querier:     querier,
		clock:       clock,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Wait blocks until the job completes, fails, or the attempt budget runs
// out. It returns the last-seen status payload (possibly nil) together with
// the terminal state. The error return is non-nil only for context
// cancellation; provider-level failure is expressed through the state.
func (p *Poller) Wait(ctx context.Context, jobID string) (*homedesigns.StatusPayload, PollState, error) {
	var last *homedesigns.StatusPayload

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return last, StateProcessing, err
		}

		payload, err := p.querier.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return last, StateProcessing, ctx.Err()
			}
			// An unreadable status response keeps the job in processing and
			// consumes one attempt.
			p.logger.Warn().Err(err).
				Str("job_id", jobID).
				Int("attempt", attempt).
				Msg("transform: status query failed")
			continue
		}
		last = payload

		if isFailedStatus(payload.Status) {
			p.logger.Info().
				Str("job_id", jobID).
				Str("status", payload.Status).
				Int("attempt", attempt).
				Msg("transform: provider reported failure")
			return last, StateFailed, nil
		}
		if payload.InputImage != "" && len(payload.OutputImages) > 0 {
			p.logger.Info().
				Str("job_id", jobID).
				Int("outputs", len(payload.OutputImages)).
				Int("attempt", attempt).
				Msg("transform: job complete")
			return last, StateComplete, nil
		}
	}

	p.logger.Warn().
		Str("job_id", jobID).
		Str("last_status", lastStatus(last)).
		Int("attempts", p.maxAttempts).
		Msg("transform: polling budget exhausted")
	return last, StateTimedOut, nil
}

func isFailedStatus(status string) bool {
	status = strings.TrimSpace(status)
	return strings.EqualFold(status, "failed") || strings.EqualFold(status, "error")
}

func lastStatus(payload *homedesigns.StatusPayload) string {
	if payload == nil {
		return ""
	}
	return payload.Status
}
