package workflow

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
)

// WorkflowMetrics records counters for the scan workflow lifecycle.
type WorkflowMetrics interface {
	IncSessionsStarted(ctx context.Context)
	IncSessionsCompleted(ctx context.Context)
	IncSessionsFlagged(ctx context.Context)
	IncSessionsCancelled(ctx context.Context)
	IncSessionsResumed(ctx context.Context)
	IncPhaseRetries(ctx context.Context, phase scanning.Phase)
	IncDetectionsDropped(ctx context.Context)
}

type workflowMetrics struct {
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionsFlagged   metric.Int64Counter
	sessionsCancelled metric.Int64Counter
	sessionsResumed   metric.Int64Counter
	phaseRetries      metric.Int64Counter
	detectionsDropped metric.Int64Counter
}

// NewWorkflowMetrics creates the workflow metric instruments from the
// provided meter provider.
func NewWorkflowMetrics(mp metric.MeterProvider) (WorkflowMetrics, error) {
	meter := mp.Meter("scan_workflow")

	m := new(workflowMetrics)
	var err error

	if m.sessionsStarted, err = meter.Int64Counter("scan_sessions_started_total",
		metric.WithDescription("Total scan sessions created from accepted detections")); err != nil {
		return nil, err
	}
	if m.sessionsCompleted, err = meter.Int64Counter("scan_sessions_completed_total",
		metric.WithDescription("Total scan sessions finished through review approval")); err != nil {
		return nil, err
	}
	if m.sessionsFlagged, err = meter.Int64Counter("scan_sessions_flagged_total",
		metric.WithDescription("Total scan sessions flagged for manual review")); err != nil {
		return nil, err
	}
	if m.sessionsCancelled, err = meter.Int64Counter("scan_sessions_cancelled_total",
		metric.WithDescription("Total scan sessions discarded before completion")); err != nil {
		return nil, err
	}
	if m.sessionsResumed, err = meter.Int64Counter("scan_sessions_resumed_total",
		metric.WithDescription("Total scan sessions resumed from a persisted snapshot")); err != nil {
		return nil, err
	}
	if m.phaseRetries, err = meter.Int64Counter("scan_phase_retries_total",
		metric.WithDescription("Total user-initiated retries of a failed ingestion phase")); err != nil {
		return nil, err
	}
	if m.detectionsDropped, err = meter.Int64Counter("scan_detections_dropped_total",
		metric.WithDescription("Total accepted detections dropped because a session was active")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *workflowMetrics) IncSessionsStarted(ctx context.Context) { m.sessionsStarted.Add(ctx, 1) }
func (m *workflowMetrics) IncSessionsCompleted(ctx context.Context) {
	m.sessionsCompleted.Add(ctx, 1)
}
func (m *workflowMetrics) IncSessionsFlagged(ctx context.Context)   { m.sessionsFlagged.Add(ctx, 1) }
func (m *workflowMetrics) IncSessionsCancelled(ctx context.Context) { m.sessionsCancelled.Add(ctx, 1) }
func (m *workflowMetrics) IncSessionsResumed(ctx context.Context)   { m.sessionsResumed.Add(ctx, 1) }
func (m *workflowMetrics) IncPhaseRetries(ctx context.Context, phase scanning.Phase) {
	m.phaseRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", string(phase))))
}
func (m *workflowMetrics) IncDetectionsDropped(ctx context.Context) {
	m.detectionsDropped.Add(ctx, 1)
}

// NoopMetrics is a WorkflowMetrics that records nothing, for tests.
type NoopMetrics struct{}

func (NoopMetrics) IncSessionsStarted(context.Context)                 {}
func (NoopMetrics) IncSessionsCompleted(context.Context)               {}
func (NoopMetrics) IncSessionsFlagged(context.Context)                 {}
func (NoopMetrics) IncSessionsCancelled(context.Context)               {}
func (NoopMetrics) IncSessionsResumed(context.Context)                 {}
func (NoopMetrics) IncPhaseRetries(context.Context, scanning.Phase)    {}
func (NoopMetrics) IncDetectionsDropped(context.Context)               {}
