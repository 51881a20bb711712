// Package detection turns the camera's bursty per-frame detection callback
// into a debounced stream of accepted codes. Autofocus jitter makes a single
// physical presentation produce many raw frames; the cooldown guarantees at
// most one accepted event per presentation.
package detection

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// stabilizationDelay is the fixed dead-time after a raw detection during
// which further detections are ignored. It gives camera autofocus time to
// settle before the frame is accepted as authoritative. Fixed on purpose,
// not configuration.
const stabilizationDelay = 1500 * time.Millisecond

// RawCode is a single code found in one camera frame.
type RawCode struct {
	Format scanning.CodeFormat
	Value  string
}

// DetectedCode is an accepted, debounced detection delivered to the consumer.
type DetectedCode struct {
	Format scanning.CodeFormat
	Value  string
}

// Source consumes raw per-frame detections and emits at most one accepted
// code per cooldown window. Accepted codes go into a single-slot queue;
// back-pressure is handled by dropping frames while the cooldown is active,
// never by queuing them.
type Source struct {
	delay time.Duration

	// cooling guards the cooldown window. Only the Offer goroutine that wins
	// the swap runs the stabilization wait and emits.
	cooling chan struct{}
	out     chan DetectedCode

	logger *logger.Logger
	tracer trace.Tracer
}

// NewSource creates a detection source with the fixed stabilization delay.
func NewSource(logger *logger.Logger, tracer trace.Tracer) *Source {
	return newSource(stabilizationDelay, logger, tracer)
}

func newSource(delay time.Duration, logger *logger.Logger, tracer trace.Tracer) *Source {
	s := &Source{
		delay:   delay,
		cooling: make(chan struct{}, 1),
		out:     make(chan DetectedCode, 1),
		logger:  logger.With("component", "detection_source"),
		tracer:  tracer,
	}
	return s
}

// Events returns the stream of accepted detections.
func (s *Source) Events() <-chan DetectedCode { return s.out }

// Offer submits the codes found in one camera frame. Frames arriving during
// an active cooldown, and frames with no codes, are dropped silently - these
// are detection-transient by definition and never surface as errors.
func (s *Source) Offer(ctx context.Context, codes []RawCode) {
	if len(codes) == 0 {
		return
	}

	select {
	case s.cooling <- struct{}{}:
	default:
		// Cooldown active: drop the frame.
		return
	}

	first := codes[0]

	go func() {
		_, span := s.tracer.Start(ctx, "detection_source.accept")
		defer span.End()

		// Let autofocus settle before treating the frame as authoritative.
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			<-s.cooling
			return
		}

		<-s.cooling

		detected := DetectedCode{Format: first.Format, Value: first.Value}
		select {
		case s.out <- detected:
			s.logger.Debug(ctx, "code accepted", "format", first.Format, "value", first.Value)
		default:
			// Consumer busy with an active session; the detection is dropped,
			// a new one is ignored while a session is in flight anyway.
		}
	}()
}
