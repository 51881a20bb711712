// Package permission wraps the platform camera-authorization bridge with a
// bounded wait. The platform answers permission prompts asynchronously and,
// on some devices, never at all; the gate converts an unanswered dialog into
// an undetermined status so the workflow can re-prompt instead of hanging.
package permission

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// Platform is the OS-specific authorization bridge. Prompt shows the system
// dialog and delivers the user's answer on the returned channel; the channel
// may never fire if the dialog is dismissed out-of-band.
type Platform interface {
	// CurrentStatus reports the authorization state without prompting.
	CurrentStatus(ctx context.Context) (scanning.PermissionStatus, error)

	// Prompt shows the system permission dialog.
	Prompt(ctx context.Context) (<-chan scanning.PermissionStatus, error)

	// OpenSettings opens the platform settings screen.
	OpenSettings(ctx context.Context) error
}

// Config holds the permission gate configuration.
type Config struct {
	// DialogTimeout bounds how long RequestPermission waits for the user to
	// answer the system dialog.
	DialogTimeout time.Duration
}

var _ scanning.CameraAuthorizer = (*Gate)(nil)

// Gate implements scanning.CameraAuthorizer on top of a Platform bridge.
type Gate struct {
	cfg      Config
	platform Platform
	logger   *logger.Logger
	tracer   trace.Tracer
}

// NewGate creates a permission gate.
func NewGate(cfg Config, platform Platform, logger *logger.Logger, tracer trace.Tracer) *Gate {
	return &Gate{
		cfg:      cfg,
		platform: platform,
		logger:   logger.With("component", "permission_gate"),
		tracer:   tracer,
	}
}

// RequestPermission resolves the camera authorization state, prompting only
// when the state is still undetermined. An unanswered dialog resolves to
// PermissionUndetermined with no error; the caller may request again.
func (g *Gate) RequestPermission(ctx context.Context) (scanning.PermissionStatus, error) {
	ctx, span := g.tracer.Start(ctx, "permission_gate.request")
	defer span.End()

	current, err := g.platform.CurrentStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.PermissionUndetermined, fmt.Errorf("reading authorization status: %w", err)
	}
	if current != scanning.PermissionUndetermined {
		span.SetAttributes(attribute.String("status", string(current)))
		span.SetStatus(codes.Ok, "already resolved")
		return current, nil
	}

	answer, err := g.platform.Prompt(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.PermissionUndetermined, fmt.Errorf("showing permission dialog: %w", err)
	}

	timer := time.NewTimer(g.cfg.DialogTimeout)
	defer timer.Stop()

	select {
	case status := <-answer:
		span.SetAttributes(attribute.String("status", string(status)))
		span.SetStatus(codes.Ok, "dialog answered")
		return status, nil
	case <-timer.C:
		g.logger.Warn(ctx, "permission dialog unanswered", "timeout", g.cfg.DialogTimeout)
		span.AddEvent("dialog_timeout")
		span.SetStatus(codes.Ok, "dialog unanswered")
		return scanning.PermissionUndetermined, nil
	case <-ctx.Done():
		span.SetStatus(codes.Error, ctx.Err().Error())
		return scanning.PermissionUndetermined, ctx.Err()
	}
}

// OpenSystemSettings opens the platform settings screen.
func (g *Gate) OpenSystemSettings(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "permission_gate.open_settings")
	defer span.End()

	if err := g.platform.OpenSettings(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("opening system settings: %w", err)
	}
	span.SetStatus(codes.Ok, "settings opened")
	return nil
}
