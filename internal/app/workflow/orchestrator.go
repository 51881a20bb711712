// Package workflow coordinates the scan lifecycle: permission acquisition,
// debounced code detection, storage location selection, the two-phase remote
// ingestion protocol, expiration capture, review, and finalization.
//
// All session mutation happens on a single event-loop goroutine. Collaborator
// work (network calls, OCR, permission dialogs) runs in short-lived goroutines
// whose outcomes are normalized into result events and fed back into the loop,
// so the state machine itself never blocks and never races.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/events"
	"github.com/pantryscan/pantryscan/internal/domain/inventory"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/internal/infra/detection"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// ErrOrchestratorStopped is returned when a command is submitted after the
// event loop has shut down.
var ErrOrchestratorStopped = errors.New("orchestrator stopped")

// DetectionSource is the debounced stream of accepted code detections the
// loop consumes.
type DetectionSource interface {
	Events() <-chan detection.DetectedCode
}

// Orchestrator drives the scan workflow state machine.
type Orchestrator struct {
	deviceID string

	detector      DetectionSource
	authorizer    scanning.CameraAuthorizer
	ingestion     scanning.IngestionService
	capturer      scanning.ExpirationCapturer
	locations     inventory.LocationRepository
	snapshots     scanning.SnapshotStore
	publisher     events.DomainEventPublisher
	staleAfter    time.Duration
	timeProvider  scanning.TimeProvider

	// loopCh carries user commands and normalized collaborator results into
	// the event loop. Everything on it is handled on one goroutine.
	loopCh chan any
	done   chan struct{}

	// Mutable machine state. Owned by the loop goroutine; stateSnapshot is
	// the only cross-goroutine view.
	permission     scanning.PermissionStatus
	session        *scanning.Session
	offerLocations []inventory.StorageLocation

	stateCh chan State

	logger  *logger.Logger
	metrics WorkflowMetrics
	tracer  trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeProvider overrides the clock used for snapshot staleness checks.
func WithTimeProvider(tp scanning.TimeProvider) Option {
	return func(o *Orchestrator) { o.timeProvider = tp }
}

// NewOrchestrator assembles the workflow around its collaborators.
func NewOrchestrator(
	deviceID string,
	detector DetectionSource,
	authorizer scanning.CameraAuthorizer,
	ingestion scanning.IngestionService,
	capturer scanning.ExpirationCapturer,
	locations inventory.LocationRepository,
	snapshots scanning.SnapshotStore,
	publisher events.DomainEventPublisher,
	staleAfter time.Duration,
	logger *logger.Logger,
	metrics WorkflowMetrics,
	tracer trace.Tracer,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		deviceID:     deviceID,
		detector:     detector,
		authorizer:   authorizer,
		ingestion:    ingestion,
		capturer:     capturer,
		locations:    locations,
		snapshots:    snapshots,
		publisher:    publisher,
		staleAfter:   staleAfter,
		timeProvider: scanning.RealTimeProvider(),
		loopCh:       make(chan any, 64),
		done:         make(chan struct{}),
		permission:   scanning.PermissionUndetermined,
		stateCh:      make(chan State, 1),
		logger:       logger.With("component", "workflow_orchestrator"),
		metrics:      metrics,
		tracer:       tracer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StateChanges returns a single-slot channel carrying the latest read-model
// snapshot after each handled event. Slow consumers only ever see the newest
// state.
func (o *Orchestrator) StateChanges() <-chan State { return o.stateCh }

// RequestPermission prompts for camera authorization.
func (o *Orchestrator) RequestPermission(ctx context.Context) error {
	return o.enqueue(ctx, requestPermissionCmd{})
}

// OpenSettings opens the platform settings screen after a denial.
func (o *Orchestrator) OpenSettings(ctx context.Context) error {
	return o.enqueue(ctx, openSettingsCmd{})
}

// SelectLocation chooses the storage location for the active session.
func (o *Orchestrator) SelectLocation(ctx context.Context, locationID string) error {
	return o.enqueue(ctx, selectLocationCmd{locationID: locationID})
}

// SubmitManualCode enters a PLU after the backend rejected the barcode.
func (o *Orchestrator) SubmitManualCode(ctx context.Context, code string) error {
	return o.enqueue(ctx, submitManualCodeCmd{code: code})
}

// CaptureExpiration submits a package photo for expiration recognition.
func (o *Orchestrator) CaptureExpiration(ctx context.Context, image []byte) error {
	return o.enqueue(ctx, captureExpirationCmd{image: image})
}

// SkipExpiration resolves the expiration capture with no date.
func (o *Orchestrator) SkipExpiration(ctx context.Context) error {
	return o.enqueue(ctx, skipExpirationCmd{})
}

// Approve accepts the assembled record, with optional corrections.
func (o *Orchestrator) Approve(ctx context.Context, corrections scanning.ReviewCorrections) error {
	return o.enqueue(ctx, approveCmd{corrections: corrections})
}

// Flag marks the record for manual review instead of approving it.
func (o *Orchestrator) Flag(ctx context.Context, reason string) error {
	return o.enqueue(ctx, flagCmd{reason: reason})
}

// Retry re-attempts the failed ingestion phase.
func (o *Orchestrator) Retry(ctx context.Context) error {
	return o.enqueue(ctx, retryCmd{})
}

// SkipAfterFailure resolves a failed expiration submission with no date.
func (o *Orchestrator) SkipAfterFailure(ctx context.Context) error {
	return o.enqueue(ctx, skipAfterFailureCmd{})
}

// Cancel discards the active session.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	return o.enqueue(ctx, cancelCmd{})
}

func (o *Orchestrator) enqueue(ctx context.Context, evt any) error {
	select {
	case o.loopCh <- evt:
		return nil
	case <-o.done:
		return ErrOrchestratorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the event loop and blocks until ctx is cancelled. It first
// attempts to resume a persisted session; a missing, stale, or corrupt
// snapshot starts from idle without surfacing an error.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)

	o.resume(ctx)
	o.publishState()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info(ctx, "event loop stopping", "reason", ctx.Err())
			return ctx.Err()
		case detected := <-o.detector.Events():
			o.handle(ctx, codeDetected{format: detected.Format, value: detected.Value})
		case evt := <-o.loopCh:
			o.handle(ctx, evt)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, evt any) {
	ctx, span := o.tracer.Start(ctx, "workflow.handle_event",
		trace.WithAttributes(attribute.String("event_type", fmt.Sprintf("%T", evt))))
	defer span.End()

	switch e := evt.(type) {
	case requestPermissionCmd:
		o.handleRequestPermission(ctx)
	case openSettingsCmd:
		o.handleOpenSettings(ctx)
	case permissionResolved:
		o.handlePermissionResolved(ctx, e)
	case codeDetected:
		o.handleCodeDetected(ctx, e)
	case locationsLoaded:
		o.handleLocationsLoaded(ctx, e)
	case selectLocationCmd:
		o.handleSelectLocation(ctx, e)
	case phase1Resolved:
		o.handlePhase1Resolved(ctx, e)
	case submitManualCodeCmd:
		o.handleSubmitManualCode(ctx, e)
	case captureExpirationCmd:
		o.handleCaptureExpiration(ctx, e)
	case captureResolved:
		o.handleCaptureResolved(ctx, e)
	case skipExpirationCmd:
		o.handleSkipExpiration(ctx)
	case phase2Resolved:
		o.handlePhase2Resolved(ctx, e)
	case approveCmd:
		o.handleApprove(ctx, e)
	case flagCmd:
		o.handleFlag(ctx, e)
	case retryCmd:
		o.handleRetry(ctx)
	case skipAfterFailureCmd:
		o.handleSkipAfterFailure(ctx)
	case cancelCmd:
		o.handleCancel(ctx)
	default:
		o.logger.Warn(ctx, "unhandled event", "event_type", fmt.Sprintf("%T", evt))
	}

	o.publishState()
}

// resume reloads a persisted session on cold start. Nothing here is a
// user-visible error: a snapshot that cannot be resumed is cleared and the
// machine starts idle.
func (o *Orchestrator) resume(ctx context.Context) {
	snapshot, err := o.snapshots.Load(ctx, o.deviceID)
	if err != nil {
		if errors.Is(err, scanning.ErrNoSnapshot) {
			return
		}
		o.logger.Warn(ctx, "discarding unreadable snapshot",
			"kind", scanning.ErrorKindSnapshotCorrupt, "error", err)
		o.clearSnapshot(ctx)
		return
	}

	now := o.timeProvider.Now()
	if !snapshot.IsResumable(now, o.staleAfter) {
		o.logger.Info(ctx, "discarding stale snapshot",
			"session_id", snapshot.SessionID(), "checkpoint_at", snapshot.CheckpointAt())
		o.clearSnapshot(ctx)
		return
	}

	session, err := snapshot.RestoreSession()
	if err != nil {
		o.logger.Warn(ctx, "discarding unrestorable snapshot",
			"kind", scanning.ErrorKindSnapshotCorrupt, "error", err)
		o.clearSnapshot(ctx)
		return
	}

	o.session = session
	o.metrics.IncSessionsResumed(ctx)
	o.publishDomainEvent(ctx, scanning.NewSessionResumedEvent(session.SessionID(), session.Step()))
	o.logger.Info(ctx, "session resumed from snapshot",
		"session_id", session.SessionID(), "step", session.Step())

	switch session.Step() {
	case scanning.StepChoosingLocation:
		o.loadLocations(ctx, session.SessionID())
	case scanning.StepSubmittingBarcode:
		// The submission was interrupted mid-flight; relaunch it.
		o.launchPhase1(ctx, session)
	}
}

func (o *Orchestrator) handleRequestPermission(ctx context.Context) {
	if o.permission == scanning.PermissionGranted {
		return
	}
	go func() {
		status, err := o.authorizer.RequestPermission(ctx)
		o.feed(permissionResolved{status: status, err: err})
	}()
}

func (o *Orchestrator) handleOpenSettings(ctx context.Context) {
	if err := o.authorizer.OpenSystemSettings(ctx); err != nil {
		o.logger.Error(ctx, "failed to open system settings", "error", err)
	}
}

func (o *Orchestrator) handlePermissionResolved(ctx context.Context, e permissionResolved) {
	if e.err != nil {
		o.logger.Error(ctx, "permission request failed", "error", e.err)
		return
	}
	o.permission = e.status
	o.logger.Info(ctx, "camera permission resolved", "status", e.status)
}

func (o *Orchestrator) handleCodeDetected(ctx context.Context, e codeDetected) {
	if o.permission != scanning.PermissionGranted {
		o.logger.Debug(ctx, "dropping detection without camera permission",
			"kind", scanning.ErrorKindDetectionTransient)
		return
	}
	if o.session != nil {
		// One session at a time; detections during an active session are
		// detection-transient and dropped silently.
		o.metrics.IncDetectionsDropped(ctx)
		return
	}

	session := scanning.NewSession(e.value, e.format)
	o.session = session
	o.metrics.IncSessionsStarted(ctx)
	o.checkpoint(ctx, session)
	o.publishDomainEvent(ctx, scanning.NewSessionStartedEvent(session.SessionID(), e.value, e.format))
	o.logger.Info(ctx, "session started",
		"session_id", session.SessionID(), "barcode", e.value, "format", e.format)

	o.loadLocations(ctx, session.SessionID())
}

// loadLocations fetches the storage locations fresh for this session rather
// than serving a cached list.
func (o *Orchestrator) loadLocations(ctx context.Context, sessionID uuid.UUID) {
	go func() {
		locs, err := o.locations.List(ctx)
		o.feed(locationsLoaded{sessionID: sessionID, locations: locs, err: err})
	}()
}

func (o *Orchestrator) handleLocationsLoaded(ctx context.Context, e locationsLoaded) {
	if o.session == nil || o.session.SessionID() != e.sessionID {
		return
	}
	if e.err != nil {
		o.logger.Error(ctx, "failed to load storage locations", "error", e.err)
		return
	}
	o.offerLocations = e.locations
}

func (o *Orchestrator) handleSelectLocation(ctx context.Context, e selectLocationCmd) {
	session := o.session
	if session == nil {
		return
	}
	if _, err := o.locations.GetByID(ctx, e.locationID); err != nil {
		o.logger.Error(ctx, "rejecting unknown storage location",
			"location_id", e.locationID, "error", err)
		return
	}
	if err := session.SelectLocation(e.locationID); err != nil {
		o.logger.Warn(ctx, "location selection rejected", "error", err)
		return
	}
	o.offerLocations = nil
	o.checkpoint(ctx, session)
	o.launchPhase1(ctx, session)
}

func (o *Orchestrator) launchPhase1(ctx context.Context, session *scanning.Session) {
	id := session.SessionID()
	fromStep := session.Step()
	cmd := scanning.SubmitBarcodeCommand{
		Barcode:           session.SubmissionCode(),
		StorageLocationID: session.StorageLocationID(),
	}
	go func() {
		result, err := o.ingestion.SubmitBarcode(ctx, cmd)
		o.feed(phase1Resolved{sessionID: id, fromStep: fromStep, result: result, err: err})
	}()
}

func (o *Orchestrator) handlePhase1Resolved(ctx context.Context, e phase1Resolved) {
	session := o.currentFor(ctx, e.sessionID, e.fromStep)
	if session == nil {
		return
	}

	if e.err != nil {
		o.logger.Error(ctx, "barcode submission failed",
			"session_id", session.SessionID(), "kind", scanning.ErrorKindNetworkTransient, "error", e.err)
		if err := session.FailPhase(scanning.ErrorKindNetworkTransient); err != nil {
			o.logger.Error(ctx, "failed to record phase failure", "error", err)
		}
		return
	}

	if e.result.NotFound {
		if err := session.MarkProductNotFound(); err != nil {
			o.logger.Error(ctx, "failed to record product-not-found", "error", err)
		}
		return
	}

	if err := session.AttachPendingItem(e.result.ItemID, e.result.Product, e.result.SuggestedCategory, e.result.ConfidenceScore); err != nil {
		o.logger.Error(ctx, "failed to attach pending item", "error", err)
		return
	}
	o.checkpoint(ctx, session)

	productName := ""
	if e.result.Product != nil {
		productName = e.result.Product.Name
	}
	o.publishDomainEvent(ctx, scanning.NewItemPendingCreatedEvent(session.SessionID(), e.result.ItemID, productName))
	o.logger.Info(ctx, "pending item created",
		"session_id", session.SessionID(), "item_id", e.result.ItemID, "product", productName)
}

func (o *Orchestrator) handleSubmitManualCode(ctx context.Context, e submitManualCodeCmd) {
	session := o.session
	if session == nil {
		return
	}
	if err := session.SubmitManualCode(e.code); err != nil {
		o.logger.Warn(ctx, "manual code rejected", "error", err)
		return
	}
	o.checkpoint(ctx, session)
	o.launchPhase1(ctx, session)
}

func (o *Orchestrator) handleCaptureExpiration(ctx context.Context, e captureExpirationCmd) {
	session := o.session
	if session == nil || session.Step() != scanning.StepCapturingExpiration {
		return
	}
	id := session.SessionID()
	fromStep := session.Step()
	go func() {
		capture, err := o.capturer.Capture(ctx, e.image)
		o.feed(captureResolved{sessionID: id, fromStep: fromStep, capture: capture, err: err})
	}()
}

func (o *Orchestrator) handleCaptureResolved(ctx context.Context, e captureResolved) {
	session := o.currentFor(ctx, e.sessionID, e.fromStep)
	if session == nil {
		return
	}

	if e.err != nil {
		// Recognition failed outright; stay in capture so the user can try
		// again or skip.
		o.logger.Error(ctx, "expiration capture failed",
			"session_id", session.SessionID(), "error", e.err)
		return
	}
	if e.capture.Date == nil {
		o.logger.Info(ctx, "no usable date recognized",
			"session_id", session.SessionID(), "kind", scanning.ErrorKindNoUsableDate,
			"ocr_text", e.capture.OCRText)
		return
	}

	exp := scanning.NewExpiration(e.capture.Date, e.capture.OCRText, e.capture.Confidence, e.capture.ProcessingTimeMs)
	if err := session.CaptureExpiration(exp); err != nil {
		o.logger.Error(ctx, "failed to record capture", "error", err)
		return
	}
	o.launchPhase2(ctx, session)
}

func (o *Orchestrator) handleSkipExpiration(ctx context.Context) {
	session := o.session
	if session == nil {
		return
	}
	if err := session.SkipExpiration(); err != nil {
		o.logger.Warn(ctx, "skip rejected", "error", err)
		return
	}
	o.launchPhase2(ctx, session)
}

func (o *Orchestrator) launchPhase2(ctx context.Context, session *scanning.Session) {
	id := session.SessionID()
	fromStep := session.Step()
	exp := session.Expiration()

	cmd := scanning.SubmitExpirationCommand{ScanID: session.PendingItemID()}
	if exp != nil {
		cmd.OCRText = exp.OCRText()
		cmd.ExtractedDate = exp.Date()
		cmd.Confidence = exp.Confidence()
		cmd.ProcessingTimeMs = exp.ProcessingTimeMs()
	}

	go func() {
		result, err := o.ingestion.SubmitExpiration(ctx, cmd)
		o.feed(phase2Resolved{sessionID: id, fromStep: fromStep, result: result, err: err})
	}()
}

func (o *Orchestrator) handlePhase2Resolved(ctx context.Context, e phase2Resolved) {
	session := o.currentFor(ctx, e.sessionID, e.fromStep)
	if session == nil {
		return
	}

	if e.err != nil {
		o.logger.Error(ctx, "expiration submission failed",
			"session_id", session.SessionID(), "kind", scanning.ErrorKindNetworkTransient, "error", e.err)
		if err := session.FailPhase(scanning.ErrorKindNetworkTransient); err != nil {
			o.logger.Error(ctx, "failed to record phase failure", "error", err)
		}
		return
	}

	if err := session.MarkActivated(); err != nil {
		o.logger.Error(ctx, "failed to mark item activated", "error", err)
		return
	}
	o.checkpoint(ctx, session)

	hasDate := session.Expiration() != nil && session.Expiration().Date() != nil
	o.publishDomainEvent(ctx, scanning.NewItemActivatedEvent(session.SessionID(), session.PendingItemID(), hasDate))
	o.logger.Info(ctx, "item activated",
		"session_id", session.SessionID(), "item_id", session.PendingItemID(), "has_date", hasDate)
}

func (o *Orchestrator) handleApprove(ctx context.Context, e approveCmd) {
	session := o.session
	if session == nil {
		return
	}
	if err := session.Approve(e.corrections); err != nil {
		o.logger.Warn(ctx, "approval rejected", "error", err)
		return
	}
	if err := session.Finalize(); err != nil {
		o.logger.Error(ctx, "failed to finalize session", "error", err)
		return
	}
	o.metrics.IncSessionsCompleted(ctx)
	o.publishDomainEvent(ctx, scanning.NewSessionCompletedEvent(session.SessionID(), session.PendingItemID()))
	o.logger.Info(ctx, "session completed",
		"session_id", session.SessionID(), "item_id", session.PendingItemID())
	o.finish(ctx)
}

func (o *Orchestrator) handleFlag(ctx context.Context, e flagCmd) {
	session := o.session
	if session == nil {
		return
	}
	if err := session.Flag(e.reason); err != nil {
		o.logger.Warn(ctx, "flag rejected", "error", err)
		return
	}

	// Fire-and-forget: a flag failure is logged and absorbed, never surfaced,
	// and never rolls back the activated record.
	itemID := session.PendingItemID()
	go func() {
		if err := o.ingestion.FlagItem(ctx, itemID, e.reason); err != nil {
			o.logger.Error(ctx, "flag request failed", "item_id", itemID, "error", err)
		}
	}()

	if err := session.CompleteFlagging(); err != nil {
		o.logger.Error(ctx, "failed to complete flagging", "error", err)
		return
	}
	o.metrics.IncSessionsFlagged(ctx)
	o.publishDomainEvent(ctx, scanning.NewSessionFlaggedEvent(session.SessionID(), itemID, e.reason))
	o.logger.Info(ctx, "session flagged",
		"session_id", session.SessionID(), "item_id", itemID, "reason", e.reason)
	o.finish(ctx)
}

func (o *Orchestrator) handleRetry(ctx context.Context) {
	session := o.session
	if session == nil {
		return
	}
	failedFrom := session.FailedFrom()
	if err := session.Retry(); err != nil {
		o.logger.Warn(ctx, "retry rejected", "error", err)
		return
	}

	switch failedFrom {
	case scanning.StepSubmittingBarcode:
		o.metrics.IncPhaseRetries(ctx, scanning.PhaseBarcode)
		o.checkpoint(ctx, session)
		o.launchPhase1(ctx, session)
	case scanning.StepSubmittingExpiration:
		o.metrics.IncPhaseRetries(ctx, scanning.PhaseExpiration)
		o.checkpoint(ctx, session)
		// Back in capture; the user produces fresh input.
	}
}

func (o *Orchestrator) handleSkipAfterFailure(ctx context.Context) {
	session := o.session
	if session == nil {
		return
	}
	if err := session.SkipAfterFailure(); err != nil {
		o.logger.Warn(ctx, "skip after failure rejected", "error", err)
		return
	}
	o.launchPhase2(ctx, session)
}

func (o *Orchestrator) handleCancel(ctx context.Context) {
	session := o.session
	if session == nil {
		return
	}
	step := session.Step()
	if err := session.Cancel(); err != nil {
		o.logger.Warn(ctx, "cancel rejected", "error", err)
		return
	}
	o.metrics.IncSessionsCancelled(ctx)
	o.publishDomainEvent(ctx, scanning.NewSessionCancelledEvent(session.SessionID(), step))
	o.logger.Info(ctx, "session cancelled",
		"session_id", session.SessionID(), "from_step", step)
	o.finish(ctx)
}

// currentFor returns the active session iff it matches the id and step a
// result was launched from. A late result for a cancelled, replaced, or
// already-progressed session is dropped here.
func (o *Orchestrator) currentFor(ctx context.Context, sessionID uuid.UUID, fromStep scanning.SessionStep) *scanning.Session {
	session := o.session
	if session == nil || session.SessionID() != sessionID {
		o.logger.Debug(ctx, "dropping result for departed session", "session_id", sessionID)
		return nil
	}
	if session.Step() != fromStep {
		o.logger.Debug(ctx, "dropping stale result",
			"session_id", sessionID, "launched_from", fromStep, "current", session.Step())
		return nil
	}
	return session
}

// finish clears the active session and its snapshot after a terminal step.
func (o *Orchestrator) finish(ctx context.Context) {
	o.session = nil
	o.offerLocations = nil
	o.clearSnapshot(ctx)
}

// checkpoint persists the resumable projection of the session. Failures are
// logged and absorbed; persistence trouble must not stall the workflow.
func (o *Orchestrator) checkpoint(ctx context.Context, session *scanning.Session) {
	snapshot := scanning.NewSnapshot(session, o.timeProvider.Now())
	if err := o.snapshots.Save(ctx, o.deviceID, snapshot); err != nil {
		o.logger.Error(ctx, "failed to persist snapshot",
			"session_id", session.SessionID(), "step", session.Step(), "error", err)
	}
}

func (o *Orchestrator) clearSnapshot(ctx context.Context) {
	if err := o.snapshots.Clear(ctx, o.deviceID); err != nil {
		o.logger.Error(ctx, "failed to clear snapshot", "error", err)
	}
}

func (o *Orchestrator) publishDomainEvent(ctx context.Context, payload interface {
	EventType() events.EventType
	OccurredAt() time.Time
}) {
	evt := events.DomainEvent{
		Type:      payload.EventType(),
		Timestamp: payload.OccurredAt(),
		Payload:   payload,
	}
	key := ""
	if o.session != nil {
		key = o.session.SessionID().String()
	}
	if err := o.publisher.PublishDomainEvent(ctx, evt, events.WithKey(key)); err != nil {
		o.logger.Error(ctx, "failed to publish domain event", "event_type", evt.Type, "error", err)
	}
}

// feed delivers a collaborator result into the loop, dropping it if the loop
// already stopped.
func (o *Orchestrator) feed(evt any) {
	select {
	case o.loopCh <- evt:
	case <-o.done:
	}
}

// publishState swaps the latest read-model snapshot into the single-slot
// state channel.
func (o *Orchestrator) publishState() {
	state := State{Permission: o.permission}
	if s := o.session; s != nil {
		state.SessionID = s.SessionID()
		state.Step = s.Step()
		state.Barcode = s.Barcode()
		state.CodeFormat = s.CodeFormat()
		state.StorageLocationID = s.StorageLocationID()
		state.PendingItemID = s.PendingItemID()
		state.Product = s.Product()
		state.SuggestedCategory = s.SuggestedCategory()
		state.ConfidenceScore = s.ConfidenceScore()
		state.LastError = s.LastError()
		state.Locations = o.offerLocations
		if exp := s.Expiration(); exp != nil {
			state.ExpirationDate = exp.Date()
		}
	}

	select {
	case o.stateCh <- state:
	default:
		select {
		case <-o.stateCh:
		default:
		}
		select {
		case o.stateCh <- state:
		default:
		}
	}
}
