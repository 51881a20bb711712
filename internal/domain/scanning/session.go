package scanning

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
)

// Phase identifies one of the two remote ingestion phases.
type Phase string

const (
	// PhaseBarcode is the submission of barcode + storage location (phase 1).
	PhaseBarcode Phase = "BARCODE"

	// PhaseExpiration is the submission of expiration data against a pending
	// record (phase 2).
	PhaseExpiration Phase = "EXPIRATION"
)

// ReviewCorrections carries optional manual field corrections supplied with
// an approval. Nil fields leave the captured value untouched.
type ReviewCorrections struct {
	Name           *string
	Category       *string
	ExpirationDate *time.Time
}

// Session tracks one in-flight scan attempt from accepted detection through
// finalization. All mutation goes through orchestrator-driven transition
// methods; each validates the step change before applying it, so the step is
// always consistent with the data the session carries.
type Session struct {
	id uuid.UUID

	barcode    string
	codeFormat CodeFormat

	// manualCode is a PLU entered after the backend rejected the barcode.
	// The original barcode stays immutable; the manual code is what gets
	// resubmitted through phase 1.
	manualCode string

	storageLocationID string

	pendingItemID     string
	product           *inventory.ProductSnapshot
	suggestedCategory string
	confidenceScore   float64

	expiration *Expiration

	step       SessionStep
	failedFrom SessionStep
	lastError  *ErrorKind

	barcodeRetries    int
	expirationRetries int

	flagReason string

	timeline *Timeline
}

// SessionOption defines functional options for configuring a new Session.
type SessionOption func(*Session)

// WithTimeProvider sets a custom time provider for the session.
func WithTimeProvider(tp TimeProvider) SessionOption {
	return func(s *Session) { s.timeline = NewTimeline(tp) }
}

// NewSession creates a Session for an accepted code detection. The session
// starts at CHOOSING_LOCATION: detection already happened, and the next valid
// action is picking a storage location.
func NewSession(barcode string, format CodeFormat, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.New(),
		barcode:    barcode,
		codeFormat: format,
		step:       StepChoosingLocation,
		timeline:   NewTimeline(new(realTimeProvider)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ReconstructSession creates a Session from persisted data without enforcing
// creation-time invariants. This should only be used when resuming from a
// snapshot.
func ReconstructSession(
	id uuid.UUID,
	barcode string,
	format CodeFormat,
	manualCode string,
	storageLocationID string,
	pendingItemID string,
	step SessionStep,
	startedAt time.Time,
) *Session {
	return &Session{
		id:                id,
		barcode:           barcode,
		codeFormat:        format,
		manualCode:        manualCode,
		storageLocationID: storageLocationID,
		pendingItemID:     pendingItemID,
		step:              step,
		timeline:          ReconstructTimeline(startedAt, time.Time{}, time.Time{}),
	}
}

// SessionID returns the unique identifier for this scan session.
func (s *Session) SessionID() uuid.UUID { return s.id }

// Barcode returns the code value captured at detection time.
func (s *Session) Barcode() string { return s.barcode }

// CodeFormat returns the symbology of the detected code.
func (s *Session) CodeFormat() CodeFormat { return s.codeFormat }

// ManualCode returns the manually entered PLU, empty if none was entered.
func (s *Session) ManualCode() string { return s.manualCode }

// SubmissionCode returns the code to submit through phase 1: the manual PLU
// when one was entered, otherwise the detected barcode.
func (s *Session) SubmissionCode() string {
	if s.manualCode != "" {
		return s.manualCode
	}
	return s.barcode
}

// StorageLocationID returns the chosen storage location, empty until selected.
func (s *Session) StorageLocationID() string { return s.storageLocationID }

// PendingItemID returns the backend-assigned pending record id, empty until
// phase 1 succeeds. It is never reassigned.
func (s *Session) PendingItemID() string { return s.pendingItemID }

// Product returns the product snapshot captured at phase 1 success.
func (s *Session) Product() *inventory.ProductSnapshot { return s.product }

// SuggestedCategory returns the backend's category suggestion.
func (s *Session) SuggestedCategory() string { return s.suggestedCategory }

// ConfidenceScore returns the backend's product match confidence.
func (s *Session) ConfidenceScore() float64 { return s.confidenceScore }

// Expiration returns the resolved expiration capture, nil until phase 2 input
// exists (captured or skipped).
func (s *Session) Expiration() *Expiration { return s.expiration }

// Step returns the session's current position in the workflow.
func (s *Session) Step() SessionStep { return s.step }

// FailedFrom returns the pending step a FAILED session branched from.
func (s *Session) FailedFrom() SessionStep { return s.failedFrom }

// LastError returns the classification of the most recent failure.
func (s *Session) LastError() *ErrorKind { return s.lastError }

// RetryCount returns the number of user-visible retries for a phase.
func (s *Session) RetryCount(phase Phase) int {
	if phase == PhaseBarcode {
		return s.barcodeRetries
	}
	return s.expirationRetries
}

// FlagReason returns the reason supplied when the record was flagged.
func (s *Session) FlagReason() string { return s.flagReason }

// StartedAt returns the time the session was created.
func (s *Session) StartedAt() time.Time { return s.timeline.StartedAt() }

// CompletedAt returns the time the session reached a terminal step.
func (s *Session) CompletedAt() time.Time { return s.timeline.CompletedAt() }

// IsTerminal reports whether the session has finished.
func (s *Session) IsTerminal() bool { return s.step.IsTerminal() }

// updateStep changes the session's step after validating the transition.
func (s *Session) updateStep(target SessionStep) error {
	if err := s.step.validateTransition(target); err != nil {
		return err
	}

	if target.IsTerminal() {
		s.timeline.MarkCompleted()
	} else {
		s.timeline.UpdateLastUpdate()
	}

	s.step = target
	return nil
}

// SelectLocation records the chosen storage location and moves the session
// into phase 1 submission. The location is set exactly once.
func (s *Session) SelectLocation(locationID string) error {
	if locationID == "" {
		return fmt.Errorf("storage location id must not be empty")
	}
	if err := s.updateStep(StepSubmittingBarcode); err != nil {
		return err
	}
	s.storageLocationID = locationID
	return nil
}

// AttachPendingItem records a phase 1 success: the backend-assigned pending
// record id and the product snapshot. The pending item id is set exactly once.
func (s *Session) AttachPendingItem(itemID string, product *inventory.ProductSnapshot, suggestedCategory string, confidence float64) error {
	if itemID == "" {
		return fmt.Errorf("pending item id must not be empty")
	}
	if s.pendingItemID != "" && s.pendingItemID != itemID {
		return fmt.Errorf("pending item id already assigned (%s), refusing reassignment to %s", s.pendingItemID, itemID)
	}
	if err := s.updateStep(StepCapturingExpiration); err != nil {
		return err
	}

	s.pendingItemID = itemID
	s.product = product
	s.suggestedCategory = suggestedCategory
	s.confidenceScore = confidence
	s.lastError = nil
	return nil
}

// MarkProductNotFound records a phase 1 business rejection. The session
// parks in PRODUCT_NOT_FOUND awaiting a user choice; this branch is never
// retried automatically.
func (s *Session) MarkProductNotFound() error {
	if err := s.updateStep(StepProductNotFound); err != nil {
		return err
	}
	s.lastError = KindPtr(ErrorKindProductNotFound)
	return nil
}

// SubmitManualCode validates a manually entered PLU and re-enters phase 1
// submission with it. Validation happens before any network call.
func (s *Session) SubmitManualCode(code string) error {
	if err := ValidatePLU(code); err != nil {
		return err
	}
	if err := s.updateStep(StepSubmittingBarcode); err != nil {
		return err
	}
	s.manualCode = code
	s.lastError = nil
	return nil
}

// CaptureExpiration records an OCR capture result and moves the session into
// phase 2 submission.
func (s *Session) CaptureExpiration(exp Expiration) error {
	if err := s.updateStep(StepSubmittingExpiration); err != nil {
		return err
	}
	s.expiration = &exp
	return nil
}

// SkipExpiration resolves the expiration capture with no date and moves the
// session into phase 2 submission. The already-validated product match is
// kept; only the date is absent.
func (s *Session) SkipExpiration() error {
	if err := s.updateStep(StepSubmittingExpiration); err != nil {
		return err
	}
	skipped := NewSkippedExpiration()
	s.expiration = &skipped
	return nil
}

// MarkActivated records a phase 2 success and moves the session into review.
func (s *Session) MarkActivated() error {
	if s.expiration == nil {
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonNoExpiration,
		}
	}
	if err := s.updateStep(StepReviewing); err != nil {
		return err
	}
	s.lastError = nil
	return nil
}

// FailPhase records an exhausted transient failure for the in-flight phase
// and parks the session in FAILED, where retry, skip (phase 2 only), and
// cancel remain available.
func (s *Session) FailPhase(kind ErrorKind) error {
	from := s.step
	if from != StepSubmittingBarcode && from != StepSubmittingExpiration {
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonWrongStep,
		}
	}
	if err := s.updateStep(StepFailed); err != nil {
		return err
	}
	s.failedFrom = from
	s.lastError = &kind
	return nil
}

// Retry re-enters the failed phase. A failed phase 1 resubmits the same
// input; a failed phase 2 re-enters expiration capture so the user can
// produce fresh input.
func (s *Session) Retry() error {
	switch s.failedFrom {
	case StepSubmittingBarcode:
		if err := s.updateStep(StepSubmittingBarcode); err != nil {
			return err
		}
		s.barcodeRetries++
	case StepSubmittingExpiration:
		if err := s.updateStep(StepCapturingExpiration); err != nil {
			return err
		}
		s.expirationRetries++
		s.expiration = nil
	default:
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonWrongStep,
		}
	}
	s.failedFrom = StepUnspecified
	return nil
}

// SkipAfterFailure resolves a failed phase 2 by resubmitting with no date.
func (s *Session) SkipAfterFailure() error {
	if s.failedFrom != StepSubmittingExpiration {
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonWrongStep,
		}
	}
	if err := s.updateStep(StepSubmittingExpiration); err != nil {
		return err
	}
	skipped := NewSkippedExpiration()
	s.expiration = &skipped
	s.failedFrom = StepUnspecified
	return nil
}

// Approve records user approval with optional corrections and moves the
// session into finalization.
func (s *Session) Approve(corrections ReviewCorrections) error {
	if err := s.updateStep(StepFinalizing); err != nil {
		return err
	}

	if corrections.Name != nil && s.product != nil {
		// Replace the snapshot rather than mutating it; read models published
		// earlier share the pointer.
		corrected := *s.product
		corrected.Name = *corrections.Name
		s.product = &corrected
	}
	if corrections.Category != nil {
		s.suggestedCategory = *corrections.Category
	}
	if corrections.ExpirationDate != nil && s.expiration != nil {
		corrected := NewExpiration(corrections.ExpirationDate, s.expiration.OCRText(), s.expiration.Confidence(), s.expiration.ProcessingTimeMs())
		s.expiration = &corrected
	}

	return nil
}

// Flag records a flag-for-review decision and moves the session into flagging.
func (s *Session) Flag(reason string) error {
	if reason == "" {
		return fmt.Errorf("flag reason must not be empty")
	}
	if err := s.updateStep(StepFlagging); err != nil {
		return err
	}
	s.flagReason = reason
	return nil
}

// Finalize completes an approved session. Local bookkeeping only; the remote
// record is already active after phase 2.
func (s *Session) Finalize() error {
	if s.step != StepFinalizing {
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonWrongStep,
		}
	}
	return s.updateStep(StepDone)
}

// CompleteFlagging completes a flagged session once the flag request has
// been issued.
func (s *Session) CompleteFlagging() error {
	if s.step != StepFlagging {
		return SessionInvalidStateError{
			sessionID: s.id,
			step:      s.step,
			reason:    SessionInvalidStateReasonWrongStep,
		}
	}
	return s.updateStep(StepDone)
}

// Cancel discards the session from any non-terminal step.
func (s *Session) Cancel() error {
	return s.updateStep(StepCancelled)
}

// SessionInvalidStateError indicates an operation was attempted in a step
// that does not permit it.
type SessionInvalidStateError struct {
	sessionID uuid.UUID
	step      SessionStep
	reason    SessionInvalidStateReason
}

// SessionInvalidStateReason represents the specific reason why a session
// state is invalid for an operation.
type SessionInvalidStateReason string

const (
	// SessionInvalidStateReasonWrongStep indicates the session is not in the
	// correct step for the operation.
	SessionInvalidStateReasonWrongStep SessionInvalidStateReason = "WRONG_STEP"

	// SessionInvalidStateReasonNoExpiration indicates the session reached a
	// point that requires a resolved expiration but has none.
	SessionInvalidStateReasonNoExpiration SessionInvalidStateReason = "NO_EXPIRATION"
)

// Error returns a string representation of the error.
func (e SessionInvalidStateError) Error() string {
	return fmt.Sprintf("session %s is in invalid state %s: %s", e.sessionID, e.step, e.reason)
}

// Reason returns the specific reason for the invalid state.
func (e SessionInvalidStateError) Reason() SessionInvalidStateReason { return e.reason }
