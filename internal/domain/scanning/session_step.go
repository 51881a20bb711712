package scanning

import (
	"errors"
	"fmt"
)

// SessionStep represents the position of a scan session within the workflow
// state machine. The step is the single source of truth for which actions
// are valid at any moment; every transition is validated against the table
// below before it is applied.
type SessionStep string

// ErrSessionStepUnknown is returned when a session step is unknown.
var ErrSessionStepUnknown = errors.New("session step unknown")

const (
	// StepAwaitingPermission indicates camera authorization has not been granted yet.
	StepAwaitingPermission SessionStep = "AWAITING_PERMISSION"

	// StepScanning indicates the camera is live and codes are being detected.
	StepScanning SessionStep = "SCANNING"

	// StepChoosingLocation indicates a code was accepted and a storage location
	// must be selected.
	StepChoosingLocation SessionStep = "CHOOSING_LOCATION"

	// StepSubmittingBarcode indicates phase 1 of the ingestion protocol is in flight.
	StepSubmittingBarcode SessionStep = "SUBMITTING_BARCODE"

	// StepProductNotFound indicates the backend did not recognize the barcode.
	// The user chooses between manual PLU entry, rescanning, or cancelling.
	StepProductNotFound SessionStep = "PRODUCT_NOT_FOUND"

	// StepCapturingExpiration indicates the pending item exists and an expiration
	// date is being captured (or skipped).
	StepCapturingExpiration SessionStep = "CAPTURING_EXPIRATION"

	// StepSubmittingExpiration indicates phase 2 of the ingestion protocol is in flight.
	StepSubmittingExpiration SessionStep = "SUBMITTING_EXPIRATION"

	// StepReviewing indicates the assembled record is awaiting user approval or flagging.
	StepReviewing SessionStep = "REVIEWING"

	// StepFinalizing indicates the user approved and local bookkeeping is completing.
	StepFinalizing SessionStep = "FINALIZING"

	// StepFlagging indicates the user flagged the record for manual review.
	StepFlagging SessionStep = "FLAGGING"

	// StepFailed indicates a network-bearing step exhausted its retries. Retry,
	// skip (where applicable), and cancel remain available.
	StepFailed SessionStep = "FAILED"

	// StepDone indicates the session finished through review.
	StepDone SessionStep = "DONE"

	// StepCancelled indicates the session was discarded before completion.
	StepCancelled SessionStep = "CANCELLED"

	// StepUnspecified is used when a session step is unknown.
	StepUnspecified SessionStep = "UNSPECIFIED"
)

// String returns the string representation of the SessionStep.
func (s SessionStep) String() string { return string(s) }

// ParseSessionStep converts a string to a SessionStep.
func ParseSessionStep(s string) SessionStep {
	switch SessionStep(s) {
	case StepAwaitingPermission, StepScanning, StepChoosingLocation, StepSubmittingBarcode,
		StepProductNotFound, StepCapturingExpiration, StepSubmittingExpiration,
		StepReviewing, StepFinalizing, StepFlagging, StepFailed, StepDone, StepCancelled:
		return SessionStep(s)
	default:
		return StepUnspecified
	}
}

// IsTerminal reports whether the step ends the session. Terminal steps clear
// the persisted snapshot and release the machine back to idle.
func (s SessionStep) IsTerminal() bool {
	return s == StepDone || s == StepCancelled
}

// order assigns each step a position along the happy path so "at or past"
// invariants (pending item id, expiration) can be checked. Branch steps map
// onto the position of the step they branch from.
func (s SessionStep) order() int {
	switch s {
	case StepAwaitingPermission:
		return 0
	case StepScanning:
		return 1
	case StepChoosingLocation:
		return 2
	case StepSubmittingBarcode, StepProductNotFound:
		return 3
	case StepCapturingExpiration:
		return 4
	case StepSubmittingExpiration:
		return 5
	case StepReviewing:
		return 6
	case StepFinalizing, StepFlagging:
		return 7
	case StepDone:
		return 8
	default:
		return -1
	}
}

// AtOrPast reports whether the step is at or past the target along the happy path.
func (s SessionStep) AtOrPast(target SessionStep) bool {
	return s.order() >= 0 && s.order() >= target.order()
}

// validateTransition checks if a step transition is valid and returns an error if not.
func (s SessionStep) validateTransition(target SessionStep) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid session step transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition checks if the current step can transition to the target step.
// It enforces the workflow lifecycle rules to prevent invalid state changes.
func (s SessionStep) isValidTransition(target SessionStep) bool {
	// Cancellation is available from every non-terminal step.
	if target == StepCancelled {
		return !s.IsTerminal() && s != StepUnspecified
	}

	switch s {
	case StepAwaitingPermission:
		return target == StepScanning
	case StepScanning:
		return target == StepChoosingLocation
	case StepChoosingLocation:
		return target == StepSubmittingBarcode
	case StepSubmittingBarcode:
		return target == StepCapturingExpiration || target == StepProductNotFound || target == StepFailed
	case StepProductNotFound:
		// Manual PLU entry re-enters phase 1. Retry-scan discards the session
		// entirely, which goes through the cancel rule above.
		return target == StepSubmittingBarcode
	case StepCapturingExpiration:
		return target == StepSubmittingExpiration
	case StepSubmittingExpiration:
		return target == StepReviewing || target == StepFailed
	case StepFailed:
		// Retry re-enters the failed phase; skip re-enters expiration capture.
		return target == StepSubmittingBarcode || target == StepCapturingExpiration || target == StepSubmittingExpiration
	case StepReviewing:
		return target == StepFinalizing || target == StepFlagging
	case StepFinalizing, StepFlagging:
		return target == StepDone
	case StepDone, StepCancelled:
		// Terminal steps - no further transitions allowed.
		return false
	default:
		return false
	}
}
