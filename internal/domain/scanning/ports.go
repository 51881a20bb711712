package scanning

import (
	"context"
	"time"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
)

// SubmitBarcodeCommand is the phase 1 request: the detected (or manually
// entered) code plus the chosen storage location.
type SubmitBarcodeCommand struct {
	Barcode           string
	StorageLocationID string
}

// SubmitBarcodeResult is the classified outcome of phase 1. Exactly one of
// the outcome predicates holds; transport failures never reach this type,
// they surface as errors from the client.
type SubmitBarcodeResult struct {
	ItemID            string
	Product           *inventory.ProductSnapshot
	SuggestedCategory string
	ConfidenceScore   float64

	// NotFound is set when the backend rejected the barcode as unrecognized.
	// This is a business-terminal outcome, never retried automatically.
	NotFound bool
}

// SubmitExpirationCommand is the phase 2 request: OCR output submitted
// against the pending record created by phase 1. A nil ExtractedDate means
// the user skipped capture.
type SubmitExpirationCommand struct {
	ScanID           string
	OCRText          string
	ExtractedDate    *time.Time
	Confidence       float64
	ProcessingTimeMs int64
}

// SubmitExpirationResult is the outcome of phase 2.
type SubmitExpirationResult struct {
	OCRResults map[string]any
}

// IngestionService invokes the two-phase remote ingestion protocol and
// classifies outcomes. Implementations retry transport failures internally
// within the configured budget; an error return means the budget was
// exhausted or the failure is not retryable.
type IngestionService interface {
	// SubmitBarcode runs phase 1. At most one phase 1 request is in flight
	// at a time; internal retries replace, never duplicate, the attempt.
	SubmitBarcode(ctx context.Context, cmd SubmitBarcodeCommand) (SubmitBarcodeResult, error)

	// SubmitExpiration runs phase 2 against the pending record.
	SubmitExpiration(ctx context.Context, cmd SubmitExpirationCommand) (SubmitExpirationResult, error)

	// FlagItem marks an activated item for manual review. Fire-and-forget
	// from the workflow's perspective; it never rolls back phase 1/2 data.
	FlagItem(ctx context.Context, itemID, reason string) error
}

// ExpirationCapture is the OCR collaborator's output: recognized text, a
// best-guess date, a confidence score, and processing latency.
type ExpirationCapture struct {
	Date             *time.Time
	OCRText          string
	Confidence       float64
	ProcessingTimeMs int64
}

// ExpirationCapturer produces an expiration capture from a package photo.
// A capture with a nil Date is a valid result (no usable date found); the
// orchestrator decides what to surface.
type ExpirationCapturer interface {
	Capture(ctx context.Context, image []byte) (ExpirationCapture, error)
}

// PermissionStatus is the camera authorization state reported by the
// platform permission collaborator.
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "GRANTED"
	PermissionDenied  PermissionStatus = "DENIED"

	// PermissionUndetermined is reported when the dialog wait timed out;
	// the request action stays re-invocable.
	PermissionUndetermined PermissionStatus = "UNDETERMINED"
)

// CameraAuthorizer requests and tracks camera authorization.
type CameraAuthorizer interface {
	// RequestPermission prompts for camera access, waiting at most the
	// collaborator's configured dialog timeout.
	RequestPermission(ctx context.Context) (PermissionStatus, error)

	// OpenSystemSettings opens the platform settings screen as an escape
	// hatch when permission was denied.
	OpenSystemSettings(ctx context.Context) error
}
