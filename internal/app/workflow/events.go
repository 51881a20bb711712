package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
)

// User commands. Each is enqueued onto the orchestrator's event loop and
// handled on the single loop goroutine, in arrival order.

type requestPermissionCmd struct{}

type openSettingsCmd struct{}

type selectLocationCmd struct{ locationID string }

type submitManualCodeCmd struct{ code string }

type captureExpirationCmd struct{ image []byte }

type skipExpirationCmd struct{}

type approveCmd struct{ corrections scanning.ReviewCorrections }

type flagCmd struct{ reason string }

type retryCmd struct{}

type skipAfterFailureCmd struct{}

type cancelCmd struct{}

// Collaborator results. Each carries the session id and the step the session
// occupied when the work was launched; the loop drops results whose session
// is gone or whose step has moved on.

type permissionResolved struct {
	status scanning.PermissionStatus
	err    error
}

type codeDetected struct {
	format scanning.CodeFormat
	value  string
}

type phase1Resolved struct {
	sessionID uuid.UUID
	fromStep  scanning.SessionStep
	result    scanning.SubmitBarcodeResult
	err       error
}

type phase2Resolved struct {
	sessionID uuid.UUID
	fromStep  scanning.SessionStep
	result    scanning.SubmitExpirationResult
	err       error
}

type captureResolved struct {
	sessionID uuid.UUID
	fromStep  scanning.SessionStep
	capture   scanning.ExpirationCapture
	err       error
}

type locationsLoaded struct {
	sessionID uuid.UUID
	locations []inventory.StorageLocation
	err       error
}

// State is a read-model snapshot of the workflow, safe to render from any
// goroutine.
type State struct {
	Permission scanning.PermissionStatus

	SessionID         uuid.UUID
	Step              scanning.SessionStep
	Barcode           string
	CodeFormat        scanning.CodeFormat
	StorageLocationID string
	PendingItemID     string
	Product           *inventory.ProductSnapshot
	SuggestedCategory string
	ConfidenceScore   float64
	ExpirationDate    *time.Time
	LastError         *scanning.ErrorKind

	// Locations holds the storage locations offered for selection. Populated
	// while the session is choosing a location.
	Locations []inventory.StorageLocation
}
