package scanning

// ErrorKind classifies workflow failures so the orchestrator can decide
// whether an outcome is retried silently, surfaced with choices, or dropped.
// Every asynchronous outcome is normalized into one of these kinds before it
// reaches the state machine.
type ErrorKind string

const (
	// ErrorKindPermissionDenied indicates camera authorization was refused.
	// Not retryable without user action in system settings.
	ErrorKindPermissionDenied ErrorKind = "PERMISSION_DENIED"

	// ErrorKindDetectionTransient indicates a duplicate or too-soon detection.
	// Silently dropped, never surfaced.
	ErrorKindDetectionTransient ErrorKind = "DETECTION_TRANSIENT"

	// ErrorKindNetworkTransient indicates a timeout, 5xx, or connectivity loss.
	// Retried automatically with backoff before being surfaced.
	ErrorKindNetworkTransient ErrorKind = "NETWORK_TRANSIENT"

	// ErrorKindProductNotFound indicates the backend rejected the barcode as
	// unrecognized. Never retried automatically.
	ErrorKindProductNotFound ErrorKind = "PRODUCT_NOT_FOUND"

	// ErrorKindNoUsableDate indicates OCR produced no usable expiration date.
	// Never retried automatically; the user may recapture or skip.
	ErrorKindNoUsableDate ErrorKind = "NO_USABLE_DATE"

	// ErrorKindSnapshotCorrupt indicates a persisted snapshot failed to parse
	// or was stale. Discarded without user-visible error.
	ErrorKindSnapshotCorrupt ErrorKind = "SNAPSHOT_CORRUPT"
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string { return string(k) }

// IsRetryable reports whether the orchestrator may retry the failed phase
// automatically. Business-terminal failures always require a user decision.
func (k ErrorKind) IsRetryable() bool {
	return k == ErrorKindNetworkTransient
}

// KindPtr returns a pointer to an ErrorKind.
func KindPtr(k ErrorKind) *ErrorKind { return &k }
