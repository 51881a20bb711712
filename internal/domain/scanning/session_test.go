package scanning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
)

func TestNewSessionStartsAtChoosingLocation(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)

	assert.NotEqual(t, s.SessionID().String(), "")
	assert.Equal(t, "0086395095005", s.Barcode())
	assert.Equal(t, CodeFormatEAN13, s.CodeFormat())
	assert.Equal(t, StepChoosingLocation, s.Step())
	assert.False(t, s.IsTerminal())
	assert.False(t, s.StartedAt().IsZero())
}

// Happy path with a skipped expiration: detect, choose location, phase 1,
// skip capture, phase 2, review, approve.
func TestSessionLifecycleWithSkippedExpiration(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)

	require.NoError(t, s.SelectLocation("pantry-id"))
	assert.Equal(t, StepSubmittingBarcode, s.Step())
	assert.Equal(t, "pantry-id", s.StorageLocationID())

	product := &inventory.ProductSnapshot{Name: "Oat Milk", Brand: "Acme"}
	require.NoError(t, s.AttachPendingItem("abc123", product, "dairy_alternatives", 0.93))
	assert.Equal(t, StepCapturingExpiration, s.Step())
	assert.Equal(t, "abc123", s.PendingItemID())

	require.NoError(t, s.SkipExpiration())
	assert.Equal(t, StepSubmittingExpiration, s.Step())
	require.NotNil(t, s.Expiration())
	assert.Nil(t, s.Expiration().Date())
	assert.True(t, s.Expiration().Skipped())

	require.NoError(t, s.MarkActivated())
	assert.Equal(t, StepReviewing, s.Step())
	// The record reaches review with the product attached and no date.
	assert.Equal(t, "Oat Milk", s.Product().Name)
	assert.Nil(t, s.Expiration().Date())

	require.NoError(t, s.Approve(ReviewCorrections{}))
	require.NoError(t, s.Finalize())
	assert.Equal(t, StepDone, s.Step())
	assert.True(t, s.IsTerminal())
	assert.False(t, s.CompletedAt().IsZero())
}

func TestSessionCapturedExpirationFlowsToReview(t *testing.T) {
	t.Parallel()

	s := sessionAtCapture(t)

	date := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	exp := NewExpiration(&date, "EXP 12/31/2026", 0.91, 420)
	require.NoError(t, s.CaptureExpiration(exp))
	assert.Equal(t, StepSubmittingExpiration, s.Step())

	require.NoError(t, s.MarkActivated())
	assert.Equal(t, StepReviewing, s.Step())
	require.NotNil(t, s.Expiration().Date())
	assert.Equal(t, date, *s.Expiration().Date())
}

func TestSessionMarkActivatedRequiresExpiration(t *testing.T) {
	t.Parallel()

	s := sessionAtCapture(t)

	err := s.MarkActivated()
	require.Error(t, err)

	var stateErr SessionInvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, SessionInvalidStateReasonNoExpiration, stateErr.Reason())
}

func TestSessionPendingItemIDNeverReassigned(t *testing.T) {
	t.Parallel()

	s := sessionAtCapture(t)
	require.Equal(t, "abc123", s.PendingItemID())

	err := s.AttachPendingItem("other-id", nil, "", 0)
	require.Error(t, err)
	assert.Equal(t, "abc123", s.PendingItemID())
}

func TestSessionSelectLocationRequiresID(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)
	require.Error(t, s.SelectLocation(""))
	assert.Equal(t, StepChoosingLocation, s.Step())
}

func TestSessionProductNotFoundThenManualCode(t *testing.T) {
	t.Parallel()

	s := NewSession("000000000000", CodeFormatUPCA)
	require.NoError(t, s.SelectLocation("pantry-id"))

	require.NoError(t, s.MarkProductNotFound())
	assert.Equal(t, StepProductNotFound, s.Step())
	require.NotNil(t, s.LastError())
	assert.Equal(t, ErrorKindProductNotFound, *s.LastError())

	require.NoError(t, s.SubmitManualCode("4011"))
	assert.Equal(t, StepSubmittingBarcode, s.Step())
	assert.Equal(t, "4011", s.ManualCode())
	// The manual code replaces the barcode for submission only.
	assert.Equal(t, "4011", s.SubmissionCode())
	assert.Equal(t, "000000000000", s.Barcode())
	assert.Nil(t, s.LastError())
}

func TestSessionManualCodeValidatedBeforeTransition(t *testing.T) {
	t.Parallel()

	s := NewSession("000000000000", CodeFormatUPCA)
	require.NoError(t, s.SelectLocation("pantry-id"))
	require.NoError(t, s.MarkProductNotFound())

	var pluErr InvalidPLUError
	err := s.SubmitManualCode("12ab")
	require.ErrorAs(t, err, &pluErr)
	assert.Equal(t, StepProductNotFound, s.Step())
	assert.Empty(t, s.ManualCode())
}

func TestSessionFailPhaseAndRetryBarcode(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)
	require.NoError(t, s.SelectLocation("pantry-id"))

	require.NoError(t, s.FailPhase(ErrorKindNetworkTransient))
	assert.Equal(t, StepFailed, s.Step())
	assert.Equal(t, StepSubmittingBarcode, s.FailedFrom())
	assert.Equal(t, ErrorKindNetworkTransient, *s.LastError())

	require.NoError(t, s.Retry())
	assert.Equal(t, StepSubmittingBarcode, s.Step())
	assert.Equal(t, 1, s.RetryCount(PhaseBarcode))
	assert.Equal(t, StepUnspecified, s.FailedFrom())
}

func TestSessionFailPhaseAndRetryExpiration(t *testing.T) {
	t.Parallel()

	s := sessionAtCapture(t)
	require.NoError(t, s.SkipExpiration())
	require.NoError(t, s.FailPhase(ErrorKindNetworkTransient))
	assert.Equal(t, StepSubmittingExpiration, s.FailedFrom())

	// A failed phase 2 re-enters capture so the user can produce fresh input.
	require.NoError(t, s.Retry())
	assert.Equal(t, StepCapturingExpiration, s.Step())
	assert.Equal(t, 1, s.RetryCount(PhaseExpiration))
	assert.Nil(t, s.Expiration())
}

func TestSessionSkipAfterFailure(t *testing.T) {
	t.Parallel()

	s := sessionAtCapture(t)
	require.NoError(t, s.SkipExpiration())
	require.NoError(t, s.FailPhase(ErrorKindNetworkTransient))

	require.NoError(t, s.SkipAfterFailure())
	assert.Equal(t, StepSubmittingExpiration, s.Step())
	require.NotNil(t, s.Expiration())
	assert.True(t, s.Expiration().Skipped())
}

func TestSessionFailPhaseOnlyFromSubmittingSteps(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)
	err := s.FailPhase(ErrorKindNetworkTransient)
	require.Error(t, err)
	assert.Equal(t, StepChoosingLocation, s.Step())
}

func TestSessionApproveAppliesCorrections(t *testing.T) {
	t.Parallel()

	s := sessionAtReview(t)

	name := "Corrected Name"
	category := "snacks"
	date := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Approve(ReviewCorrections{
		Name:           &name,
		Category:       &category,
		ExpirationDate: &date,
	}))

	assert.Equal(t, StepFinalizing, s.Step())
	assert.Equal(t, "Corrected Name", s.Product().Name)
	assert.Equal(t, "snacks", s.SuggestedCategory())
	require.NotNil(t, s.Expiration().Date())
	assert.Equal(t, date, *s.Expiration().Date())

	require.NoError(t, s.Finalize())
	assert.Equal(t, StepDone, s.Step())
}

// A name correction must not write through the previously exposed product
// snapshot; readers holding the old pointer keep seeing the original value.
func TestSessionApproveDoesNotMutateExposedProduct(t *testing.T) {
	t.Parallel()

	s := sessionAtReview(t)
	before := s.Product()

	name := "Corrected Name"
	require.NoError(t, s.Approve(ReviewCorrections{Name: &name}))

	assert.Equal(t, "Oat Milk", before.Name)
	assert.Equal(t, "Corrected Name", s.Product().Name)
	assert.NotSame(t, before, s.Product())
}

func TestSessionFlag(t *testing.T) {
	t.Parallel()

	s := sessionAtReview(t)

	require.Error(t, s.Flag(""))
	assert.Equal(t, StepReviewing, s.Step())

	require.NoError(t, s.Flag("wrong product match"))
	assert.Equal(t, StepFlagging, s.Step())
	assert.Equal(t, "wrong product match", s.FlagReason())

	require.NoError(t, s.CompleteFlagging())
	assert.Equal(t, StepDone, s.Step())
}

func TestSessionCancelFromAnyNonTerminalStep(t *testing.T) {
	t.Parallel()

	s := sessionAtReview(t)
	require.NoError(t, s.Cancel())
	assert.Equal(t, StepCancelled, s.Step())
	assert.True(t, s.IsTerminal())

	// Terminal sessions reject further transitions.
	require.Error(t, s.Cancel())
	require.Error(t, s.Approve(ReviewCorrections{}))
}

// sessionAtCapture builds a session that has passed phase 1 with pending item
// "abc123".
func sessionAtCapture(t *testing.T) *Session {
	t.Helper()
	s := NewSession("0086395095005", CodeFormatEAN13)
	require.NoError(t, s.SelectLocation("pantry-id"))
	require.NoError(t, s.AttachPendingItem("abc123", &inventory.ProductSnapshot{Name: "Oat Milk"}, "dairy_alternatives", 0.93))
	return s
}

// sessionAtReview builds a session that has passed phase 2 with a skipped
// expiration.
func sessionAtReview(t *testing.T) *Session {
	t.Helper()
	s := sessionAtCapture(t)
	require.NoError(t, s.SkipExpiration())
	require.NoError(t, s.MarkActivated())
	return s
}
