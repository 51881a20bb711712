package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStepIsValidTransition(t *testing.T) {
	tests := []struct {
		name    string
		current SessionStep
		target  SessionStep
		want    bool
	}{
		{"awaiting permission to scanning", StepAwaitingPermission, StepScanning, true},
		{"scanning to choosing location", StepScanning, StepChoosingLocation, true},
		{"choosing location to submitting barcode", StepChoosingLocation, StepSubmittingBarcode, true},
		{"submitting barcode to capturing expiration", StepSubmittingBarcode, StepCapturingExpiration, true},
		{"submitting barcode to product not found", StepSubmittingBarcode, StepProductNotFound, true},
		{"submitting barcode to failed", StepSubmittingBarcode, StepFailed, true},
		{"product not found to submitting barcode", StepProductNotFound, StepSubmittingBarcode, true},
		{"capturing to submitting expiration", StepCapturingExpiration, StepSubmittingExpiration, true},
		{"submitting expiration to reviewing", StepSubmittingExpiration, StepReviewing, true},
		{"submitting expiration to failed", StepSubmittingExpiration, StepFailed, true},
		{"failed back to submitting barcode", StepFailed, StepSubmittingBarcode, true},
		{"failed back to capturing expiration", StepFailed, StepCapturingExpiration, true},
		{"failed to submitting expiration", StepFailed, StepSubmittingExpiration, true},
		{"reviewing to finalizing", StepReviewing, StepFinalizing, true},
		{"reviewing to flagging", StepReviewing, StepFlagging, true},
		{"finalizing to done", StepFinalizing, StepDone, true},
		{"flagging to done", StepFlagging, StepDone, true},

		{"cancel from choosing location", StepChoosingLocation, StepCancelled, true},
		{"cancel from product not found", StepProductNotFound, StepCancelled, true},
		{"cancel from failed", StepFailed, StepCancelled, true},
		{"cancel from reviewing", StepReviewing, StepCancelled, true},

		{"skip ahead from choosing location", StepChoosingLocation, StepCapturingExpiration, false},
		{"skip review entirely", StepSubmittingExpiration, StepDone, false},
		{"backwards from reviewing", StepReviewing, StepCapturingExpiration, false},
		{"done is terminal", StepDone, StepCancelled, false},
		{"cancelled is terminal", StepCancelled, StepSubmittingBarcode, false},
		{"done cannot restart", StepDone, StepChoosingLocation, false},
		{"unspecified cannot cancel", StepUnspecified, StepCancelled, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.current.isValidTransition(tt.target))
		})
	}
}

func TestParseSessionStep(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StepReviewing, ParseSessionStep("REVIEWING"))
	assert.Equal(t, StepCapturingExpiration, ParseSessionStep("CAPTURING_EXPIRATION"))
	assert.Equal(t, StepUnspecified, ParseSessionStep("NOT_A_STEP"))
	assert.Equal(t, StepUnspecified, ParseSessionStep(""))
}

func TestSessionStepIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StepDone.IsTerminal())
	assert.True(t, StepCancelled.IsTerminal())
	assert.False(t, StepFailed.IsTerminal())
	assert.False(t, StepReviewing.IsTerminal())
}

func TestSessionStepAtOrPast(t *testing.T) {
	t.Parallel()

	assert.True(t, StepReviewing.AtOrPast(StepCapturingExpiration))
	assert.True(t, StepCapturingExpiration.AtOrPast(StepCapturingExpiration))
	assert.True(t, StepFlagging.AtOrPast(StepSubmittingBarcode))
	assert.False(t, StepChoosingLocation.AtOrPast(StepCapturingExpiration))
	assert.False(t, StepUnspecified.AtOrPast(StepScanning))
}
