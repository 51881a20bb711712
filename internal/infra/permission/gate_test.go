package permission

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/internal/infra/storage"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

type scriptedPlatform struct {
	current scanning.PermissionStatus
	answer  chan scanning.PermissionStatus
	prompts int
}

func (p *scriptedPlatform) CurrentStatus(ctx context.Context) (scanning.PermissionStatus, error) {
	return p.current, nil
}

func (p *scriptedPlatform) Prompt(ctx context.Context) (<-chan scanning.PermissionStatus, error) {
	p.prompts++
	return p.answer, nil
}

func (p *scriptedPlatform) OpenSettings(ctx context.Context) error { return nil }

func testGate(t *testing.T, platform Platform, timeout time.Duration) *Gate {
	t.Helper()
	log := logger.New(os.Stderr, logger.LevelError, "test", nil)
	return NewGate(Config{DialogTimeout: timeout}, platform, log, storage.NoOpTracer())
}

func TestRequestPermissionSkipsPromptWhenResolved(t *testing.T) {
	t.Parallel()

	platform := &scriptedPlatform{current: scanning.PermissionGranted}
	gate := testGate(t, platform, time.Second)

	status, err := gate.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanning.PermissionGranted, status)
	assert.Equal(t, 0, platform.prompts)
}

func TestRequestPermissionWaitsForAnswer(t *testing.T) {
	t.Parallel()

	answer := make(chan scanning.PermissionStatus, 1)
	answer <- scanning.PermissionDenied
	platform := &scriptedPlatform{current: scanning.PermissionUndetermined, answer: answer}
	gate := testGate(t, platform, time.Second)

	status, err := gate.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanning.PermissionDenied, status)
	assert.Equal(t, 1, platform.prompts)
}

// An unanswered dialog resolves to undetermined without error, leaving the
// request re-invocable.
func TestRequestPermissionDialogTimeout(t *testing.T) {
	t.Parallel()

	platform := &scriptedPlatform{
		current: scanning.PermissionUndetermined,
		answer:  make(chan scanning.PermissionStatus),
	}
	gate := testGate(t, platform, 10*time.Millisecond)

	status, err := gate.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, scanning.PermissionUndetermined, status)

	// A second request prompts again.
	_, err = gate.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, platform.prompts)
}

func TestRequestPermissionContextCancelled(t *testing.T) {
	t.Parallel()

	platform := &scriptedPlatform{
		current: scanning.PermissionUndetermined,
		answer:  make(chan scanning.PermissionStatus),
	}
	gate := testGate(t, platform, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.RequestPermission(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
