package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryscan/pantryscan/internal/app/workflow"
	"github.com/pantryscan/pantryscan/internal/domain/events"
	"github.com/pantryscan/pantryscan/internal/domain/inventory"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/internal/infra/detection"
	"github.com/pantryscan/pantryscan/internal/infra/storage"
	storagemem "github.com/pantryscan/pantryscan/internal/infra/storage/scanning/memory"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

type stubAuthorizer struct{}

func (stubAuthorizer) RequestPermission(ctx context.Context) (scanning.PermissionStatus, error) {
	return scanning.PermissionGranted, nil
}

func (stubAuthorizer) OpenSystemSettings(ctx context.Context) error { return nil }

type stubIngestion struct{}

func (stubIngestion) SubmitBarcode(ctx context.Context, cmd scanning.SubmitBarcodeCommand) (scanning.SubmitBarcodeResult, error) {
	return scanning.SubmitBarcodeResult{}, nil
}

func (stubIngestion) SubmitExpiration(ctx context.Context, cmd scanning.SubmitExpirationCommand) (scanning.SubmitExpirationResult, error) {
	return scanning.SubmitExpirationResult{}, nil
}

func (stubIngestion) FlagItem(ctx context.Context, itemID, reason string) error { return nil }

type stubCapturer struct{}

func (stubCapturer) Capture(ctx context.Context, image []byte) (scanning.ExpirationCapture, error) {
	return scanning.ExpirationCapture{}, nil
}

type stubLocations struct{}

func (stubLocations) List(ctx context.Context) ([]inventory.StorageLocation, error) {
	return nil, nil
}

func (stubLocations) GetByID(ctx context.Context, id string) (inventory.StorageLocation, error) {
	return inventory.StorageLocation{}, inventory.ErrLocationNotFound
}

type stubPublisher struct{}

func (stubPublisher) PublishDomainEvent(ctx context.Context, event events.DomainEvent, opts ...events.PublishOption) error {
	return nil
}

func newTestServer(t *testing.T, src *detection.Source) *Server {
	t.Helper()
	log := logger.New(os.Stderr, logger.LevelError, "test", nil)
	orchestrator := workflow.NewOrchestrator(
		"device-1",
		src,
		stubAuthorizer{},
		stubIngestion{},
		stubCapturer{},
		stubLocations{},
		storagemem.NewSnapshotStore(),
		stubPublisher{},
		24*time.Hour,
		log,
		workflow.NoopMetrics{},
		storage.NoOpTracer(),
	)
	return NewServer(orchestrator, src, log)
}

// A frame accepted over HTTP must still produce a detection after the handler
// has returned and the server has torn down the request context.
func TestFrameEndpointEmitsDetection(t *testing.T) {
	t.Parallel()

	log := logger.New(os.Stderr, logger.LevelError, "test", nil)
	src := detection.NewSource(log, storage.NoOpTracer())

	ts := httptest.NewServer(newTestServer(t, src).Handler())
	defer ts.Close()

	body := `{"codes":[{"format":"EAN_13","value":"0086395095005"}]}`
	resp, err := http.Post(ts.URL+"/v1/frames", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case detected := <-src.Events():
		assert.Equal(t, "0086395095005", detected.Value)
		assert.Equal(t, scanning.CodeFormatEAN13, detected.Format)
	case <-time.After(4 * time.Second):
		t.Fatal("no detection emitted after frame submission")
	}
}

func TestFrameEndpointRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	log := logger.New(os.Stderr, logger.LevelError, "test", nil)
	src := detection.NewSource(log, storage.NoOpTracer())

	ts := httptest.NewServer(newTestServer(t, src).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/frames", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
