package detection

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

func testSource(t *testing.T, delay time.Duration) *Source {
	t.Helper()
	log := logger.New(os.Stderr, logger.LevelError, "test", nil)
	return newSource(delay, log, storage.NoOpTracer())
}

func TestOfferEmitsSingleCodeAfterDelay(t *testing.T) {
	t.Parallel()

	s := testSource(t, 10*time.Millisecond)
	s.Offer(context.Background(), []RawCode{{Format: scanning.CodeFormatEAN13, Value: "0086395095005"}})

	select {
	case got := <-s.Events():
		assert.Equal(t, scanning.CodeFormatEAN13, got.Format)
		assert.Equal(t, "0086395095005", got.Value)
	case <-time.After(time.Second):
		t.Fatal("expected an accepted detection")
	}
}

// A burst of identical frames within the cooldown window produces exactly one
// accepted event.
func TestOfferBurstProducesOneEvent(t *testing.T) {
	t.Parallel()

	s := testSource(t, 20*time.Millisecond)
	for i := 0; i < 10; i++ {
		s.Offer(context.Background(), []RawCode{{Format: scanning.CodeFormatEAN13, Value: "0086395095005"}})
		time.Sleep(time.Millisecond)
	}

	select {
	case <-s.Events():
	case <-time.After(time.Second):
		t.Fatal("expected an accepted detection")
	}

	select {
	case extra := <-s.Events():
		t.Fatalf("expected exactly one event, got another: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOfferDropsEmptyFrames(t *testing.T) {
	t.Parallel()

	s := testSource(t, time.Millisecond)
	s.Offer(context.Background(), nil)
	s.Offer(context.Background(), []RawCode{})

	select {
	case got := <-s.Events():
		t.Fatalf("expected no event for empty frames, got %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOfferTakesFirstCodeOfFrame(t *testing.T) {
	t.Parallel()

	s := testSource(t, time.Millisecond)
	s.Offer(context.Background(), []RawCode{
		{Format: scanning.CodeFormatEAN13, Value: "first"},
		{Format: scanning.CodeFormatQR, Value: "second"},
	})

	select {
	case got := <-s.Events():
		assert.Equal(t, "first", got.Value)
	case <-time.After(time.Second):
		t.Fatal("expected an accepted detection")
	}
}

func TestOfferAcceptsAgainAfterCooldown(t *testing.T) {
	t.Parallel()

	s := testSource(t, 5*time.Millisecond)

	s.Offer(context.Background(), []RawCode{{Format: scanning.CodeFormatEAN13, Value: "one"}})
	select {
	case got := <-s.Events():
		require.Equal(t, "one", got.Value)
	case <-time.After(time.Second):
		t.Fatal("expected first detection")
	}

	// Cooldown has been released; a new presentation is accepted.
	require.Eventually(t, func() bool {
		s.Offer(context.Background(), []RawCode{{Format: scanning.CodeFormatEAN13, Value: "two"}})
		select {
		case got := <-s.Events():
			return got.Value == "two"
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestOfferAbortsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := testSource(t, 50*time.Millisecond)
	s.Offer(ctx, []RawCode{{Format: scanning.CodeFormatEAN13, Value: "0086395095005"}})
	cancel()

	select {
	case got := <-s.Events():
		t.Fatalf("expected no event after cancellation, got %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}
