// Package ingestion implements the two-phase remote ingestion protocol over
// HTTP. Transport-level failures are retried with exponential backoff inside
// the configured budget; application-level rejections are classified and
// surfaced without retry. At most one request per phase is in flight at a
// time - a retry replaces the attempt, it never duplicates it.
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/pkg/common"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// ErrRequestInFlight is returned when a phase is submitted while a previous
// request for the same phase has not resolved yet.
var ErrRequestInFlight = errors.New("request already in flight for this phase")

// TransportError wraps a retryable transport-level failure (timeout, 5xx,
// connectivity loss) after the retry budget is exhausted.
type TransportError struct {
	Phase scanning.Phase
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure in phase %s: %v", e.Phase, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BusinessError wraps a non-retryable application-level rejection.
type BusinessError struct {
	Phase  scanning.Phase
	Reason string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("backend rejected phase %s request: %s", e.Phase, e.Reason)
}

// permanentError marks a failure that must not be retried. The retry loop
// stops immediately and surfaces the wrapped error.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// RetryConfig defines the automatic retry behavior for transport failures.
type RetryConfig struct {
	// MaxAttempts is how many times to retry before giving up.
	MaxAttempts int

	// InitialWait is the initial backoff duration (e.g., 1s).
	InitialWait time.Duration

	// MaxWait is the upper bound for the backoff (e.g., 30s).
	MaxWait time.Duration

	// Multiplier is the backoff growth factor between attempts.
	Multiplier float64
}

// Config holds the ingestion client configuration.
type Config struct {
	BaseURL string

	// Phase1Timeout and Phase2Timeout bound each individual request attempt.
	Phase1Timeout time.Duration
	Phase2Timeout time.Duration

	Retry RetryConfig

	// RequestsPerSecond and Burst feed the client-side rate limiter.
	RequestsPerSecond float64
	Burst             int
}

var _ scanning.IngestionService = (*Client)(nil)

// Client invokes the ingestion backend. It implements
// scanning.IngestionService.
type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *common.RateLimiter

	// inFlight tracks which phases currently have an unresolved request.
	mu       sync.Mutex
	inFlight map[scanning.Phase]bool

	logger *logger.Logger
	tracer trace.Tracer
}

// NewClient creates an ingestion client with an instrumented HTTP transport.
func NewClient(cfg Config, logger *logger.Logger, tracer trace.Tracer) *Client {
	return &Client{
		cfg: cfg,
		httpc: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:  common.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		inFlight: make(map[scanning.Phase]bool),
		logger:   logger.With("component", "ingestion_client"),
		tracer:   tracer,
	}
}

type productDTO struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
}

type submitBarcodeRequest struct {
	Barcode           string `json:"barcode"`
	StorageLocationID string `json:"storage_location_id"`
}

type submitBarcodeResponse struct {
	Success           bool        `json:"success"`
	ItemID            string      `json:"item_id,omitempty"`
	Product           *productDTO `json:"product,omitempty"`
	SuggestedCategory string      `json:"suggested_category,omitempty"`
	ConfidenceScore   float64     `json:"confidence_score,omitempty"`
	Error             string      `json:"error,omitempty"`
	Barcode           string      `json:"barcode,omitempty"`
}

type submitExpirationRequest struct {
	ScanID           string  `json:"scan_id"`
	OCRText          string  `json:"ocr_text"`
	ExtractedDate    *string `json:"extracted_date"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

type submitExpirationResponse struct {
	Success    bool           `json:"success"`
	OCRResults map[string]any `json:"ocr_results,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// SubmitBarcode runs phase 1 of the ingestion protocol.
func (c *Client) SubmitBarcode(ctx context.Context, cmd scanning.SubmitBarcodeCommand) (scanning.SubmitBarcodeResult, error) {
	ctx, span := c.tracer.Start(ctx, "ingestion_client.submit_barcode",
		trace.WithAttributes(
			attribute.String("barcode", cmd.Barcode),
			attribute.String("storage_location_id", cmd.StorageLocationID),
		))
	defer span.End()

	if err := c.acquirePhase(scanning.PhaseBarcode); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.SubmitBarcodeResult{}, err
	}
	defer c.releasePhase(scanning.PhaseBarcode)

	var resp submitBarcodeResponse
	err := c.doWithRetry(ctx, scanning.PhaseBarcode, http.MethodPost, "/v1/scans", c.cfg.Phase1Timeout,
		submitBarcodeRequest{Barcode: cmd.Barcode, StorageLocationID: cmd.StorageLocationID},
		&resp,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.SubmitBarcodeResult{}, err
	}

	if !resp.Success {
		if strings.Contains(strings.ToLower(resp.Error), "not found") {
			span.AddEvent("product_not_found")
			span.SetStatus(codes.Ok, "product not found")
			return scanning.SubmitBarcodeResult{NotFound: true}, nil
		}
		berr := &BusinessError{Phase: scanning.PhaseBarcode, Reason: resp.Error}
		span.RecordError(berr)
		span.SetStatus(codes.Error, berr.Error())
		return scanning.SubmitBarcodeResult{}, berr
	}

	result := scanning.SubmitBarcodeResult{
		ItemID:            resp.ItemID,
		SuggestedCategory: resp.SuggestedCategory,
		ConfidenceScore:   resp.ConfidenceScore,
	}
	if resp.Product != nil {
		result.Product = &inventory.ProductSnapshot{
			Name:  resp.Product.Name,
			Brand: resp.Product.Brand,
			Nutrition: inventory.Nutrition{
				ServingSize: resp.Product.ServingSize,
				ServingUnit: resp.Product.ServingUnit,
				Calories:    resp.Product.Calories,
				Protein:     resp.Product.Protein,
				Carbs:       resp.Product.Carbs,
				Fat:         resp.Product.Fat,
			},
		}
	}

	span.SetStatus(codes.Ok, "pending item created")
	return result, nil
}

// SubmitExpiration runs phase 2 of the ingestion protocol.
func (c *Client) SubmitExpiration(ctx context.Context, cmd scanning.SubmitExpirationCommand) (scanning.SubmitExpirationResult, error) {
	ctx, span := c.tracer.Start(ctx, "ingestion_client.submit_expiration",
		trace.WithAttributes(
			attribute.String("scan_id", cmd.ScanID),
			attribute.Bool("has_date", cmd.ExtractedDate != nil),
		))
	defer span.End()

	if err := c.acquirePhase(scanning.PhaseExpiration); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.SubmitExpirationResult{}, err
	}
	defer c.releasePhase(scanning.PhaseExpiration)

	var extracted *string
	if cmd.ExtractedDate != nil {
		v := cmd.ExtractedDate.Format("2006-01-02")
		extracted = &v
	}

	var resp submitExpirationResponse
	err := c.doWithRetry(ctx, scanning.PhaseExpiration, http.MethodPost,
		fmt.Sprintf("/v1/scans/%s/expiration", cmd.ScanID), c.cfg.Phase2Timeout,
		submitExpirationRequest{
			ScanID:           cmd.ScanID,
			OCRText:          cmd.OCRText,
			ExtractedDate:    extracted,
			Confidence:       cmd.Confidence,
			ProcessingTimeMs: cmd.ProcessingTimeMs,
		},
		&resp,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.SubmitExpirationResult{}, err
	}

	if !resp.Success {
		berr := &BusinessError{Phase: scanning.PhaseExpiration, Reason: resp.Error}
		span.RecordError(berr)
		span.SetStatus(codes.Error, berr.Error())
		return scanning.SubmitExpirationResult{}, berr
	}

	span.SetStatus(codes.Ok, "item activated")
	return scanning.SubmitExpirationResult{OCRResults: resp.OCRResults}, nil
}

// FlagItem marks an activated item for manual review. One attempt, no retry:
// the workflow treats this as fire-and-forget.
func (c *Client) FlagItem(ctx context.Context, itemID, reason string) error {
	ctx, span := c.tracer.Start(ctx, "ingestion_client.flag_item",
		trace.WithAttributes(attribute.String("item_id", itemID)))
	defer span.End()

	body := map[string]string{"reason": reason}
	if err := c.doOnce(ctx, http.MethodPost, fmt.Sprintf("/v1/items/%s/flag", itemID), c.cfg.Phase2Timeout, body, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("flagging item %s: %w", itemID, err)
	}

	span.SetStatus(codes.Ok, "item flagged")
	return nil
}

func (c *Client) acquirePhase(phase scanning.Phase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[phase] {
		return ErrRequestInFlight
	}
	c.inFlight[phase] = true
	return nil
}

func (c *Client) releasePhase(phase scanning.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[phase] = false
}

// doWithRetry executes one logical request, retrying transport failures with
// exponential backoff up to the configured attempt budget. Business
// rejections and 4xx responses stop the retry loop immediately.
func (c *Client) doWithRetry(ctx context.Context, phase scanning.Phase, method, path string, timeout time.Duration, reqBody, respBody any) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.cfg.Retry.InitialWait
	expBackoff.MaxInterval = c.cfg.Retry.MaxWait
	expBackoff.Multiplier = c.cfg.Retry.Multiplier
	expBackoff.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(c.cfg.Retry.MaxAttempts)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		err := c.doOnce(ctx, method, path, timeout, reqBody, respBody)
		if err != nil {
			c.logger.Warn(ctx, "request attempt failed",
				"phase", phase, "path", path, "attempt", attempt, "error", err)
			var perm *permanentError
			if errors.As(err, &perm) {
				return backoff.Permanent(err)
			}
		}
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		return &TransportError{Phase: phase, Err: err}
	}
	return nil
}

// doOnce executes a single request attempt. Transport failures and 5xx
// responses return plain errors (retryable); 4xx responses are permanent.
func (c *Client) doOnce(ctx context.Context, method, path string, timeout time.Duration, reqBody, respBody any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return permanent(err)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return permanent(fmt.Errorf("encoding request: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return permanent(fmt.Errorf("client error: status %d: %s", resp.StatusCode, string(body)))
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
