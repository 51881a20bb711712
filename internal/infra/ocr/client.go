// Package ocr adapts the expiration-date recognition service. The service
// receives a package photo and answers with recognized text plus a best-guess
// date; a response without a usable date is a valid answer, not an error.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// Config holds the OCR service client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

var _ scanning.ExpirationCapturer = (*Client)(nil)

// Client calls the recognition service over HTTP. It implements
// scanning.ExpirationCapturer.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *logger.Logger
	tracer trace.Tracer
}

// NewClient creates an OCR client with an instrumented transport.
func NewClient(cfg Config, logger *logger.Logger, tracer trace.Tracer) *Client {
	return &Client{
		cfg: cfg,
		httpc: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With("component", "ocr_client"),
		tracer: tracer,
	}
}

type captureResponse struct {
	Text             string  `json:"text"`
	Date             *string `json:"date"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// Capture submits a package photo and returns the recognition result. The
// returned capture has a nil Date when the service found no usable date.
func (c *Client) Capture(ctx context.Context, image []byte) (scanning.ExpirationCapture, error) {
	ctx, span := c.tracer.Start(ctx, "ocr_client.capture",
		trace.WithAttributes(attribute.Int("image_bytes", len(image))))
	defer span.End()

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		c.cfg.BaseURL+"/v1/ocr/expiration", bytes.NewReader(image))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.ExpirationCapture{}, fmt.Errorf("building capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.ExpirationCapture{}, fmt.Errorf("executing capture request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("capture failed: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.ExpirationCapture{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.ExpirationCapture{}, fmt.Errorf("reading capture response: %w", err)
	}

	var decoded captureResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scanning.ExpirationCapture{}, fmt.Errorf("decoding capture response: %w", err)
	}

	capture := scanning.ExpirationCapture{
		OCRText:          decoded.Text,
		Confidence:       decoded.Confidence,
		ProcessingTimeMs: decoded.ProcessingTimeMs,
	}
	if capture.ProcessingTimeMs == 0 {
		capture.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	if decoded.Date != nil {
		parsed, err := time.Parse("2006-01-02", *decoded.Date)
		if err != nil {
			c.logger.Warn(ctx, "discarding unparseable date from recognition service",
				"date", *decoded.Date, "error", err)
		} else {
			capture.Date = &parsed
		}
	}

	span.SetAttributes(
		attribute.Bool("has_date", capture.Date != nil),
		attribute.Float64("confidence", capture.Confidence),
	)
	span.SetStatus(codes.Ok, "capture complete")
	return capture, nil
}
