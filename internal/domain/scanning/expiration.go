package scanning

import "time"

// Expiration holds the outcome of expiration-date capture for a session.
// A skipped capture is still a resolved Expiration: the date is nil but the
// value exists, which is what lets the session progress into review.
type Expiration struct {
	date             *time.Time
	ocrText          string
	confidence       float64
	processingTimeMs int64
	skipped          bool
}

// NewExpiration creates an Expiration from an OCR capture result.
func NewExpiration(date *time.Time, ocrText string, confidence float64, processingTimeMs int64) Expiration {
	return Expiration{
		date:             date,
		ocrText:          ocrText,
		confidence:       confidence,
		processingTimeMs: processingTimeMs,
	}
}

// NewSkippedExpiration creates a resolved Expiration with no date, used when
// the user explicitly chose to skip capture.
func NewSkippedExpiration() Expiration {
	return Expiration{skipped: true}
}

// Date returns the extracted expiration date, nil if none was captured.
func (e Expiration) Date() *time.Time { return e.date }

// OCRText returns the raw recognized text the date was extracted from.
func (e Expiration) OCRText() string { return e.ocrText }

// Confidence returns the OCR confidence score in [0, 1].
func (e Expiration) Confidence() float64 { return e.confidence }

// ProcessingTimeMs returns the OCR processing latency in milliseconds.
func (e Expiration) ProcessingTimeMs() int64 { return e.processingTimeMs }

// Skipped reports whether the user explicitly skipped capture.
func (e Expiration) Skipped() bool { return e.skipped }
