package scanning

import (
	"fmt"
	"regexp"
	"strings"
)

// CodeFormat identifies the symbology of a detected code.
type CodeFormat string

const (
	CodeFormatEAN13 CodeFormat = "EAN_13"
	CodeFormatEAN8  CodeFormat = "EAN_8"
	CodeFormatUPCA  CodeFormat = "UPC_A"
	CodeFormatUPCE  CodeFormat = "UPC_E"
	CodeFormatQR    CodeFormat = "QR"

	// CodeFormatPLU marks a manually entered produce lookup code.
	CodeFormatPLU CodeFormat = "PLU"

	CodeFormatUnspecified CodeFormat = "UNSPECIFIED"
)

// String returns the string representation of the CodeFormat.
func (f CodeFormat) String() string { return string(f) }

// ParseCodeFormat converts a string to a CodeFormat.
func ParseCodeFormat(s string) CodeFormat {
	switch CodeFormat(strings.ToUpper(s)) {
	case CodeFormatEAN13, CodeFormatEAN8, CodeFormatUPCA, CodeFormatUPCE, CodeFormatQR, CodeFormatPLU:
		return CodeFormat(strings.ToUpper(s))
	default:
		return CodeFormatUnspecified
	}
}

// pluPattern matches produce lookup codes: 4 or 5 digits, nothing else.
var pluPattern = regexp.MustCompile(`^\d{4,5}$`)

// InvalidPLUError indicates a manually entered code is not a valid produce
// lookup code. Validation happens before any network call is made.
type InvalidPLUError struct{ code string }

// Error returns a string representation of the error.
func (e InvalidPLUError) Error() string {
	return fmt.Sprintf("invalid PLU code %q: must be 4 or 5 digits", e.code)
}

// ValidatePLU checks that a manually entered code is a well-formed produce
// lookup code. It returns an InvalidPLUError if not.
func ValidatePLU(code string) error {
	if !pluPattern.MatchString(code) {
		return InvalidPLUError{code: code}
	}
	return nil
}
