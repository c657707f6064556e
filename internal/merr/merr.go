// Package merr defines the error kinds surfaced to the top-level CLI
// driver. Package-level errors wrap one of these sentinels with context
// via github.com/pkg/errors, so errors.Cause(err) recovers the kind. The
// CLI driver prints every error and exits 1 whatever its kind.
package merr

import "github.com/pkg/errors"

var (
	// UsageError covers missing/extra positional arguments, unknown
	// flags, and incompatible option combinations.
	UsageError = errors.New("usage error")

	// IoError covers inputs that cannot be opened/read and outputs that
	// cannot be created/written.
	IoError = errors.New("io error")

	// FormatError covers malformed MEME directives, non-positive
	// background values, and inconsistent PWM widths.
	FormatError = errors.New("format error")

	// UnsupportedAlphabet covers a motif whose alength isn't 4.
	UnsupportedAlphabet = errors.New("unsupported alphabet")

	// InvalidBase covers a programmatic ScoreMatrix.Value call with a
	// base outside ACGT.
	InvalidBase = errors.New("invalid base")

	// IndexError covers a BAM region-fetch failure against the index.
	IndexError = errors.New("index error")
)

// Wrap annotates cause with msg, preserving cause as the Cause() of the
// result so callers can classify it with errors.Cause.
func Wrap(cause error, msg string) error {
	return errors.Wrap(cause, msg)
}

// Wrapf is the formatted variant of Wrap.
func Wrapf(cause error, format string, args ...interface{}) error {
	return errors.Wrapf(cause, format, args...)
}
