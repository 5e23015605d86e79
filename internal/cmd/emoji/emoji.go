// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols used in text reports.
const (
	// Success marks a record reconciled without low-confidence values.
	Success = "✓"

	// Warning marks a record with low-confidence values or overwrites.
	Warning = "!"

	// Error marks a failed record or a dropped pair.
	Error = "✗"

	// Info marks an inferred key or other note.
	Info = "→"
)
