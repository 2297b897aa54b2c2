package logging

// Field name constants for structured logging.
const (
	FieldError    = "error"
	FieldPath     = "path"
	FieldInput    = "input"
	FieldOutput   = "output"
	FieldFormat   = "format"
	FieldDuration = "duration"

	// Document fields.
	FieldRevision = "revision"
	FieldLength   = "length"

	// Font fields.
	FieldFaces   = "faces"
	FieldIndex   = "index"
	FieldFamily  = "family"
	FieldBuffers = "buffers"

	// Export fields.
	FieldPages    = "pages"
	FieldExported = "exported"
	FieldSkipped  = "skipped"

	// Diagnostic fields.
	FieldErrors   = "errors"
	FieldWarnings = "warnings"
)
