package service

import "errors"

// Error taxonomy surfaced to handlers. Evaluations are deterministic pure
// functions over already-loaded data, so none of these warrant retries.
var (
	// ErrInputMissing means a required selection or document was absent
	ErrInputMissing = errors.New("selection or document missing")

	// ErrNoMatch means zero metadata rows match the selection keys
	ErrNoMatch = errors.New("no metadata record matches the selection")

	// ErrAmbiguousSelection means more than one metadata row matches the
	// full selection. This is a data-quality issue in the workbook and is
	// surfaced to the user rather than silently resolved.
	ErrAmbiguousSelection = errors.New("selection matches more than one metadata record")

	// ErrExtraction means the uploaded document could not be parsed.
	// Terminal for the evaluation; no partial report is produced.
	ErrExtraction = errors.New("document extraction failed")

	// ErrMetadataNotLoaded means no workbook has been loaded yet
	ErrMetadataNotLoaded = errors.New("metadata workbook not loaded")
)
