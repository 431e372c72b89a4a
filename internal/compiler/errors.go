package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: field, Message: err.Error()}
	}

	// Return first error with position info
	firstErr := errs[0]
	ce := &CompileError{Field: field, Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// LoadError represents an error that occurred while loading a catalog
// directory.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	// Catalog compile errors
	ErrCodeStage        = "E101" // Invalid stage definition
	ErrCodeDuplicate    = "E102" // Duplicate stage, plant or action
	ErrCodeAction       = "E103" // Invalid action definition
	ErrCodeEffect       = "E104" // Invalid effect definition
	ErrCodeUnknownSeed  = "E105" // Action seed names no plant
	ErrCodeUnknownField = "E106" // Field not part of the catalog format
)

// MapFieldToErrorCode maps the leaf of a compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch leafOf(field) {
	case "stages", "id", "duration", "watering_cooldown", "requires_watering":
		return ErrCodeStage
	case "duplicate":
		return ErrCodeDuplicate
	case "actions", "name", "priority":
		return ErrCodeAction
	case "effects", "type", "call":
		return ErrCodeEffect
	case "seed":
		return ErrCodeUnknownSeed
	case "unknown":
		return ErrCodeUnknownField
	default:
		return ErrCodeGeneric
	}
}
