package engine

import (
	"errors"
	"fmt"
)

// RegistryError represents a rejected capability registration.
type RegistryError struct {
	// Code identifies the error category.
	Code RegistryErrorCode

	// Message is a human-readable description.
	Message string

	Component string
	Method    string
}

// RegistryErrorCode categorizes registry errors.
type RegistryErrorCode string

const (
	// ErrCodeDuplicateCapability indicates component.method is already registered.
	ErrCodeDuplicateCapability RegistryErrorCode = "DUPLICATE_CAPABILITY"

	// ErrCodeInvalidName indicates an empty name or a nil handler.
	ErrCodeInvalidName RegistryErrorCode = "INVALID_NAME"
)

// Error implements the error interface.
func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", e.Code, e.Component, e.Method, e.Message)
}

// NewRegistryError creates a RegistryError.
func NewRegistryError(code RegistryErrorCode, component, method, message string) *RegistryError {
	return &RegistryError{
		Code:      code,
		Message:   message,
		Component: component,
		Method:    method,
	}
}

// IsDuplicateCapability returns true if err is a duplicate registration.
// Uses errors.As to handle wrapped errors.
func IsDuplicateCapability(err error) bool {
	var re *RegistryError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDuplicateCapability
	}
	return false
}

// ErrUnknownEntity is returned when a request names an entity that is not
// registered in the world.
var ErrUnknownEntity = errors.New("unknown entity")
