package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrUndeclaredLibrary is returned when a referenced library is not a direct dependency of the root.
	ErrUndeclaredLibrary = errors.New("undeclared library")

	// ErrDescriptor is returned when an artifact descriptor cannot be read.
	ErrDescriptor = errors.New("artifact descriptor error")

	// ErrResolution is returned when dependencies cannot be resolved.
	ErrResolution = errors.New("resolution error")

	// ErrNotFound is returned when an artifact is not present in any repository.
	ErrNotFound = errors.New("not found")
)

// InvalidCoordinatesError reports a malformed coordinate string.
type InvalidCoordinatesError struct {
	Input    string
	Expected string
}

func (e *InvalidCoordinatesError) Error() string {
	return fmt.Sprintf("%q is not a valid format, expected %s", e.Input, e.Expected)
}

func (e *InvalidCoordinatesError) Unwrap() error {
	return ErrInvalidCoordinates
}

// UndeclaredLibraryError reports a library reference with no matching direct dependency.
// Scope is empty when any scope would have been accepted.
type UndeclaredLibraryError struct {
	Coordinates string
	Kind        string // "shared library", "plugin", "application dependency"
	Scope       Scope
}

func (e *UndeclaredLibraryError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s %s has to be declared as a direct dependency with %s scope", e.Kind, e.Coordinates, e.Scope)
	}
	return fmt.Sprintf("%s %s has to be declared as a direct dependency", e.Kind, e.Coordinates)
}

func (e *UndeclaredLibraryError) Unwrap() error {
	return ErrUndeclaredLibrary
}

// DescriptorError wraps a failure to read an artifact's descriptor.
type DescriptorError struct {
	Artifact Artifact
	Err      error
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("reading descriptor of %s: %v", e.Artifact, e.Err)
}

func (e *DescriptorError) Unwrap() []error {
	return []error{ErrDescriptor, e.Err}
}

// ResolutionError wraps a failure to resolve dependencies or a single artifact.
type ResolutionError struct {
	Artifacts []Artifact
	Err       error
}

func (e *ResolutionError) Error() string {
	if len(e.Artifacts) == 0 {
		return fmt.Sprintf("resolving dependencies: %v", e.Err)
	}
	names := make([]string, len(e.Artifacts))
	for i, a := range e.Artifacts {
		names[i] = a.String()
	}
	return fmt.Sprintf("resolving %s: %v", strings.Join(names, ", "), e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// NotFoundError reports an artifact absent from every configured repository.
type NotFoundError struct {
	Artifact     Artifact
	Repositories []string
}

func (e *NotFoundError) Error() string {
	if len(e.Repositories) == 0 {
		return fmt.Sprintf("artifact %s not found", e.Artifact)
	}
	return fmt.Sprintf("artifact %s not found in %s", e.Artifact, strings.Join(e.Repositories, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
