package secrets

import "fmt"

// NotFoundError indicates no secret row exists for the given principal and id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("secret with id '%s' not found", e.ID)
}

// DuplicateError indicates a (principal, name, profile) uniqueness violation.
type DuplicateError struct {
	Name    string
	Profile Profile
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("secret with name '%s' already exists for profile '%s'", e.Name, e.Profile)
}

// ElevationRequiredError indicates the caller lacks the elevated-privilege
// flag required for plaintext disclosure.
type ElevationRequiredError struct {
	Operation string
}

func (e ElevationRequiredError) Error() string {
	op := e.Operation
	if op == "" {
		op = "this operation"
	}
	return "elevated privileges required for " + op
}

// ImportError indicates a YAML import document that could not be processed
// at all: unparseable YAML or a root that is not a mapping. Per-row failures
// are collected into ImportResult instead.
type ImportError struct {
	Reason string
	Err    error
}

func (e ImportError) Error() string {
	return "yaml import failed: " + e.Reason
}

func (e ImportError) Unwrap() error {
	return e.Err
}
