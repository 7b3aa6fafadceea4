package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrAllocationNotFound is returned when an allocation does not exist
	// or does not belong to the given task
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrResourceNotFound is returned when a resource is not found
	ErrResourceNotFound = errors.New("resource not found")

	// ErrParentNotFound is returned when the requested parent task does not exist
	ErrParentNotFound = errors.New("parent task not found")

	// ErrAlreadyLinked is returned when linking a task that already has a parent
	ErrAlreadyLinked = errors.New("task is already linked to a parent")
)
