package entity

import "errors"

var (
	// ErrResolution marks a stage name that no registered unit answers to.
	// Fatal for the pipeline run; nothing has executed yet.
	ErrResolution = errors.New("stage resolution failed")

	// ErrInvariantViolated marks a run record whose bookkeeping drifted out
	// of balance. The record is not persisted in that state.
	ErrInvariantViolated = errors.New("run record bookkeeping out of balance")
)
