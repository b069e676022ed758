package script

import "errors"

var (
	// ErrInvalidStep is returned when a step's parameters cannot work.
	ErrInvalidStep = errors.New("invalid step")
	// ErrNoTarget is returned when a target-dependent script is bound
	// without a live target node.
	ErrNoTarget = errors.New("target node not present")
	// ErrNoSubject is returned when a script is bound to a missing node.
	ErrNoSubject = errors.New("subject node not present")
)
