package scene

import "errors"

var (
	// ErrNotFound is returned when a named or numbered entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a name is already taken in its table.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrEmptyName is returned when an entry is registered without a name.
	ErrEmptyName = errors.New("empty name")
	// ErrCycle is returned when parenting would make a node its own ancestor.
	ErrCycle = errors.New("parenting cycle")
	// ErrAlreadyParented is returned when a node already has a parent.
	ErrAlreadyParented = errors.New("node already has a parent")
)
