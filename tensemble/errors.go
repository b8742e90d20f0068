package tensemble

import (
	"errors"
	"fmt"
)

// Config errors, raised synchronously from Build (construction time).
var (
	ErrUnknownMode             = errors.New("tensemble: unknown node comparison mode")
	ErrUnknownPostTransform    = errors.New("tensemble: unknown post transform")
	ErrUnknownAggregate        = errors.New("tensemble: unknown aggregate function")
	ErrStringLabelsUnsupported = errors.New("tensemble: string class labels are not supported")
	ErrDuplicateNode           = errors.New("tensemble: duplicate (tree_id, node_id) pair")
	ErrDanglingChild           = errors.New("tensemble: child node id does not exist in its tree")
	ErrSelfLoop                = errors.New("tensemble: node references itself as a child")
	ErrBadWeightTarget         = errors.New("tensemble: leaf weight references a node that does not exist")
	ErrBadBaseValues           = errors.New("tensemble: base_values length is not 0, 1, or n_targets_or_classes")
)

// Input errors for a compute call. ErrBadShape is returned synchronously by
// Compute; ErrWrongDtype is not currently returned, since every input is
// float64.
var (
	ErrBadShape   = errors.New("tensemble: input matrix is not 2-dimensional")
	ErrWrongDtype = errors.New("tensemble: input precision does not match the ensemble's")
)

// nodeError wraps a construction error with the offending node position so
// callers can locate the bad attribute-array entry.
type nodeError struct {
	err   error
	index int
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("%v (at node array position %d)", e.err, e.index)
}

func (e *nodeError) Unwrap() error { return e.err }

func wrapNodeError(err error, index int) error {
	return &nodeError{err: err, index: index}
}
