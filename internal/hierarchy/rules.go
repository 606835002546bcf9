package hierarchy

import (
	"errors"
	"fmt"
)

var (
	ErrSelfReference     = errors.New("department cannot be subordinate to itself")
	ErrDuplicateEdge     = errors.New("subordination already exists")
	ErrMultipleSuperiors = errors.New("department already has a direct superior")
	ErrCycle             = errors.New("subordination would create a cycle")
)

// CycleError carries the existing path subordinate -> ... -> superior that the
// rejected edge would close.
type CycleError struct {
	Path []int64
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: path %v", ErrCycle.Error(), e.Path)
}

// Is lets errors.Is(err, ErrCycle) match.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// MultipleSuperiorsError names the superior the subordinate already reports to.
type MultipleSuperiorsError struct {
	Subordinate     int64
	CurrentSuperior int64
}

func (e *MultipleSuperiorsError) Error() string {
	return fmt.Sprintf("%s: department %d reports to %d", ErrMultipleSuperiors.Error(), e.Subordinate, e.CurrentSuperior)
}

// Is lets errors.Is(err, ErrMultipleSuperiors) match.
func (e *MultipleSuperiorsError) Is(target error) bool {
	return target == ErrMultipleSuperiors
}

// CheckEndpoints rejects an edge from a department to itself. It does not
// depend on graph state.
func CheckEndpoints(superior, subordinate int64) error {
	if superior == subordinate {
		return ErrSelfReference
	}
	return nil
}

// Check validates superior -> subordinate against g. Rules are applied in a
// fixed order: self reference, duplicate, multiple superiors, cycle.
func (g *Graph) Check(superior, subordinate int64) error {
	if err := CheckEndpoints(superior, subordinate); err != nil {
		return err
	}
	if g.HasEdge(superior, subordinate) {
		return ErrDuplicateEdge
	}
	if current := g.Superiors(subordinate); len(current) > 0 {
		return &MultipleSuperiorsError{Subordinate: subordinate, CurrentSuperior: current[0]}
	}
	if path := g.PathTo(subordinate, superior); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}
