package model

import "fmt"

// StructuralError aborts a run before any translation is applied.
type StructuralError struct {
	Entity string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %s: %s", e.Entity, e.Reason)
}

// CollisionError reports two local identifiers that would be renamed to the
// same identifier.
type CollisionError struct {
	Kind      Kind
	Canonical string
	First     string
	Second    string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s collision: %s and %s both translate to %s", e.Kind, e.First, e.Second, e.Canonical)
}
