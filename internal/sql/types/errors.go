package types

import (
	"errors"
	"fmt"
)

// NameMissingError reports a reference to an undeclared relation or column.
type NameMissingError struct {
	Name string
}

func (e *NameMissingError) Error() string {
	return fmt.Sprintf("name missing: %s", e.Name)
}

// RedefinedNameError reports a duplicate table, alias or column name.
type RedefinedNameError struct {
	Name string
}

func (e *RedefinedNameError) Error() string {
	return fmt.Sprintf("redefined name: %s", e.Name)
}

// TypeMismatchError reports a type that does not satisfy what an operator
// or context requires. Want and Got may be scalar types or schemas.
type TypeMismatchError struct {
	Want Type
	Got  Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// AggregationMismatchError reports mixing of aggregated and non-aggregated
// expressions.
type AggregationMismatchError struct {
	Message string
}

func (e *AggregationMismatchError) Error() string {
	return "aggregation mismatch: " + e.Message
}

// SchemaConcatConflictError reports a column present on both sides of a
// concatenation with different types.
type SchemaConcatConflictError struct {
	Field    string
	Previous BaseType
	New      BaseType
}

func (e *SchemaConcatConflictError) Error() string {
	return fmt.Sprintf("schema conflict: field %s already has type %s, cannot add with type %s", e.Field, e.Previous, e.New)
}

// Error kinds returned by Kind.
const (
	KindNameMissing         = "name_missing"
	KindRedefinedName       = "redefined_name"
	KindTypeMismatch        = "type_mismatch"
	KindAggregationMismatch = "aggregation_mismatch"
	KindSchemaConflict      = "schema_conflict"
	KindOther               = "other"
)

// Kind classifies err, following wrapped errors, into one of the Kind*
// constants.
func Kind(err error) string {
	var (
		missing   *NameMissingError
		redefined *RedefinedNameError
		mismatch  *TypeMismatchError
		agg       *AggregationMismatchError
		conflict  *SchemaConcatConflictError
	)
	switch {
	case errors.As(err, &missing):
		return KindNameMissing
	case errors.As(err, &redefined):
		return KindRedefinedName
	case errors.As(err, &mismatch):
		return KindTypeMismatch
	case errors.As(err, &agg):
		return KindAggregationMismatch
	case errors.As(err, &conflict):
		return KindSchemaConflict
	default:
		return KindOther
	}
}
