package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every value that can appear on either side of a
// type mismatch: scalar column types and whole schemas.
type Type interface {
	fmt.Stringer
	isType()
}

// BaseType enumerates the scalar column types of the language.
type BaseType int

const (
	Int BaseType = iota + 1
	Bool
	VarChar
)

func (BaseType) isType() {}

func (t BaseType) String() string {
	switch t {
	case Int:
		return "INT"
	case Bool:
		return "BOOL"
	case VarChar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is one of the declared scalar types.
func (t BaseType) Valid() bool {
	switch t {
	case Int, Bool, VarChar:
		return true
	default:
		return false
	}
}

// ParseBaseType maps a type keyword onto its BaseType.
func ParseBaseType(keyword string) (BaseType, error) {
	switch strings.ToUpper(keyword) {
	case "INT":
		return Int, nil
	case "BOOL":
		return Bool, nil
	case "VARCHAR":
		return VarChar, nil
	default:
		return 0, fmt.Errorf("types: unknown type %s", keyword)
	}
}

// Expression is the inferred type of a scalar expression. Inputs holds every
// qualified column the expression reads; Output is its value type.
type Expression struct {
	Inputs Schema
	Output BaseType
}

// NewExpression constructs an Expression.
func NewExpression(inputs Schema, output BaseType) Expression {
	return Expression{Inputs: inputs, Output: output}
}

func (e Expression) String() string {
	return fmt.Sprintf("%s -> %s", e.Inputs, e.Output)
}
