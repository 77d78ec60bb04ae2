package validator

import (
	"fmt"
	"strings"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

// Relation is the name and schema produced by a query or statement.
type Relation struct {
	Name   string
	Schema types.Schema
}

// CheckQuery infers the output relation of a query.
func CheckQuery(st *catalog.SymbolTable, query parser.Query) (Relation, error) {
	switch q := query.(type) {
	case *parser.TableRef:
		return checkTable(st, q)
	case *parser.JoinQuery:
		return checkJoin(st, q)
	case *parser.SelectQuery:
		return newSelectChecker(st, q).check()
	case *parser.UnionQuery:
		return checkSetOperation(st, q.Queries)
	case *parser.IntersectQuery:
		return checkSetOperation(st, q.Queries)
	default:
		return Relation{}, fmt.Errorf("validator: unsupported query %T", query)
	}
}

func checkTable(st *catalog.SymbolTable, ref *parser.TableRef) (Relation, error) {
	schema, err := st.Resolve(ref.Name)
	if err != nil {
		return Relation{}, err
	}
	if alias, ok := ref.Alias.Get(); ok && st.Has(alias) {
		return Relation{}, &types.RedefinedNameError{Name: alias}
	}
	return Relation{Name: ref.OutputName(), Schema: schema}, nil
}

func checkJoin(st *catalog.SymbolTable, join *parser.JoinQuery) (Relation, error) {
	left, err := CheckQuery(st, join.Left)
	if err != nil {
		return Relation{}, err
	}
	right, err := CheckQuery(st, join.Right)
	if err != nil {
		return Relation{}, err
	}
	combined := types.ConcatAll(left.Schema.Expand(left.Name), right.Schema.Expand(right.Name))

	// The condition sees the two joined relations and nothing else.
	scope := catalog.Scoped(
		catalog.Binding{Name: left.Name, Schema: left.Schema},
		catalog.Binding{Name: right.Name, Schema: right.Schema},
	)
	cond, err := CheckExpr(scope, join.Condition)
	if err != nil {
		return Relation{}, err
	}
	if err := expectType(types.Bool, cond.Output); err != nil {
		return Relation{}, err
	}
	if !combined.IsSubtype(cond.Inputs) {
		return Relation{}, &types.TypeMismatchError{Want: combined, Got: cond.Inputs}
	}
	return Relation{Name: join.Alias, Schema: combined.Simplify()}, nil
}

// checkSetOperation checks UNION and INTERSECT operands. Every operand must
// carry the same multiset of column types as the first; columns are paired
// by position.
func checkSetOperation(st *catalog.SymbolTable, queries []parser.Query) (Relation, error) {
	if len(queries) == 0 {
		return Relation{}, fmt.Errorf("validator: set operation without operands")
	}
	var (
		first  Relation
		merged types.Schema
		name   strings.Builder
	)
	for i, query := range queries {
		rel, err := CheckQuery(st, query)
		if err != nil {
			return Relation{}, err
		}
		name.WriteString(edgeChars(rel.Name))
		name.WriteString("_")
		if i == 0 {
			first, merged = rel, rel.Schema
			continue
		}
		if !types.Equivalent(first.Schema, rel.Schema) {
			return Relation{}, &types.TypeMismatchError{Want: first.Schema, Got: rel.Schema}
		}
		merged = types.MergeFields(merged, rel.Schema)
	}
	return Relation{Name: freshName(st, strings.Trim(name.String(), "_")), Schema: merged}, nil
}

func edgeChars(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[0]) + string(runes[len(runes)-1])
}

// freshName returns base, or base_0, base_1, ... when base is taken.
func freshName(st *catalog.SymbolTable, base string) string {
	candidate := base
	for i := 0; st.Has(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	return candidate
}
