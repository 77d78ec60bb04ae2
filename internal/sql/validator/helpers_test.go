package validator_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
	"github.com/example/relcheck/internal/sql/validator"
)

func studentsSchema() types.Schema {
	return types.NewSchema(
		types.Field{Name: "ssn", Type: types.Int},
		types.Field{Name: "gpa", Type: types.Int},
		types.Field{Name: "year", Type: types.Int},
		types.Field{Name: "graduate", Type: types.Bool},
		types.Field{Name: "name", Type: types.VarChar},
	)
}

func enrolledSchema() types.Schema {
	return types.NewSchema(
		types.Field{Name: "ssn", Type: types.Int},
		types.Field{Name: "grade", Type: types.Int},
		types.Field{Name: "dropped", Type: types.Bool},
	)
}

func newTable(t *testing.T, bindings ...catalog.Binding) *catalog.SymbolTable {
	t.Helper()
	st := catalog.NewSymbolTable()
	for _, b := range bindings {
		require.NoError(t, st.Define(b.Name, b.Schema))
	}
	return st
}

func schoolTable(t *testing.T) *catalog.SymbolTable {
	return newTable(t,
		catalog.Binding{Name: "students", Schema: studentsSchema()},
		catalog.Binding{Name: "enrolled", Schema: enrolledSchema()},
	)
}

func mustExpr(t *testing.T, src string) parser.Expr {
	t.Helper()
	q := mustQuery(t, "SELECT "+src+" FROM anything")
	return q.(*parser.SelectQuery).Items[0].Expr
}

func mustQuery(t *testing.T, src string) parser.Query {
	t.Helper()
	stmt, err := parser.Parse(src)
	require.NoError(t, err)
	qs, ok := stmt.(*parser.QueryStmt)
	require.True(t, ok, "expected a query, got %T", stmt)
	return qs.Query
}

func checkQuery(t *testing.T, st *catalog.SymbolTable, src string) (validator.Relation, error) {
	t.Helper()
	return validator.CheckQuery(st, mustQuery(t, src))
}

func assertRelation(t *testing.T, wantName string, want types.Schema, got validator.Relation) {
	t.Helper()
	assert.Equal(t, wantName, got.Name)
	assert.Equal(t, want.Fields(), got.Schema.Fields(), "got schema %s", got.Schema)
}

func requireErrorAs[E error](t *testing.T, err error) E {
	t.Helper()
	require.Error(t, err)
	var target E
	require.True(t, errors.As(err, &target), "expected %T, got %v", target, err)
	return target
}

func fields(pairs ...interface{}) types.Schema {
	out := make([]types.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Field{Name: pairs[i].(string), Type: pairs[i+1].(types.BaseType)})
	}
	return types.NewSchema(out...)
}
