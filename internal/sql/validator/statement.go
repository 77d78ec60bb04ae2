package validator

import (
	"errors"
	"fmt"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

// ErrEmptySequence is returned when a statement sequence has nothing to check.
var ErrEmptySequence = errors.New("validator: empty statement sequence")

// CheckStatement type-checks stmt against st. CREATE TABLE registers the new
// relation in st; a sequence returns the relation of its last statement.
func CheckStatement(st *catalog.SymbolTable, stmt parser.Statement) (Relation, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return checkCreateTable(st, s)
	case *parser.QueryStmt:
		return CheckQuery(st, s.Query)
	case *parser.SequenceStmt:
		if len(s.Statements) == 0 {
			return Relation{}, ErrEmptySequence
		}
		var last Relation
		for _, child := range s.Statements {
			rel, err := CheckStatement(st, child)
			if err != nil {
				return Relation{}, err
			}
			last = rel
		}
		return last, nil
	default:
		return Relation{}, fmt.Errorf("validator: unsupported statement %T", stmt)
	}
}

func checkCreateTable(st *catalog.SymbolTable, stmt *parser.CreateTableStmt) (Relation, error) {
	seen := make(map[string]struct{}, len(stmt.Columns))
	fields := make([]types.Field, 0, len(stmt.Columns))
	for _, col := range stmt.Columns {
		if _, dup := seen[col.Name]; dup {
			return Relation{}, &types.RedefinedNameError{Name: col.Name}
		}
		if !col.Type.Valid() {
			return Relation{}, fmt.Errorf("validator: column %s of %s has no valid type", col.Name, stmt.Name)
		}
		seen[col.Name] = struct{}{}
		fields = append(fields, types.Field{Name: col.Name, Type: col.Type})
	}
	schema := types.NewSchema(fields...)
	if err := st.Define(stmt.Name, schema); err != nil {
		return Relation{}, err
	}
	return Relation{Name: stmt.Name, Schema: schema}, nil
}
