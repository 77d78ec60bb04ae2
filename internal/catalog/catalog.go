package catalog

import (
	"sort"

	"github.com/example/relcheck/internal/sql/types"
)

// Binding pairs a relation name with its schema.
type Binding struct {
	Name   string
	Schema types.Schema
}

// SymbolTable maps relation names to their schemas. One table lives for a
// single type-checking run; CREATE TABLE is its only writer. It is not safe
// for concurrent use.
type SymbolTable struct {
	order     []string
	relations map[string]types.Schema
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{relations: make(map[string]types.Schema)}
}

// Scoped builds a symbol table holding only the given bindings. It is used
// to restrict what join conditions and select expressions can see. A later
// binding with the same name replaces an earlier one.
func Scoped(bindings ...Binding) *SymbolTable {
	st := NewSymbolTable()
	for _, b := range bindings {
		st.put(b.Name, b.Schema)
	}
	return st
}

// Define registers a new relation.
func (st *SymbolTable) Define(name string, schema types.Schema) error {
	if st.Has(name) {
		return &types.RedefinedNameError{Name: name}
	}
	st.put(name, schema)
	return nil
}

func (st *SymbolTable) put(name string, schema types.Schema) {
	if _, ok := st.relations[name]; !ok {
		st.order = append(st.order, name)
	}
	st.relations[name] = schema
}

// Lookup retrieves the schema of a relation if present.
func (st *SymbolTable) Lookup(name string) (types.Schema, bool) {
	schema, ok := st.relations[name]
	return schema, ok
}

// Has reports whether the relation is defined.
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.relations[name]
	return ok
}

// Resolve returns the schema of a relation or a NameMissingError.
func (st *SymbolTable) Resolve(name string) (types.Schema, error) {
	schema, ok := st.relations[name]
	if !ok {
		return types.Schema{}, &types.NameMissingError{Name: name}
	}
	return schema, nil
}

// ResolveColumn returns the type of table.column or a NameMissingError
// naming whichever part is undefined.
func (st *SymbolTable) ResolveColumn(table, column string) (types.BaseType, error) {
	schema, err := st.Resolve(table)
	if err != nil {
		return 0, err
	}
	typ, ok := schema.Lookup(column)
	if !ok {
		return 0, &types.NameMissingError{Name: table + "." + column}
	}
	return typ, nil
}

// Len returns the number of relations.
func (st *SymbolTable) Len() int {
	return len(st.order)
}

// Names returns relation names in definition order.
func (st *SymbolTable) Names() []string {
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

// Bindings returns every relation in name order.
func (st *SymbolTable) Bindings() []Binding {
	names := st.Names()
	sort.Strings(names)
	result := make([]Binding, 0, len(names))
	for _, name := range names {
		result = append(result, Binding{Name: name, Schema: st.relations[name]})
	}
	return result
}
