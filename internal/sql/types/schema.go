package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Field is a single named column of a Schema.
type Field struct {
	Name string
	Type BaseType
}

// Schema is an insertion-ordered mapping from column name to BaseType.
// Schemas are never modified after construction; every operation returns a
// new value. The zero value is the empty schema.
type Schema struct {
	names []string
	types map[string]BaseType
}

func (Schema) isType() {}

// NewSchema builds a schema from fields in order. A field whose name was
// already seen replaces the earlier type but keeps the earlier position.
func NewSchema(fields ...Field) Schema {
	b := newBuilder(len(fields))
	for _, f := range fields {
		b.set(f.Name, f.Type)
	}
	return b.schema()
}

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s.names)
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Fields returns the columns in order.
func (s Schema) Fields() []Field {
	return lo.Map(s.names, func(name string, _ int) Field {
		return Field{Name: name, Type: s.types[name]}
	})
}

// Lookup returns the type of the named column.
func (s Schema) Lookup(name string) (BaseType, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Has reports whether the schema defines the named column.
func (s Schema) Has(name string) bool {
	_, ok := s.types[name]
	return ok
}

// IsSubtype reports whether every column of other exists in s with the
// same type. The receiver is the ambient schema; other is what an
// expression or query needs from it.
func (s Schema) IsSubtype(other Schema) bool {
	for _, name := range other.names {
		t, ok := s.types[name]
		if !ok || t != other.types[name] {
			return false
		}
	}
	return true
}

// Identical reports exact equality: same names, same order, same types.
func (s Schema) Identical(other Schema) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i, name := range s.names {
		if other.names[i] != name || other.types[name] != s.types[name] {
			return false
		}
	}
	return true
}

// Expand qualifies every column as "table.column".
func (s Schema) Expand(table string) Schema {
	b := newBuilder(len(s.names))
	for _, name := range s.names {
		b.set(table+"."+name, s.types[name])
	}
	return b.schema()
}

// Simplify strips the qualifier (everything up to the first ".") from each
// column whose unqualified name is unique in the schema. Columns whose
// unqualified names collide stay fully qualified.
func (s Schema) Simplify() Schema {
	counts := make(map[string]int, len(s.names))
	for _, name := range s.names {
		counts[unqualified(name)]++
	}
	b := newBuilder(len(s.names))
	for _, name := range s.names {
		short := unqualified(name)
		if counts[short] > 1 {
			b.set(name, s.types[name])
			continue
		}
		b.set(short, s.types[name])
	}
	return b.schema()
}

func unqualified(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func (s Schema) String() string {
	parts := lo.Map(s.names, func(name string, _ int) string {
		return fmt.Sprintf("%s: %s", name, s.types[name])
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

// Concat merges right into left. A column present on both sides must have
// the same type and is kept once, at its left position.
func Concat(left, right Schema) (Schema, error) {
	b := newBuilder(len(left.names) + len(right.names))
	for _, name := range left.names {
		b.set(name, left.types[name])
	}
	for _, name := range right.names {
		typ := right.types[name]
		if prev, ok := left.types[name]; ok {
			if prev != typ {
				return Schema{}, &SchemaConcatConflictError{Field: name, Previous: prev, New: typ}
			}
			continue
		}
		b.set(name, typ)
	}
	return b.schema(), nil
}

// ConcatAll merges left and right keeping every column. Each name that
// occurs on both sides is suffixed _1, _2, ... in order of appearance;
// names that occur once pass through unchanged.
func ConcatAll(left, right Schema) Schema {
	total := make(map[string]int, len(left.names)+len(right.names))
	for _, name := range left.names {
		total[name]++
	}
	for _, name := range right.names {
		total[name]++
	}
	seen := make(map[string]int, len(total))
	b := newBuilder(len(left.names) + len(right.names))
	add := func(name string, typ BaseType) {
		if total[name] > 1 {
			seen[name]++
			b.set(fmt.Sprintf("%s_%d", name, seen[name]), typ)
			return
		}
		b.set(name, typ)
	}
	for _, name := range left.names {
		add(name, left.types[name])
	}
	for _, name := range right.names {
		add(name, right.types[name])
	}
	return b.schema()
}

// Equivalent reports whether two schemas hold the same multiset of column
// types. Column names and order are ignored: UNION and INTERSECT line
// operands up by position and type, so {a: INT} and {b: INT} are
// equivalent while {a: INT} and {a: BOOL} are not.
func Equivalent(left, right Schema) bool {
	if len(left.names) != len(right.names) {
		return false
	}
	want := typeCounts(left)
	got := typeCounts(right)
	if len(want) != len(got) {
		return false
	}
	for typ, n := range want {
		if got[typ] != n {
			return false
		}
	}
	return true
}

func typeCounts(s Schema) map[BaseType]int {
	return lo.Reduce(s.names, func(acc map[BaseType]int, name string, _ int) map[BaseType]int {
		acc[s.types[name]]++
		return acc
	}, make(map[BaseType]int))
}

// MergeFields pairs the columns of left and right by position. Each output
// column is named "leftName_rightName" and keeps the left column's type.
func MergeFields(left, right Schema) Schema {
	n := len(left.names)
	if len(right.names) < n {
		n = len(right.names)
	}
	b := newBuilder(n)
	for i := 0; i < n; i++ {
		name := left.names[i]
		b.set(name+"_"+right.names[i], left.types[name])
	}
	return b.schema()
}

type builder struct {
	names []string
	types map[string]BaseType
}

func newBuilder(capacity int) *builder {
	return &builder{
		names: make([]string, 0, capacity),
		types: make(map[string]BaseType, capacity),
	}
}

func (b *builder) set(name string, typ BaseType) {
	if _, ok := b.types[name]; !ok {
		b.names = append(b.names, name)
	}
	b.types[name] = typ
}

func (b *builder) schema() Schema {
	return Schema{names: b.names, types: b.types}
}
