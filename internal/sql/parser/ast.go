package parser

import (
	"github.com/samber/mo"

	"github.com/example/relcheck/internal/sql/types"
)

// Statement represents a parsed statement.
type Statement interface {
	stmt()
}

// ColumnDef models a column definition in CREATE TABLE.
type ColumnDef struct {
	Name string
	Type types.BaseType
}

// CreateTableStmt represents a CREATE TABLE statement.
type CreateTableStmt struct {
	Name    string
	Columns []ColumnDef
}

func (*CreateTableStmt) stmt() {}

// QueryStmt is a query used as a statement.
type QueryStmt struct {
	Query Query
}

func (*QueryStmt) stmt() {}

// SequenceStmt is a list of statements evaluated left to right.
type SequenceStmt struct {
	Statements []Statement
}

func (*SequenceStmt) stmt() {}

// Query represents a relation-valued expression.
type Query interface {
	query()
}

// TableRef names a declared relation, optionally under an alias.
type TableRef struct {
	Name  string
	Alias mo.Option[string]
}

func (*TableRef) query() {}

// OutputName is the alias if present, the table name otherwise.
func (t *TableRef) OutputName() string {
	return t.Alias.OrElse(t.Name)
}

// JoinQuery joins two relations under a new name.
type JoinQuery struct {
	Left      Query
	Right     Query
	Condition Expr
	Alias     string
}

func (*JoinQuery) query() {}

// SelectItem is one entry of a SELECT list.
type SelectItem struct {
	Expr  Expr
	Alias mo.Option[string]
}

// SelectQuery models SELECT ... FROM ... with optional clauses. Where and
// Having are nil when absent; GroupBy is empty when absent.
type SelectQuery struct {
	Items   []SelectItem
	From    Query
	Where   Expr
	GroupBy []Expr
	Having  Expr
}

func (*SelectQuery) query() {}

// UnionQuery combines two or more relations with UNION.
type UnionQuery struct {
	Queries []Query
}

func (*UnionQuery) query() {}

// IntersectQuery combines two or more relations with INTERSECT.
type IntersectQuery struct {
	Queries []Query
}

func (*IntersectQuery) query() {}

// Expr represents a scalar expression.
type Expr interface {
	expr()
}

// ColumnRef references Table.Name. Name may itself be dotted when the
// relation came out of a join, e.g. s_e.student.student_id.
type ColumnRef struct {
	Table string
	Name  string
}

func (*ColumnRef) expr() {}

// IntLiteral is an integer constant.
type IntLiteral struct {
	Value int64
}

func (*IntLiteral) expr() {}

// BoolLiteral is TRUE or FALSE.
type BoolLiteral struct {
	Value bool
}

func (*BoolLiteral) expr() {}

// VarCharLiteral is a quoted string constant.
type VarCharLiteral struct {
	Value string
}

func (*VarCharLiteral) expr() {}

// ConcatExpr is CONCAT(left, right).
type ConcatExpr struct {
	Left  Expr
	Right Expr
}

func (*ConcatExpr) expr() {}

// SubstrExpr is SUBSTR(input, start, end).
type SubstrExpr struct {
	Input Expr
	Start Expr
	End   Expr
}

func (*SubstrExpr) expr() {}

// BinaryOp enumerates binary operators.
type BinaryOp string

const (
	BinaryMultiply BinaryOp = "*"
	BinaryAdd      BinaryOp = "+"
	BinaryAnd      BinaryOp = "AND"
	BinaryEqual    BinaryOp = "="
	BinaryLess     BinaryOp = "<"
)

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (*BinaryExpr) expr() {}

// NotExpr negates the result of its operand.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) expr() {}

// AggOp enumerates aggregate functions.
type AggOp string

const (
	AggMin   AggOp = "MIN"
	AggMax   AggOp = "MAX"
	AggAvg   AggOp = "AVG"
	AggCount AggOp = "COUNT"
)

// AggregateExpr applies an aggregate function.
type AggregateExpr struct {
	Op   AggOp
	Expr Expr
}

func (*AggregateExpr) expr() {}

// EqualExpr reports whether two expression trees are structurally equal.
func EqualExpr(a, b Expr) bool {
	switch x := a.(type) {
	case *ColumnRef:
		y, ok := b.(*ColumnRef)
		return ok && x.Table == y.Table && x.Name == y.Name
	case *IntLiteral:
		y, ok := b.(*IntLiteral)
		return ok && x.Value == y.Value
	case *BoolLiteral:
		y, ok := b.(*BoolLiteral)
		return ok && x.Value == y.Value
	case *VarCharLiteral:
		y, ok := b.(*VarCharLiteral)
		return ok && x.Value == y.Value
	case *ConcatExpr:
		y, ok := b.(*ConcatExpr)
		return ok && EqualExpr(x.Left, y.Left) && EqualExpr(x.Right, y.Right)
	case *SubstrExpr:
		y, ok := b.(*SubstrExpr)
		return ok && EqualExpr(x.Input, y.Input) && EqualExpr(x.Start, y.Start) && EqualExpr(x.End, y.End)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && EqualExpr(x.Left, y.Left) && EqualExpr(x.Right, y.Right)
	case *NotExpr:
		y, ok := b.(*NotExpr)
		return ok && EqualExpr(x.Expr, y.Expr)
	case *AggregateExpr:
		y, ok := b.(*AggregateExpr)
		return ok && x.Op == y.Op && EqualExpr(x.Expr, y.Expr)
	case nil:
		return b == nil
	default:
		return false
	}
}
