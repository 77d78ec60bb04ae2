package parser

import (
	"strconv"
	"strings"
)

var binaryOpNames = map[BinaryOp]string{
	BinaryMultiply: "times",
	BinaryAdd:      "plus",
	BinaryAnd:      "and",
	BinaryEqual:    "equals",
	BinaryLess:     "lessthan",
}

// ColumnName derives the output column name of an unaliased SELECT item,
// e.g. s.year + 4 becomes year_plus_4 and MIN(s.gpa) becomes min_gpa.
func ColumnName(expr Expr) string {
	switch e := expr.(type) {
	case *ColumnRef:
		return e.Name
	case *IntLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *BoolLiteral:
		return strconv.FormatBool(e.Value)
	case *VarCharLiteral:
		return e.Value
	case *ConcatExpr:
		return ColumnName(e.Left) + "_" + ColumnName(e.Right)
	case *SubstrExpr:
		return "substr_" + ColumnName(e.Input) + "_" + ColumnName(e.Start) + "_" + ColumnName(e.End)
	case *BinaryExpr:
		return ColumnName(e.Left) + "_" + binaryOpNames[e.Op] + "_" + ColumnName(e.Right)
	case *NotExpr:
		return "not_" + ColumnName(e.Expr)
	case *AggregateExpr:
		return strings.ToLower(string(e.Op)) + "_" + ColumnName(e.Expr)
	default:
		return "?"
	}
}

const (
	lowestPrecedence = iota
	andPrecedence
	notPrecedence
	comparisonPrecedence
	additivePrecedence
	multiplicativePrecedence
)

// FormatExpression renders the expression as SQL text for diagnostics.
func FormatExpression(expr Expr) string {
	return formatExpressionWithPrecedence(expr, lowestPrecedence)
}

func formatExpressionWithPrecedence(expr Expr, parent int) string {
	switch e := expr.(type) {
	case *ColumnRef:
		return e.Table + "." + e.Name
	case *IntLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *BoolLiteral:
		if e.Value {
			return "TRUE"
		}
		return "FALSE"
	case *VarCharLiteral:
		return `"` + strings.ReplaceAll(e.Value, `"`, `""`) + `"`
	case *ConcatExpr:
		return "CONCAT(" + FormatExpression(e.Left) + ", " + FormatExpression(e.Right) + ")"
	case *SubstrExpr:
		return "SUBSTR(" + FormatExpression(e.Input) + ", " + FormatExpression(e.Start) + ", " + FormatExpression(e.End) + ")"
	case *AggregateExpr:
		return string(e.Op) + "(" + FormatExpression(e.Expr) + ")"
	case *NotExpr:
		text := "NOT " + formatExpressionWithPrecedence(e.Expr, notPrecedence+1)
		if notPrecedence < parent {
			return "(" + text + ")"
		}
		return text
	case *BinaryExpr:
		prec := precedenceForBinary(e.Op)
		left := formatExpressionWithPrecedence(e.Left, prec)
		right := formatExpressionWithPrecedence(e.Right, prec+1)
		text := left + " " + string(e.Op) + " " + right
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	default:
		return "<expr>"
	}
}

func precedenceForBinary(op BinaryOp) int {
	switch op {
	case BinaryAnd:
		return andPrecedence
	case BinaryEqual, BinaryLess:
		return comparisonPrecedence
	case BinaryMultiply:
		return multiplicativePrecedence
	default:
		return additivePrecedence
	}
}

// FormatQuery renders a query as SQL text for diagnostics.
func FormatQuery(query Query) string {
	switch q := query.(type) {
	case *TableRef:
		if alias, ok := q.Alias.Get(); ok {
			return q.Name + " AS " + alias
		}
		return q.Name
	case *JoinQuery:
		return formatOperand(q.Left) + " JOIN " + formatOperand(q.Right) + " ON " + FormatExpression(q.Condition) + " AS " + q.Alias
	case *SelectQuery:
		items := make([]string, len(q.Items))
		for i, item := range q.Items {
			items[i] = FormatExpression(item.Expr)
			if alias, ok := item.Alias.Get(); ok {
				items[i] += " AS " + alias
			}
		}
		text := "SELECT " + strings.Join(items, ", ") + " FROM " + formatOperand(q.From)
		if q.Where != nil {
			text += " WHERE " + FormatExpression(q.Where)
		}
		if len(q.GroupBy) > 0 {
			groups := make([]string, len(q.GroupBy))
			for i, g := range q.GroupBy {
				groups[i] = FormatExpression(g)
			}
			text += " GROUP BY " + strings.Join(groups, ", ")
		}
		if q.Having != nil {
			text += " HAVING " + FormatExpression(q.Having)
		}
		return text
	case *UnionQuery:
		return joinQueries(q.Queries, " UNION ")
	case *IntersectQuery:
		return joinQueries(q.Queries, " INTERSECT ")
	default:
		return "<query>"
	}
}

func formatOperand(query Query) string {
	if _, ok := query.(*TableRef); ok {
		return FormatQuery(query)
	}
	return "(" + FormatQuery(query) + ")"
}

func joinQueries(queries []Query, sep string) string {
	parts := make([]string, len(queries))
	for i, q := range queries {
		parts[i] = formatOperand(q)
	}
	return strings.Join(parts, sep)
}
