package validator

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

// AggregationStatus reports whether node yields one value per group or one
// value per row when grouped by groupBy.
func AggregationStatus(node parser.Expr, groupBy []parser.Expr) (types.AggregationStatus, error) {
	_, grouped := lo.Find(groupBy, func(g parser.Expr) bool {
		return parser.EqualExpr(node, g)
	})
	if grouped {
		if _, ok := node.(*parser.ColumnRef); ok {
			return types.Either, nil
		}
		return types.Aggregated, nil
	}

	switch e := node.(type) {
	case *parser.ColumnRef:
		return types.NotAggregated, nil
	case *parser.IntLiteral, *parser.BoolLiteral, *parser.VarCharLiteral:
		return types.Either, nil
	case *parser.ConcatExpr:
		return combineStatus(groupBy, e.Left, e.Right)
	case *parser.BinaryExpr:
		return combineStatus(groupBy, e.Left, e.Right)
	case *parser.NotExpr:
		return combineStatus(groupBy, e.Expr, e.Expr)
	case *parser.SubstrExpr:
		return types.NotAggregated, nil
	case *parser.AggregateExpr:
		inner, err := AggregationStatus(e.Expr, groupBy)
		if err != nil {
			return 0, err
		}
		if inner != types.NotAggregated {
			return 0, &types.AggregationMismatchError{
				Message: fmt.Sprintf("cannot aggregate %s, it is already %s", parser.FormatExpression(e.Expr), inner),
			}
		}
		return types.Aggregated, nil
	default:
		return 0, fmt.Errorf("validator: unsupported expression %T", node)
	}
}

func combineStatus(groupBy []parser.Expr, left, right parser.Expr) (types.AggregationStatus, error) {
	l, err := AggregationStatus(left, groupBy)
	if err != nil {
		return 0, err
	}
	r, err := AggregationStatus(right, groupBy)
	if err != nil {
		return 0, err
	}
	return types.Combine(l, r)
}
