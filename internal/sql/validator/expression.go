package validator

import (
	"fmt"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

// CheckExpr infers the type of an expression against the relations visible
// in st. The result records every qualified column the expression reads.
func CheckExpr(st *catalog.SymbolTable, node parser.Expr) (types.Expression, error) {
	switch e := node.(type) {
	case *parser.ColumnRef:
		return checkColumn(st, e)
	case *parser.IntLiteral:
		return types.NewExpression(types.NewSchema(), types.Int), nil
	case *parser.BoolLiteral:
		return types.NewExpression(types.NewSchema(), types.Bool), nil
	case *parser.VarCharLiteral:
		return types.NewExpression(types.NewSchema(), types.VarChar), nil
	case *parser.BinaryExpr:
		return checkBinary(st, e)
	case *parser.NotExpr:
		operand, err := CheckExpr(st, e.Expr)
		if err != nil {
			return types.Expression{}, err
		}
		if err := expectType(types.Bool, operand.Output); err != nil {
			return types.Expression{}, err
		}
		return operand, nil
	case *parser.ConcatExpr:
		return checkOperands(st, types.VarChar, []operand{
			{e.Left, types.VarChar},
			{e.Right, types.VarChar},
		})
	case *parser.SubstrExpr:
		return checkOperands(st, types.VarChar, []operand{
			{e.Input, types.VarChar},
			{e.Start, types.Int},
			{e.End, types.Int},
		})
	case *parser.AggregateExpr:
		return checkAggregate(st, e)
	default:
		return types.Expression{}, fmt.Errorf("validator: unsupported expression %T", node)
	}
}

func checkColumn(st *catalog.SymbolTable, ref *parser.ColumnRef) (types.Expression, error) {
	typ, err := st.ResolveColumn(ref.Table, ref.Name)
	if err != nil {
		return types.Expression{}, err
	}
	inputs := types.NewSchema(types.Field{Name: ref.Table + "." + ref.Name, Type: typ})
	return types.Expression{Inputs: inputs, Output: typ}, nil
}

type operand struct {
	expr parser.Expr
	want types.BaseType
}

// checkOperands checks each operand against its required type and merges
// their inputs.
func checkOperands(st *catalog.SymbolTable, output types.BaseType, operands []operand) (types.Expression, error) {
	inputs := types.NewSchema()
	for _, op := range operands {
		typed, err := CheckExpr(st, op.expr)
		if err != nil {
			return types.Expression{}, err
		}
		if err := expectType(op.want, typed.Output); err != nil {
			return types.Expression{}, err
		}
		if inputs, err = types.Concat(inputs, typed.Inputs); err != nil {
			return types.Expression{}, err
		}
	}
	return types.Expression{Inputs: inputs, Output: output}, nil
}

func checkBinary(st *catalog.SymbolTable, node *parser.BinaryExpr) (types.Expression, error) {
	switch node.Op {
	case parser.BinaryAdd, parser.BinaryMultiply:
		return checkOperands(st, types.Int, []operand{{node.Left, types.Int}, {node.Right, types.Int}})
	case parser.BinaryAnd:
		return checkOperands(st, types.Bool, []operand{{node.Left, types.Bool}, {node.Right, types.Bool}})
	case parser.BinaryEqual, parser.BinaryLess:
	default:
		return types.Expression{}, fmt.Errorf("validator: unsupported binary operator %s", node.Op)
	}

	left, err := CheckExpr(st, node.Left)
	if err != nil {
		return types.Expression{}, err
	}
	right, err := CheckExpr(st, node.Right)
	if err != nil {
		return types.Expression{}, err
	}
	if node.Op == parser.BinaryLess && left.Output != types.Int && left.Output != types.VarChar {
		return types.Expression{}, &types.TypeMismatchError{Want: types.Int, Got: left.Output}
	}
	if err := expectType(left.Output, right.Output); err != nil {
		return types.Expression{}, err
	}
	inputs, err := types.Concat(left.Inputs, right.Inputs)
	if err != nil {
		return types.Expression{}, err
	}
	return types.Expression{Inputs: inputs, Output: types.Bool}, nil
}

func checkAggregate(st *catalog.SymbolTable, node *parser.AggregateExpr) (types.Expression, error) {
	typed, err := CheckExpr(st, node.Expr)
	if err != nil {
		return types.Expression{}, err
	}
	switch node.Op {
	case parser.AggMin, parser.AggMax:
		if typed.Output == types.Bool {
			return types.Expression{}, &types.TypeMismatchError{Want: types.Int, Got: types.Bool}
		}
		return typed, nil
	case parser.AggAvg:
		if err := expectType(types.Int, typed.Output); err != nil {
			return types.Expression{}, err
		}
		return typed, nil
	case parser.AggCount:
		return types.Expression{Inputs: typed.Inputs, Output: types.Int}, nil
	default:
		return types.Expression{}, fmt.Errorf("validator: unsupported aggregate %s", node.Op)
	}
}

func expectType(want, got types.BaseType) error {
	if want != got {
		return &types.TypeMismatchError{Want: want, Got: got}
	}
	return nil
}
