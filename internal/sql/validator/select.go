package validator

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

type selectChecker struct {
	st   *catalog.SymbolTable
	stmt *parser.SelectQuery

	from     Relation
	outputs  types.Schema
	internal types.Schema
}

func newSelectChecker(st *catalog.SymbolTable, stmt *parser.SelectQuery) *selectChecker {
	return &selectChecker{st: st, stmt: stmt}
}

func (c *selectChecker) check() (Relation, error) {
	from, err := CheckQuery(c.st, c.stmt.From)
	if err != nil {
		return Relation{}, err
	}
	c.from = from

	if err := c.buildOutputs(); err != nil {
		return Relation{}, err
	}
	// Clauses see the source columns plus the select list under its
	// output names.
	if c.internal, err = types.Concat(c.from.Schema, c.outputs); err != nil {
		return Relation{}, err
	}

	if c.stmt.Where != nil {
		if err := c.checkCondition(c.stmt.Where); err != nil {
			return Relation{}, err
		}
	}
	if len(c.stmt.GroupBy) > 0 {
		if err := c.checkGrouping(); err != nil {
			return Relation{}, err
		}
	} else if c.stmt.Having != nil {
		return Relation{}, &types.AggregationMismatchError{Message: "HAVING requires GROUP BY"}
	}
	return Relation{Name: c.from.Name, Schema: c.outputs}, nil
}

func (c *selectChecker) buildOutputs() error {
	scope := catalog.Scoped(catalog.Binding{Name: c.from.Name, Schema: c.from.Schema})
	expanded := c.from.Schema.Expand(c.from.Name)
	fields := make([]types.Field, 0, len(c.stmt.Items))
	for _, item := range c.stmt.Items {
		typed, err := CheckExpr(scope, item.Expr)
		if err != nil {
			return err
		}
		if !expanded.IsSubtype(typed.Inputs) {
			return &types.TypeMismatchError{Want: expanded, Got: typed.Inputs}
		}
		name := item.Alias.OrElse(parser.ColumnName(item.Expr))
		fields = append(fields, types.Field{Name: name, Type: typed.Output})
	}
	c.outputs = types.NewSchema(fields...)
	return nil
}

// checkClause type-checks a WHERE, GROUP BY or HAVING expression against the
// internal schema.
func (c *selectChecker) checkClause(node parser.Expr) (types.Expression, error) {
	scope := catalog.Scoped(catalog.Binding{Name: c.from.Name, Schema: c.internal})
	typed, err := CheckExpr(scope, node)
	if err != nil {
		return types.Expression{}, err
	}
	inputs := typed.Inputs.Simplify()
	if !c.internal.IsSubtype(inputs) && !c.internal.Simplify().IsSubtype(inputs) {
		return types.Expression{}, &types.TypeMismatchError{Want: c.internal, Got: inputs}
	}
	return typed, nil
}

func (c *selectChecker) checkCondition(node parser.Expr) error {
	typed, err := c.checkClause(node)
	if err != nil {
		return err
	}
	return expectType(types.Bool, typed.Output)
}

func (c *selectChecker) checkGrouping() error {
	for _, group := range c.stmt.GroupBy {
		if _, err := c.checkClause(group); err != nil {
			return err
		}
	}

	exprs := lo.Map(c.stmt.Items, func(item parser.SelectItem, _ int) parser.Expr {
		return item.Expr
	})
	for _, node := range exprs {
		if err := c.requireStatus(node, "select expression", types.NotAggregated); err != nil {
			return err
		}
	}

	if c.stmt.Having != nil {
		if err := c.checkCondition(c.stmt.Having); err != nil {
			return err
		}
		if err := c.requireStatus(c.stmt.Having, "HAVING condition", types.NotAggregated); err != nil {
			return err
		}
	}

	if c.stmt.Where != nil {
		return c.requireStatus(c.stmt.Where, "WHERE condition", types.Aggregated)
	}
	return nil
}

// requireStatus fails when node has the forbidden aggregation status.
func (c *selectChecker) requireStatus(node parser.Expr, what string, forbidden types.AggregationStatus) error {
	status, err := AggregationStatus(node, c.stmt.GroupBy)
	if err != nil {
		return err
	}
	if status == forbidden {
		return &types.AggregationMismatchError{
			Message: fmt.Sprintf("%s %s is %s", what, parser.FormatExpression(node), status),
		}
	}
	return nil
}
