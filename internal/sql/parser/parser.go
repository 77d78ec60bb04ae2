package parser

import (
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"github.com/example/relcheck/internal/sql/lexer"
	"github.com/example/relcheck/internal/sql/types"
)

// Parse parses a single SQL statement into an AST.
func Parse(input string) (Statement, error) {
	p := newParser(input)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// Allow optional trailing semicolon
	if p.curToken.Type == lexer.Semicolon {
		p.nextToken()
	}
	if p.curToken.Type != lexer.EOF {
		return nil, p.unexpected()
	}
	return stmt, nil
}

// ParseScript parses a semicolon separated list of statements. Empty
// statements are skipped, so an empty script yields an empty sequence.
func ParseScript(input string) (*SequenceStmt, error) {
	p := newParser(input)
	seq := &SequenceStmt{}
	for {
		for p.curToken.Type == lexer.Semicolon {
			p.nextToken()
		}
		if p.curToken.Type == lexer.EOF {
			return seq, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		seq.Statements = append(seq.Statements, stmt)
		if p.curToken.Type != lexer.Semicolon && p.curToken.Type != lexer.EOF {
			return nil, p.unexpected()
		}
	}
}

// Parser implements a small hand-rolled recursive descent parser.
type Parser struct {
	lex       *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
}

func newParser(input string) *Parser {
	p := &Parser{lex: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.Next()
}

func (p *Parser) unexpected() error {
	if p.curToken.Type == lexer.Illegal {
		return fmt.Errorf("parser: illegal input %q at position %d", p.curToken.Literal, p.curToken.Pos)
	}
	return fmt.Errorf("parser: unexpected %s at position %d", p.curToken, p.curToken.Pos)
}

func (p *Parser) isKeyword(keyword string) bool {
	return p.curToken.Type == lexer.Ident && p.curToken.Keyword && p.curToken.Upper() == keyword
}

func (p *Parser) expectKeyword(keyword string) error {
	if !p.isKeyword(keyword) {
		return fmt.Errorf("parser: expected %s but found %s at position %d", keyword, p.curToken, p.curToken.Pos)
	}
	return nil
}

func (p *Parser) consumeKeyword(keyword string) error {
	if err := p.expectKeyword(keyword); err != nil {
		return err
	}
	p.nextToken()
	return nil
}

func (p *Parser) consume(tt lexer.TokenType) error {
	if p.curToken.Type != tt {
		return fmt.Errorf("parser: expected %s but found %s at position %d", tt, p.curToken, p.curToken.Pos)
	}
	p.nextToken()
	return nil
}

// parseName reads a non-reserved identifier.
func (p *Parser) parseName(what string) (string, error) {
	if p.curToken.Type != lexer.Ident || p.curToken.Keyword {
		return "", fmt.Errorf("parser: expected %s but found %s at position %d", what, p.curToken, p.curToken.Pos)
	}
	name := p.curToken.Literal
	p.nextToken()
	return name, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	if p.isKeyword("CREATE") {
		return p.parseCreate()
	}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return &QueryStmt{Query: q}, nil
}

func (p *Parser) parseCreate() (Statement, error) {
	if err := p.consumeKeyword("CREATE"); err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.parseName("table name")
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LParen); err != nil {
		return nil, err
	}

	cols := []ColumnDef{}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.curToken.Type == lexer.Comma {
			p.nextToken()
			continue
		}
		break
	}

	if err := p.consume(lexer.RParen); err != nil {
		return nil, err
	}
	return &CreateTableStmt{Name: name, Columns: cols}, nil
}

// parseColumnDef accepts keywords as column names; a type always follows.
func (p *Parser) parseColumnDef() (ColumnDef, error) {
	if p.curToken.Type != lexer.Ident {
		return ColumnDef{}, fmt.Errorf("parser: expected column name but found %s at position %d", p.curToken, p.curToken.Pos)
	}
	name := p.curToken.Literal
	p.nextToken()
	if p.curToken.Type != lexer.Ident {
		return ColumnDef{}, fmt.Errorf("parser: expected column type for %s at position %d", name, p.curToken.Pos)
	}
	typ, err := types.ParseBaseType(p.curToken.Literal)
	if err != nil {
		return ColumnDef{}, fmt.Errorf("parser: column %s: %w", name, err)
	}
	p.nextToken()
	return ColumnDef{Name: name, Type: typ}, nil
}

func (p *Parser) parseQuery() (Query, error) {
	first, err := p.parseIntersect()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("UNION") {
		return first, nil
	}
	union := &UnionQuery{Queries: []Query{first}}
	for p.isKeyword("UNION") {
		p.nextToken()
		next, err := p.parseIntersect()
		if err != nil {
			return nil, err
		}
		union.Queries = append(union.Queries, next)
	}
	return union, nil
}

func (p *Parser) parseIntersect() (Query, error) {
	first, err := p.parseJoin()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("INTERSECT") {
		return first, nil
	}
	intersect := &IntersectQuery{Queries: []Query{first}}
	for p.isKeyword("INTERSECT") {
		p.nextToken()
		next, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		intersect.Queries = append(intersect.Queries, next)
	}
	return intersect, nil
}

func (p *Parser) parseJoin() (Query, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("JOIN") {
		p.nextToken()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.consumeKeyword("ON"); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.consumeKeyword("AS"); err != nil {
			return nil, err
		}
		alias, err := p.parseName("join alias")
		if err != nil {
			return nil, err
		}
		left = &JoinQuery{Left: left, Right: right, Condition: cond, Alias: alias}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Query, error) {
	switch {
	case p.curToken.Type == lexer.LParen:
		p.nextToken()
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen); err != nil {
			return nil, err
		}
		return q, nil
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.curToken.Type == lexer.Ident && !p.curToken.Keyword:
		return p.parseTable()
	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) parseTable() (Query, error) {
	name, err := p.parseName("table name")
	if err != nil {
		return nil, err
	}
	ref := &TableRef{Name: name, Alias: mo.None[string]()}
	if p.isKeyword("AS") {
		p.nextToken()
		alias, err := p.parseName("table alias")
		if err != nil {
			return nil, err
		}
		ref.Alias = mo.Some(alias)
	}
	return ref, nil
}

func (p *Parser) parseSelect() (Query, error) {
	if err := p.consumeKeyword("SELECT"); err != nil {
		return nil, err
	}
	sel := &SelectQuery{}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		sel.Items = append(sel.Items, item)
		if p.curToken.Type == lexer.Comma {
			p.nextToken()
			continue
		}
		break
	}

	if err := p.consumeKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseJoin()
	if err != nil {
		return nil, err
	}
	sel.From = from

	if p.isKeyword("WHERE") {
		p.nextToken()
		if sel.Where, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}

	if p.isKeyword("GROUP") {
		p.nextToken()
		if err := p.consumeKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, expr)
			if p.curToken.Type == lexer.Comma {
				p.nextToken()
				continue
			}
			break
		}
		if p.isKeyword("HAVING") {
			p.nextToken()
			if sel.Having, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
	}
	if p.isKeyword("HAVING") {
		return nil, fmt.Errorf("parser: HAVING without GROUP BY at position %d", p.curToken.Pos)
	}
	return sel, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr, Alias: mo.None[string]()}
	if p.isKeyword("AS") {
		p.nextToken()
		alias, err := p.parseName("column alias")
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = mo.Some(alias)
	}
	return item, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinaryAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		p.nextToken()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var op BinaryOp
	switch p.curToken.Type {
	case lexer.Equal:
		op = BinaryEqual
	case lexer.Less:
		op = BinaryLess
	default:
		return left, nil
	}
	p.nextToken()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == lexer.Plus {
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinaryAdd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == lexer.Star {
		p.nextToken()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: BinaryMultiply, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.curToken
	switch tok.Type {
	case lexer.Number:
		p.nextToken()
		return parseInteger(tok.Literal, tok.Pos)
	case lexer.Minus:
		p.nextToken()
		if p.curToken.Type != lexer.Number {
			return nil, fmt.Errorf("parser: expected number after - at position %d", tok.Pos)
		}
		lit := p.curToken.Literal
		p.nextToken()
		return parseInteger("-"+lit, tok.Pos)
	case lexer.String:
		p.nextToken()
		return &VarCharLiteral{Value: tok.Literal}, nil
	case lexer.LParen:
		p.nextToken()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.Ident:
		if tok.Keyword {
			switch tok.Upper() {
			case "TRUE":
				p.nextToken()
				return &BoolLiteral{Value: true}, nil
			case "FALSE":
				p.nextToken()
				return &BoolLiteral{Value: false}, nil
			}
			return nil, p.unexpected()
		}
		if p.peekToken.Type == lexer.LParen {
			return p.parseCall()
		}
		return p.parseColumn()
	default:
		return nil, p.unexpected()
	}
}

// parseInteger validates an integer literal. Fractions and values outside
// the int64 range are rejected.
func parseInteger(lit string, pos int) (Expr, error) {
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid number %s at position %d", lit, pos)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("parser: %s is not an integer at position %d", lit, pos)
	}
	if !d.BigInt().IsInt64() {
		return nil, fmt.Errorf("parser: integer %s out of range at position %d", lit, pos)
	}
	return &IntLiteral{Value: d.IntPart()}, nil
}

func (p *Parser) parseColumn() (Expr, error) {
	table, err := p.parseName("table name")
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != lexer.Dot {
		return nil, fmt.Errorf("parser: column reference %s must be qualified as table.column at position %d", table, p.curToken.Pos)
	}
	var parts []string
	for p.curToken.Type == lexer.Dot {
		p.nextToken()
		if p.curToken.Type != lexer.Ident {
			return nil, fmt.Errorf("parser: expected column name after . at position %d", p.curToken.Pos)
		}
		parts = append(parts, p.curToken.Literal)
		p.nextToken()
	}
	return &ColumnRef{Table: table, Name: strings.Join(parts, ".")}, nil
}

func (p *Parser) parseCall() (Expr, error) {
	fn := p.curToken
	p.nextToken()
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("parser: %s expects %d arguments, got %d at position %d", fn.Upper(), n, len(args), fn.Pos)
		}
		return nil
	}
	switch fn.Upper() {
	case "CONCAT":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &ConcatExpr{Left: args[0], Right: args[1]}, nil
	case "SUBSTR":
		if err := arity(3); err != nil {
			return nil, err
		}
		return &SubstrExpr{Input: args[0], Start: args[1], End: args[2]}, nil
	case "MIN", "MAX", "AVG", "COUNT":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &AggregateExpr{Op: AggOp(fn.Upper()), Expr: args[0]}, nil
	default:
		return nil, fmt.Errorf("parser: unknown function %s at position %d", fn.Literal, fn.Pos)
	}
}

func (p *Parser) parseArguments() ([]Expr, error) {
	if err := p.consume(lexer.LParen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.curToken.Type == lexer.RParen {
		p.nextToken()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curToken.Type == lexer.Comma {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.consume(lexer.RParen); err != nil {
		return nil, err
	}
	return args, nil
}
