package parser_test

import (
	"strings"
	"testing"

	"github.com/example/relcheck/internal/sql/parser"
	"github.com/example/relcheck/internal/sql/types"
)

func parseQuery(t *testing.T, src string) parser.Query {
	t.Helper()
	stmt, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	qs, ok := stmt.(*parser.QueryStmt)
	if !ok {
		t.Fatalf("expected QueryStmt, got %T", stmt)
	}
	return qs.Query
}

func TestCreateTableParsing(t *testing.T) {
	stmt, err := parser.Parse("create table student(student_id INT, name varchar, graduate BOOL);")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	create, ok := stmt.(*parser.CreateTableStmt)
	if !ok {
		t.Fatalf("expected CreateTableStmt, got %T", stmt)
	}
	if create.Name != "student" {
		t.Fatalf("expected table student, got %q", create.Name)
	}
	want := []parser.ColumnDef{
		{Name: "student_id", Type: types.Int},
		{Name: "name", Type: types.VarChar},
		{Name: "graduate", Type: types.Bool},
	}
	if len(create.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(create.Columns))
	}
	for i, col := range want {
		if create.Columns[i] != col {
			t.Fatalf("column %d: expected %+v, got %+v", i, col, create.Columns[i])
		}
	}
}

func TestCreateTableRejectsUnknownType(t *testing.T) {
	if _, err := parser.Parse("CREATE TABLE t(a FLOAT)"); err == nil {
		t.Fatalf("expected error for unknown column type")
	}
}

func TestSelectProjectionParsing(t *testing.T) {
	q := parseQuery(t, `SELECT s.student_id, CONCAT(s.name, "!"), s.year + -4 AS start_year, NOT s.graduate AS undergraduate FROM student AS s`)
	sel, ok := q.(*parser.SelectQuery)
	if !ok {
		t.Fatalf("expected SelectQuery, got %T", q)
	}
	if len(sel.Items) != 4 {
		t.Fatalf("expected 4 select items, got %d", len(sel.Items))
	}

	first := sel.Items[0]
	if first.Alias.IsPresent() {
		t.Fatalf("expected no alias for first item")
	}
	if col, ok := first.Expr.(*parser.ColumnRef); !ok || col.Table != "s" || col.Name != "student_id" {
		t.Fatalf("expected column reference s.student_id, got %#v", first.Expr)
	}

	concat, ok := sel.Items[1].Expr.(*parser.ConcatExpr)
	if !ok {
		t.Fatalf("expected CONCAT, got %T", sel.Items[1].Expr)
	}
	if lit, ok := concat.Right.(*parser.VarCharLiteral); !ok || lit.Value != "!" {
		t.Fatalf("expected string literal !, got %#v", concat.Right)
	}

	third := sel.Items[2]
	if alias := third.Alias.OrEmpty(); alias != "start_year" {
		t.Fatalf("expected alias start_year, got %q", alias)
	}
	binary, ok := third.Expr.(*parser.BinaryExpr)
	if !ok || binary.Op != parser.BinaryAdd {
		t.Fatalf("expected binary addition, got %#v", third.Expr)
	}
	if lit, ok := binary.Right.(*parser.IntLiteral); !ok || lit.Value != -4 {
		t.Fatalf("expected literal -4 on right side, got %#v", binary.Right)
	}

	if _, ok := sel.Items[3].Expr.(*parser.NotExpr); !ok {
		t.Fatalf("expected NOT, got %T", sel.Items[3].Expr)
	}

	table, ok := sel.From.(*parser.TableRef)
	if !ok || table.Name != "student" || table.OutputName() != "s" {
		t.Fatalf("expected FROM student AS s, got %#v", sel.From)
	}
}

func TestSelectClausesParsing(t *testing.T) {
	q := parseQuery(t, "SELECT e.course_id, COUNT(e.student_id) FROM enrolled AS e WHERE e.grade < 90 GROUP BY e.course_id HAVING 1 < COUNT(e.student_id)")
	sel := q.(*parser.SelectQuery)
	if sel.Where == nil {
		t.Fatalf("expected WHERE clause")
	}
	if len(sel.GroupBy) != 1 {
		t.Fatalf("expected one GROUP BY expression, got %d", len(sel.GroupBy))
	}
	if !parser.EqualExpr(sel.GroupBy[0], &parser.ColumnRef{Table: "e", Name: "course_id"}) {
		t.Fatalf("unexpected GROUP BY expression %#v", sel.GroupBy[0])
	}
	having, ok := sel.Having.(*parser.BinaryExpr)
	if !ok || having.Op != parser.BinaryLess {
		t.Fatalf("expected HAVING comparison, got %#v", sel.Having)
	}
	if agg, ok := having.Right.(*parser.AggregateExpr); !ok || agg.Op != parser.AggCount {
		t.Fatalf("expected COUNT aggregate, got %#v", having.Right)
	}
}

func TestHavingRequiresGroupBy(t *testing.T) {
	_, err := parser.Parse("SELECT s.a FROM t AS s HAVING s.a = 1")
	if err == nil || !strings.Contains(err.Error(), "HAVING") {
		t.Fatalf("expected HAVING error, got %v", err)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	q := parseQuery(t, "SELECT NOT s.a + s.b * 2 = s.c AND s.d FROM t AS s")
	expr := q.(*parser.SelectQuery).Items[0].Expr
	and, ok := expr.(*parser.BinaryExpr)
	if !ok || and.Op != parser.BinaryAnd {
		t.Fatalf("expected AND at the root, got %#v", expr)
	}
	not, ok := and.Left.(*parser.NotExpr)
	if !ok {
		t.Fatalf("expected NOT under AND, got %#v", and.Left)
	}
	eq, ok := not.Expr.(*parser.BinaryExpr)
	if !ok || eq.Op != parser.BinaryEqual {
		t.Fatalf("expected = under NOT, got %#v", not.Expr)
	}
	add, ok := eq.Left.(*parser.BinaryExpr)
	if !ok || add.Op != parser.BinaryAdd {
		t.Fatalf("expected + under =, got %#v", eq.Left)
	}
	if mul, ok := add.Right.(*parser.BinaryExpr); !ok || mul.Op != parser.BinaryMultiply {
		t.Fatalf("expected * under +, got %#v", add.Right)
	}
	if got := parser.FormatExpression(expr); got != "NOT s.a + s.b * 2 = s.c AND s.d" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestJoinParsing(t *testing.T) {
	q := parseQuery(t, "student JOIN enrolled ON student.student_id = enrolled.student_id AS s_e")
	join, ok := q.(*parser.JoinQuery)
	if !ok {
		t.Fatalf("expected JoinQuery, got %T", q)
	}
	if join.Alias != "s_e" {
		t.Fatalf("expected alias s_e, got %q", join.Alias)
	}
	if left, ok := join.Left.(*parser.TableRef); !ok || left.Name != "student" {
		t.Fatalf("unexpected left side %#v", join.Left)
	}
	if right, ok := join.Right.(*parser.TableRef); !ok || right.Name != "enrolled" {
		t.Fatalf("unexpected right side %#v", join.Right)
	}
}

func TestDottedColumnAfterJoin(t *testing.T) {
	q := parseQuery(t, "SELECT s_e.student.student_id FROM a JOIN b ON a.x = b.x AS s_e")
	col, ok := q.(*parser.SelectQuery).Items[0].Expr.(*parser.ColumnRef)
	if !ok {
		t.Fatalf("expected column reference")
	}
	if col.Table != "s_e" || col.Name != "student.student_id" {
		t.Fatalf("expected s_e / student.student_id, got %s / %s", col.Table, col.Name)
	}
	if parser.ColumnName(col) != "student.student_id" {
		t.Fatalf("unexpected derived name %q", parser.ColumnName(col))
	}
}

func TestSetOperationParsing(t *testing.T) {
	q := parseQuery(t, "a UNION b INTERSECT c UNION (d)")
	union, ok := q.(*parser.UnionQuery)
	if !ok {
		t.Fatalf("expected UnionQuery, got %T", q)
	}
	if len(union.Queries) != 3 {
		t.Fatalf("expected 3 union operands, got %d", len(union.Queries))
	}
	intersect, ok := union.Queries[1].(*parser.IntersectQuery)
	if !ok || len(intersect.Queries) != 2 {
		t.Fatalf("expected INTERSECT to bind tighter than UNION, got %#v", union.Queries[1])
	}
	if table, ok := union.Queries[2].(*parser.TableRef); !ok || table.Name != "d" {
		t.Fatalf("expected parenthesised table d, got %#v", union.Queries[2])
	}
}

func TestParseScript(t *testing.T) {
	seq, err := parser.ParseScript(`
		CREATE TABLE student(student_id INT, name VARCHAR);
		;
		SELECT s.name FROM student AS s;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(seq.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(seq.Statements))
	}
	if _, ok := seq.Statements[0].(*parser.CreateTableStmt); !ok {
		t.Fatalf("expected CreateTableStmt first, got %T", seq.Statements[0])
	}

	empty, err := parser.ParseScript("  ")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if len(empty.Statements) != 0 {
		t.Fatalf("expected empty sequence")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unqualified column": "SELECT name FROM student",
		"missing join alias": "a JOIN b ON a.x = b.x",
		"fraction":           "SELECT 1.5 FROM t",
		"overflow":           "SELECT 99999999999999999999 FROM t",
		"unknown function":   "SELECT UPPER(s.name) FROM t AS s",
		"arity":              "SELECT SUBSTR(s.name, 1) FROM t AS s",
		"trailing input":     "SELECT s.a FROM t AS s s",
		"illegal character":  "SELECT s.a FROM t AS s WHERE s.a ? 1",
		"keyword as table":   "SELECT s.a FROM select",
		"two statements":     "a; b",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(src)
			if err == nil {
				t.Fatalf("expected error for %q", src)
			}
			if !strings.HasPrefix(err.Error(), "parser: ") {
				t.Fatalf("expected parser error prefix, got %v", err)
			}
		})
	}
}

func TestFunctionNamesAreNotReserved(t *testing.T) {
	q := parseQuery(t, "SELECT count.min FROM count")
	col := q.(*parser.SelectQuery).Items[0].Expr.(*parser.ColumnRef)
	if col.Table != "count" || col.Name != "min" {
		t.Fatalf("expected count.min, got %#v", col)
	}
}

func TestColumnNames(t *testing.T) {
	q := parseQuery(t, `SELECT s.year + 4, MIN(s.gpa), NOT s.graduate, SUBSTR(s.name, 0, 3),
		CONCAT(s.name, "!"), s.a * s.b, s.a = s.b, s.a < 2, TRUE AND s.g, -7, 'x' FROM s`)
	want := []string{
		"year_plus_4",
		"min_gpa",
		"not_graduate",
		"substr_name_0_3",
		"name_!",
		"a_times_b",
		"a_equals_b",
		"a_lessthan_2",
		"true_and_g",
		"-7",
		"x",
	}
	items := q.(*parser.SelectQuery).Items
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		if got := parser.ColumnName(item.Expr); got != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], got)
		}
	}
}

func TestCreateTableAcceptsKeywordColumns(t *testing.T) {
	stmt, err := parser.Parse("CREATE TABLE t(on INT, select BOOL, count VARCHAR)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cols := stmt.(*parser.CreateTableStmt).Columns
	if len(cols) != 3 || cols[0].Name != "on" || cols[1].Name != "select" || cols[2].Type != types.VarChar {
		t.Fatalf("unexpected columns %+v", cols)
	}
	if _, err := parser.Parse("CREATE TABLE select(a INT)"); err == nil {
		t.Fatalf("expected error for keyword table name")
	}
}

func TestFormatQueryRoundTrip(t *testing.T) {
	inputs := []string{
		"student AS s",
		"SELECT s.a AS x, COUNT(s.b) FROM (t JOIN u ON t.id = u.id AS s) WHERE 50 < s.a GROUP BY s.a HAVING COUNT(s.b) < 3",
		"(SELECT c.id FROM course AS c) JOIN (SELECT e.id FROM enrolled AS e) ON c.id = e.id AS c_e",
		"a UNION (b INTERSECT c) UNION d",
	}
	for _, src := range inputs {
		first := parser.FormatQuery(parseQuery(t, src))
		second := parser.FormatQuery(parseQuery(t, first))
		if first != second {
			t.Fatalf("format of %q is not stable:\n%s\n%s", src, first, second)
		}
	}
	got := parser.FormatQuery(parseQuery(t, "SELECT s.a FROM t AS s WHERE s.b"))
	if got != "SELECT s.a FROM t AS s WHERE s.b" {
		t.Fatalf("unexpected rendering %q", got)
	}
}
