package api

import (
	"encoding/json"

	"github.com/samber/lo"

	"github.com/example/relcheck/internal/catalog"
	"github.com/example/relcheck/internal/sql/types"
)

// ResultMeta summarises a check for tooling integration.
type ResultMeta struct {
	Result     TableMeta   `json:"result"`
	Tables     []TableMeta `json:"tables"`
	Statements int         `json:"statements"`
}

// TableMeta describes one relation.
type TableMeta struct {
	Name    string       `json:"name"`
	Columns []ColumnMeta `json:"columns"`
}

// ColumnMeta describes a column of a relation.
type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Describe converts a result into its JSON-friendly form.
func Describe(result *Result) ResultMeta {
	return ResultMeta{
		Result: buildTableMeta(result.Relation.Name, result.Relation.Schema),
		Tables: lo.Map(result.Tables, func(b catalog.Binding, _ int) TableMeta {
			return buildTableMeta(b.Name, b.Schema)
		}),
		Statements: result.Statements,
	}
}

// MetadataJSON returns the description of result encoded as JSON.
func MetadataJSON(result *Result) ([]byte, error) {
	return json.Marshal(Describe(result))
}

func buildTableMeta(name string, schema types.Schema) TableMeta {
	return TableMeta{
		Name: name,
		Columns: lo.Map(schema.Fields(), func(f types.Field, _ int) ColumnMeta {
			return ColumnMeta{Name: f.Name, Type: f.Type.String()}
		}),
	}
}
