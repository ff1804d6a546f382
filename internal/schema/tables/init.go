// Package tables registers the built-in table definitions with the schema
// registry. Import it for side effects to make them available to a catalog
// built over schema.RegistrySource.
package tables

import "github.com/JonMunkholm/synthedata/internal/schema"

func num(v float64) *float64 { return &v }

func places(n int) *int { return &n }

func text(name, pattern string) schema.FieldDef {
	return schema.FieldDef{Name: name, Type: "string", Pattern: pattern}
}

func ref(name, target string) schema.FieldDef {
	return schema.FieldDef{Name: name, Type: "foreign_key", References: target}
}
