// Package prompt builds the system prompt that tells the model which table it
// can query.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

// Column is one column of the queryable table.
type Column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// TableSchema describes the table the assistant targets when writing SQL.
type TableSchema struct {
	Dataset     string   `yaml:"dataset"`
	Table       string   `yaml:"table"`
	Description string   `yaml:"description"`
	Columns     []Column `yaml:"columns"`
}

// DefaultSchema returns the built-in car_service_leads.leads schema.
func DefaultSchema() TableSchema {
	schema, err := ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("embedded schema: %v", err))
	}
	return schema
}

// LoadSchema reads a schema file, falling back to the built-in schema when path is empty.
func LoadSchema(path string) (TableSchema, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TableSchema{}, fmt.Errorf("read schema: %w", err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return TableSchema{}, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return schema, nil
}

// ParseSchema decodes a YAML table schema.
func ParseSchema(data []byte) (TableSchema, error) {
	var schema TableSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return TableSchema{}, err
	}
	schema.Dataset = strings.TrimSpace(schema.Dataset)
	schema.Table = strings.TrimSpace(schema.Table)
	if schema.Dataset == "" || schema.Table == "" {
		return TableSchema{}, errors.New("dataset and table are required")
	}
	if len(schema.Columns) == 0 {
		return TableSchema{}, errors.New("at least one column is required")
	}
	for i, col := range schema.Columns {
		if strings.TrimSpace(col.Name) == "" {
			return TableSchema{}, fmt.Errorf("column %d has no name", i)
		}
	}
	return schema, nil
}

// BuildSystemPrompt renders the fixed assistant role plus the table layout.
func BuildSystemPrompt(schema TableSchema) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant for a car service agency. ")
	sb.WriteString("You can execute SQL queries on a BigQuery database and provide natural language responses based on the data. ")
	sb.WriteString(fmt.Sprintf("The database schema includes a '%s' dataset with a '%s' table. ", schema.Dataset, schema.Table))
	sb.WriteString(fmt.Sprintf("The '%s' table has the following columns: %s.", schema.Table, columnList(schema.Columns)))
	if desc := strings.TrimSpace(schema.Description); desc != "" {
		sb.WriteString(" ")
		sb.WriteString(desc)
	}
	return strings.TrimSpace(sb.String())
}

// columnList renders "a (T), b (T), and c (T)".
func columnList(columns []Column) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		entry := strings.TrimSpace(col.Name)
		if typ := strings.TrimSpace(col.Type); typ != "" {
			entry += " (" + strings.ToUpper(typ) + ")"
		}
		parts = append(parts, entry)
	}
	if len(parts) < 2 {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}
