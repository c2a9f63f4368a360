package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/minhyannv/sql-agent-go/pkg/warehouse"
	"github.com/openai/openai-go"
)

// ExecuteSQLName is the only tool the model can call.
const ExecuteSQLName = "execute_sql"

type executeSQLTool struct {
	ctx Context
}

func (t *executeSQLTool) name() string {
	return ExecuteSQLName
}

func (t *executeSQLTool) definition() openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        ExecuteSQLName,
			Description: openai.String("Executes a SQL query on Google BigQuery and returns the results."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"sql_query": map[string]any{
						"type":        "string",
						"description": "The SQL query to execute on BigQuery.",
					},
				},
				"required": []string{"sql_query"},
			},
		},
	}
}

func (t *executeSQLTool) execute(ctx context.Context, argText string) (Output, error) {
	sql, err := parseSQLQuery(argText)
	if err != nil {
		t.ctx.debugf("[verbose] execute_sql: %v (arguments=%q)", err, argText)
		return Output{Tool: ExecuteSQLName}, err
	}

	t.ctx.progressf("\nExecuting SQL Query: %s\n\n", sql)
	t.ctx.progressf("Starting execution of SQL query\n")
	result := warehouse.Run(ctx, t.ctx.Querier, sql, t.ctx.Logger)
	t.ctx.progressf("SQL query execution process completed\n")
	return Output{Tool: ExecuteSQLName, SQL: sql, Result: result}, nil
}

// parseSQLQuery extracts sql_query; undecodable arguments count as missing.
func parseSQLQuery(argText string) (string, error) {
	var args struct {
		SQLQuery string `json:"sql_query"`
	}
	if strings.TrimSpace(argText) == "" {
		return "", ErrMissingQuery
	}
	if err := json.Unmarshal([]byte(argText), &args); err != nil {
		return "", ErrMissingQuery
	}
	sql := strings.TrimSpace(args.SQLQuery)
	if sql == "" {
		return "", ErrMissingQuery
	}
	return sql, nil
}
