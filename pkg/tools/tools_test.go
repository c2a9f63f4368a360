package tools

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minhyannv/sql-agent-go/pkg/warehouse"
	"github.com/openai/openai-go"
)

type countingQuerier struct {
	rows  []warehouse.Row
	err   error
	calls []string
}

func (q *countingQuerier) Query(_ context.Context, sql string) ([]warehouse.Row, error) {
	q.calls = append(q.calls, sql)
	return q.rows, q.err
}

func toolCall(name, args string) openai.ChatCompletionMessageToolCall {
	return openai.ChatCompletionMessageToolCall{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestDefinitionsExposeExecuteSQL(t *testing.T) {
	reg := New(Context{Querier: &countingQuerier{}})

	defs := reg.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected one tool definition, got %d", len(defs))
	}
	fn := defs[0].Function
	if fn.Name != ExecuteSQLName {
		t.Fatalf("unexpected tool name: %s", fn.Name)
	}
	required, ok := fn.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "sql_query" {
		t.Fatalf("unexpected required params: %#v", fn.Parameters["required"])
	}
}

func TestExecuteUnknownToolSkipsWarehouse(t *testing.T) {
	q := &countingQuerier{}
	reg := New(Context{Querier: q})

	_, err := reg.Execute(context.Background(), toolCall("drop_table", `{"sql_query":"DROP TABLE x"}`))
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if len(q.calls) != 0 {
		t.Fatalf("warehouse should not be called, got %d call(s)", len(q.calls))
	}
}

func TestExecuteMissingQuerySkipsWarehouse(t *testing.T) {
	cases := []string{``, `{}`, `{"sql_query":""}`, `{"sql_query":"   "}`, `not json`}
	for _, args := range cases {
		q := &countingQuerier{}
		reg := New(Context{Querier: q})

		_, err := reg.Execute(context.Background(), toolCall(ExecuteSQLName, args))
		if !errors.Is(err, ErrMissingQuery) {
			t.Fatalf("args %q: expected ErrMissingQuery, got %v", args, err)
		}
		if len(q.calls) != 0 {
			t.Fatalf("args %q: warehouse should not be called", args)
		}
	}
}

func TestExecuteRunsQueryAndReportsProgress(t *testing.T) {
	q := &countingQuerier{rows: []warehouse.Row{{{Name: "lead_id", Value: "L1"}}}}
	var progress bytes.Buffer
	reg := New(Context{Querier: q, Progress: &progress})

	sql := "SELECT * FROM car_service_leads.leads WHERE car_make = 'Toyota'"
	out, err := reg.Execute(context.Background(), toolCall(ExecuteSQLName, `{"sql_query":"`+sql+`"}`))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out.SQL != sql || len(q.calls) != 1 || q.calls[0] != sql {
		t.Fatalf("unexpected dispatch: out=%+v calls=%v", out, q.calls)
	}
	if out.Result.Failed() || len(out.Result.Rows) != 1 {
		t.Fatalf("unexpected result: %+v", out.Result)
	}
	if !containsAll(progress.String(), []string{
		"Executing SQL Query: " + sql,
		"Starting execution of SQL query\n",
		"SQL query execution process completed\n",
	}) {
		t.Fatalf("missing progress lines: %q", progress.String())
	}
	if strings.Index(progress.String(), "Starting") > strings.Index(progress.String(), "completed") {
		t.Fatalf("progress lines out of order: %q", progress.String())
	}
}

func TestExecuteWrapsWarehouseError(t *testing.T) {
	q := &countingQuerier{err: errors.New("permission denied")}
	reg := New(Context{Querier: q})

	out, err := reg.Execute(context.Background(), toolCall(ExecuteSQLName, `{"sql_query":"SELECT 1"}`))
	if err != nil {
		t.Fatalf("warehouse errors should be folded into the result, got %v", err)
	}
	if out.Result.Err != "permission denied" {
		t.Fatalf("unexpected result error: %q", out.Result.Err)
	}
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	q := &countingQuerier{}
	reg := New(Context{Querier: q})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := reg.Execute(ctx, toolCall(ExecuteSQLName, `{"sql_query":"SELECT 1"}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(q.calls) != 0 {
		t.Fatal("warehouse should not be called after cancellation")
	}
}

// containsAll reports whether all substrings exist in text.
func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
