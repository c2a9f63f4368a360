package tools

import (
	"context"
	"errors"
	"fmt"
	"io"

	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
	"github.com/minhyannv/sql-agent-go/pkg/warehouse"
	"github.com/openai/openai-go"
)

var (
	// ErrUnknownTool is returned when the model names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMissingQuery is returned when execute_sql arrives without a usable sql_query.
	ErrMissingQuery = errors.New("sql_query is required")
)

type tool interface {
	definition() openai.ChatCompletionToolParam
	execute(ctx context.Context, argText string) (Output, error)
	name() string
}

// Context carries what tools need to run.
type Context struct {
	Querier  warehouse.Querier
	Progress io.Writer
	Verbose  bool
	Logger   loggerpkg.Logger
}

func (c Context) debugf(format string, args ...any) {
	loggerpkg.Debugf(c.Verbose, c.Logger, format, args...)
}

func (c Context) progressf(format string, args ...any) {
	if c.Progress == nil {
		return
	}
	_, _ = fmt.Fprintf(c.Progress, format, args...)
}

// Output is the outcome of one successful tool dispatch.
type Output struct {
	Tool   string
	SQL    string
	Result warehouse.Result
}

// Registry holds registered tools and handles execution.
type Registry struct {
	registry map[string]tool
	ctx      Context
	params   []openai.ChatCompletionToolParam
}

// New builds a registry with the execute_sql tool.
func New(ctx Context) *Registry {
	if ctx.Logger == nil {
		ctx.Logger = loggerpkg.NopLogger{}
	}
	t := &Registry{
		registry: make(map[string]tool),
		ctx:      ctx,
	}

	t.register(&executeSQLTool{ctx: ctx})
	return t
}

func (t *Registry) register(toolImpl tool) {
	t.registry[toolImpl.name()] = toolImpl
	t.params = append(t.params, toolImpl.definition())
	t.ctx.debugf("[verbose] registered tool: %s", toolImpl.name())
}

// Definitions returns the schemas advertised to the model.
func (t *Registry) Definitions() []openai.ChatCompletionToolParam {
	return t.params
}

// Execute dispatches call by name. Unknown names and bad arguments never reach
// the warehouse.
func (t *Registry) Execute(ctx context.Context, call openai.ChatCompletionMessageToolCall) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{Tool: call.Function.Name}, err
	}

	toolImpl, ok := t.registry[call.Function.Name]
	if !ok {
		t.ctx.debugf("[verbose] unknown tool requested: %s", call.Function.Name)
		return Output{Tool: call.Function.Name}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Function.Name)
	}

	return toolImpl.execute(ctx, call.Function.Arguments)
}
