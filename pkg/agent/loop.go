package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	configpkg "github.com/minhyannv/sql-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
	"github.com/minhyannv/sql-agent-go/pkg/prompt"
	"github.com/minhyannv/sql-agent-go/pkg/tools"
	"github.com/minhyannv/sql-agent-go/pkg/warehouse"
	"github.com/openai/openai-go"
)

// Fixed replies for the recoverable failure paths.
const (
	MsgUnavailable   = "Sorry, I'm experiencing some issues right now. Please try again later."
	MsgUnknownTool   = "I'm sorry, I don't know how to help with that."
	MsgMissingQuery  = "I'm sorry, I couldn't identify the SQL query to execute."
	MsgSummaryFailed = "I'm sorry, but I couldn't generate a summary based on the data."

	queryErrorPrefix = "An error occurred while executing the query: "
	summaryPrompt    = "Please provide a natural language response of everything you see do not summarize it:\n"
)

// ReplyKind tells the caller which path produced a reply.
type ReplyKind int

const (
	ReplyDirect ReplyKind = iota
	ReplyUnavailable
	ReplyUnknownTool
	ReplyMissingQuery
	ReplyQueryError
	ReplySummary
	ReplySummaryFailed
)

// Reply is the assistant's answer to one user turn.
type Reply struct {
	Kind    ReplyKind
	Content string
	// Streamed is set when Content was already written to the output while it
	// arrived; callers must not print it again.
	Streamed bool
}

// AgentLoop holds agent runtime state.
type AgentLoop struct {
	config       configpkg.Config
	completer    Completer
	tools        *tools.Registry
	querier      warehouse.Querier
	SystemPrompt string
	session      *Session

	out     io.Writer
	logger  loggerpkg.Logger
	verbose bool
}

// New initializes an AgentLoop with the provided context, config, and dependencies.
func New(ctx context.Context, cfg configpkg.Config, opts ...AgentOption) (*AgentLoop, error) {
	cfg = configpkg.Normalize(cfg)
	deps := agentDeps{logger: loggerpkg.NopLogger{}, out: io.Discard}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	if deps.logger == nil {
		deps.logger = loggerpkg.NopLogger{}
	}
	if deps.out == nil {
		deps.out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerpkg.Debug(cfg.Verbose, deps.logger, "agent_loop init", loggerpkg.Fields{
		"model":       cfg.Model,
		"base_url":    cfg.BaseURL,
		"max_tokens":  cfg.MaxTokens,
		"schema_file": cfg.SchemaFile,
		"project_id":  cfg.BigQuery.ProjectID,
	})
	if cfg.Model == "" {
		return nil, errors.New("Model is not set")
	}

	schema, err := prompt.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	systemPrompt := prompt.BuildSystemPrompt(schema)
	loggerpkg.Debug(cfg.Verbose, deps.logger, "system prompt ready", loggerpkg.Fields{
		"bytes":   len(systemPrompt),
		"table":   schema.Dataset + "." + schema.Table,
		"columns": len(schema.Columns),
	})

	completer := deps.completer
	if completer == nil {
		if cfg.APIKey == "" {
			return nil, errors.New("APIKey is not set")
		}
		completer = NewOpenAICompleter(newOpenAIClient(cfg))
	}

	querier := deps.querier
	if querier == nil {
		bq, err := warehouse.NewBigQuery(ctx, cfg.BigQuery, deps.logger, cfg.Verbose)
		if err != nil {
			return nil, fmt.Errorf("init warehouse: %w", err)
		}
		querier = bq
	}

	registeredTools := tools.New(tools.Context{
		Querier:  querier,
		Progress: deps.out,
		Verbose:  cfg.Verbose,
		Logger:   deps.logger,
	})

	return &AgentLoop{
		config:       cfg,
		completer:    completer,
		tools:        registeredTools,
		querier:      querier,
		SystemPrompt: systemPrompt,
		session:      NewSession(systemPrompt),

		out:     deps.out,
		logger:  deps.logger,
		verbose: cfg.Verbose,
	}, nil
}

// Session exposes the transcript owned by this loop.
func (a *AgentLoop) Session() *Session {
	return a.session
}

// Close releases the warehouse client when it holds resources.
func (a *AgentLoop) Close() error {
	if closer, ok := a.querier.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run processes one user turn. Provider, tool, and warehouse failures all end
// in a Reply; the error is reserved for unusable input.
func (a *AgentLoop) Run(ctx context.Context, userInput string) (Reply, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Reply{}, errors.New("user input is required")
	}
	a.session.Append(RoleUser, userInput)

	message, err := a.requestCompletion(ctx)
	if err != nil {
		loggerpkg.Error(a.logger, "chat completion failed", err)
		return Reply{Kind: ReplyUnavailable, Content: MsgUnavailable}, nil
	}

	var reply Reply
	if len(message.ToolCalls) == 0 {
		reply = Reply{Kind: ReplyDirect, Content: message.Content}
	} else {
		if len(message.ToolCalls) > 1 {
			a.debugf("[verbose] turn: ignoring %d extra tool call(s)", len(message.ToolCalls)-1)
		}
		reply = a.invokeTool(ctx, message.ToolCalls[0])
	}

	a.session.Append(RoleAssistant, reply.Content)
	return reply, nil
}

func (a *AgentLoop) requestCompletion(ctx context.Context) (openai.ChatCompletionMessage, error) {
	messages, err := toOpenAIMessages(a.session.Messages())
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	a.debugf("[verbose] turn: sending request with %d messages", len(messages))
	return a.completer.Complete(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(a.config.Model),
		Messages:  messages,
		Tools:     a.tools.Definitions(),
		MaxTokens: openai.Int(a.config.MaxTokens),
	})
}

func (a *AgentLoop) invokeTool(ctx context.Context, call openai.ChatCompletionMessageToolCall) Reply {
	a.debugf("[verbose] turn: tool call %s(id=%s) arguments=%s", call.Function.Name, call.ID, call.Function.Arguments)

	output, err := a.tools.Execute(ctx, call)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return Reply{Kind: ReplyUnknownTool, Content: MsgUnknownTool}
	case errors.Is(err, tools.ErrMissingQuery):
		loggerpkg.Warn(a.logger, "no sql query provided in function call", nil)
		return Reply{Kind: ReplyMissingQuery, Content: MsgMissingQuery}
	case err != nil:
		return Reply{Kind: ReplyQueryError, Content: queryErrorPrefix + err.Error()}
	}

	if output.Result.Failed() {
		return Reply{Kind: ReplyQueryError, Content: queryErrorPrefix + output.Result.Err}
	}

	formatted := warehouse.Format(output.Result.Rows)
	_, _ = fmt.Fprintln(a.out, formatted)

	summary, err := a.summarize(ctx, formatted)
	if err != nil {
		loggerpkg.Error(a.logger, "summary generation failed", err)
		return Reply{Kind: ReplySummaryFailed, Content: MsgSummaryFailed}
	}
	return Reply{Kind: ReplySummary, Content: summary, Streamed: true}
}

// summarize asks for a prose rendering of formatted and echoes each fragment
// to the output as it arrives.
func (a *AgentLoop) summarize(ctx context.Context, formatted string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(summaryPrompt + formatted),
	}
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(a.config.Model),
		Messages:  messages,
		MaxTokens: openai.Int(a.config.MaxTokens),
	}

	var sb strings.Builder
	fragments := 0
	for fragment, err := range a.completer.Stream(ctx, params) {
		if err != nil {
			if fragments > 0 {
				_, _ = fmt.Fprintln(a.out)
			}
			return "", err
		}
		sb.WriteString(fragment)
		fragments++
		_, _ = io.WriteString(a.out, fragment)
	}
	_, _ = fmt.Fprintln(a.out)
	loggerpkg.Info(a.logger, "natural language summary streamed", loggerpkg.Fields{"fragments": fragments})
	return strings.TrimSpace(sb.String()), nil
}

func (a *AgentLoop) debugf(format string, args ...any) {
	loggerpkg.Debugf(a.verbose, a.logger, format, args...)
}
