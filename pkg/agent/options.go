package agent

import (
	"io"

	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
	"github.com/minhyannv/sql-agent-go/pkg/warehouse"
)

// AgentOption configures optional runtime dependencies for AgentLoop.
type AgentOption func(*agentDeps)

type agentDeps struct {
	logger    loggerpkg.Logger
	completer Completer
	querier   warehouse.Querier
	out       io.Writer
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) AgentOption {
	return func(d *agentDeps) {
		d.logger = l
	}
}

// WithCompleter replaces the OpenAI client built from config.
func WithCompleter(c Completer) AgentOption {
	return func(d *agentDeps) {
		d.completer = c
	}
}

// WithQuerier replaces the BigQuery client built from config.
func WithQuerier(q warehouse.Querier) AgentOption {
	return func(d *agentDeps) {
		d.querier = q
	}
}

// WithOutput sets where streamed replies and progress lines are written.
func WithOutput(w io.Writer) AgentOption {
	return func(d *agentDeps) {
		d.out = w
	}
}
