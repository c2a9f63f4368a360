package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minhyannv/sql-agent-go/pkg/agent"
	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
)

// replOptions configures REPL behavior.
type replOptions struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

// runREPL reads one line per turn until "exit" or end of input. Lines of any
// length are accepted.
func runREPL(ctx context.Context, app *agent.AgentLoop, opts replOptions, in io.Reader, out io.Writer) error {
	if app == nil {
		return fmt.Errorf("agent loop is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}

	loggerpkg.Debug(opts.Verbose, opts.Logger, "repl start", nil)

	reader := bufio.NewReader(in)
	printWelcome(out)

	for {
		_, _ = fmt.Fprint(out, "You: ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read input: %w", readErr)
		}
		if readErr != nil && line == "" {
			break
		}

		line = strings.TrimRight(line, "\r\n")
		if isExit(line) {
			_, _ = fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if strings.TrimSpace(line) != "" {
			runTurn(ctx, app, line, out)
		}
		if readErr != nil {
			break
		}
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Goodbye!")
	return nil
}

func runTurn(ctx context.Context, app *agent.AgentLoop, input string, out io.Writer) {
	reply, err := app.Run(ctx, input)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Error: %v\n\n", err)
		return
	}

	// A streamed summary is already on screen.
	if reply.Streamed {
		return
	}
	_, _ = fmt.Fprintf(out, "Assistant: %s\n\n", reply.Content)
}

// isExit matches the raw line, so " exit " is an ordinary turn.
func isExit(line string) bool {
	return strings.EqualFold(line, "exit")
}

func printWelcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Welcome to the Car Service Agency AI Assistant!")
	_, _ = fmt.Fprintln(out, "Type 'exit' to quit.")
	_, _ = fmt.Fprintln(out)
}
