package agent

import (
	"context"
	"errors"
	"iter"

	configpkg "github.com/minhyannv/sql-agent-go/pkg/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Completer talks to the chat completion provider.
type Completer interface {
	// Complete returns the first choice of a non-streaming completion.
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error)
	// Stream yields content fragments in arrival order. A non-nil error ends
	// the sequence.
	Stream(ctx context.Context, params openai.ChatCompletionNewParams) iter.Seq2[string, error]
}

type openAICompleter struct {
	client openai.Client
}

// NewOpenAICompleter wraps an openai.Client.
func NewOpenAICompleter(client openai.Client) Completer {
	return openAICompleter{client: client}
}

func newOpenAIClient(cfg configpkg.Config, extra ...option.RequestOption) openai.Client {
	opts := []option.RequestOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	opts = append(opts, extra...)
	return openai.NewClient(opts...)
}

func (c openAICompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(completion.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("empty completion choices")
	}
	return completion.Choices[0].Message, nil
}

func (c openAICompleter) Stream(ctx context.Context, params openai.ChatCompletionNewParams) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		streamResp := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer streamResp.Close()

		for streamResp.Next() {
			chunk := streamResp.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !yield(delta, nil) {
					return
				}
			}
		}
		if err := streamResp.Err(); err != nil {
			yield("", err)
		}
	}
}
