package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func newServerCompleter(t *testing.T, handler http.HandlerFunc) Completer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL + "/v1/"
	return NewOpenAICompleter(newOpenAIClient(cfg, option.WithMaxRetries(0)))
}

func testParams() openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel("gpt-4o"),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("Show me leads for Toyota")},
	}
}

func TestOpenAICompleterParsesToolCall(t *testing.T) {
	c := newServerCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "execute_sql", "arguments": "{\"sql_query\":\"SELECT 1\"}"}
					}]
				}
			}]
		}`)
	})

	msg, err := c.Complete(context.Background(), testParams())
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].Function.Name != "execute_sql" || msg.ToolCalls[0].Function.Arguments != `{"sql_query":"SELECT 1"}` {
		t.Fatalf("unexpected tool call: %+v", msg.ToolCalls[0].Function)
	}
}

func TestOpenAICompleterEmptyChoices(t *testing.T) {
	c := newServerCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	})

	if _, err := c.Complete(context.Background(), testParams()); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAICompleterSurfacesHTTPErrors(t *testing.T) {
	c := newServerCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	})

	if _, err := c.Complete(context.Background(), testParams()); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestOpenAICompleterStreamsFragments(t *testing.T) {
	c := newServerCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, content := range []string{"Two ", "Toyota ", "leads."} {
			_, _ = fmt.Fprintf(w, "data: {\"id\":\"chatcmpl-1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", content)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var got []string
	for fragment, err := range c.Stream(context.Background(), testParams()) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		got = append(got, fragment)
	}
	if strings.Join(got, "") != "Two Toyota leads." || len(got) != 3 {
		t.Fatalf("unexpected fragments: %q", got)
	}
}

func TestOpenAICompleterStreamError(t *testing.T) {
	c := newServerCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	})

	var streamErr error
	for _, err := range c.Stream(context.Background(), testParams()) {
		if err != nil {
			streamErr = err
		}
	}
	if streamErr == nil {
		t.Fatal("expected stream error")
	}
}
