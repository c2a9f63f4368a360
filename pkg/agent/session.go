package agent

import (
	"fmt"

	"github.com/openai/openai-go"
)

// Role is the role for a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is the provider-agnostic transcript entry.
type Message struct {
	Role    Role
	Content string
}

// Session owns the ordered transcript of one conversation. The first message
// is always the system prompt; entries are only ever appended.
type Session struct {
	messages []Message
}

// NewSession starts a transcript with the given system prompt.
func NewSession(systemPrompt string) *Session {
	return &Session{messages: []Message{{Role: RoleSystem, Content: systemPrompt}}}
}

// Append adds a message to the end of the transcript.
func (s *Session) Append(role Role, content string) {
	s.messages = append(s.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

// Len reports the number of messages, system prompt included.
func (s *Session) Len() int {
	return len(s.messages)
}

// Last returns the most recent message.
func (s *Session) Last() Message {
	return s.messages[len(s.messages)-1]
}

func toOpenAIMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	return out, nil
}
