// Package dialogue renders conversations into the flat chat markup expected by
// text-completion models, and extracts the assistant reply from their output.
package dialogue

import (
	"strings"

	textgen "github.com/checkmarble/llm-textgen"
	"github.com/cockroachdb/errors"
)

// DefaultType is the only supported dialogue type.
const DefaultType = "default"

// Tokens are the control tokens delimiting each turn of a dialogue.
type Tokens struct {
	System    string
	User      string
	Assistant string
	End       string
}

var DefaultTokens = Tokens{
	System:    "<|system|>",
	User:      "<|user|>",
	Assistant: "<|assistant|>",
	End:       "<|end|>",
}

// Template serializes conversations. The zero value is not usable, use New.
type Template struct {
	dialogueType string
	system       string
	tokens       Tokens
}

type Option func(*Template)

// WithSystem sets a system text rendered before every conversation.
func WithSystem(system string) Option {
	return func(t *Template) {
		t.system = system
	}
}

// WithTokens replaces the control tokens.
func WithTokens(tokens Tokens) Option {
	return func(t *Template) {
		t.tokens = tokens
	}
}

func New(dialogueType string, opts ...Option) Template {
	t := Template{
		dialogueType: dialogueType,
		tokens:       DefaultTokens,
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

func (t Template) DialogueType() string {
	return t.dialogueType
}

func (t Template) System() string {
	return t.system
}

func (t Template) Tokens() Tokens {
	return t.tokens
}

// Render builds the prompt for a conversation.
//
// System turns (the template system text first, then system messages in
// order) are moved before every other turn. The prompt ends with a bare
// assistant token so the model continues as the assistant.
func (t Template) Render(messages []textgen.Message) (string, error) {
	if t.dialogueType != DefaultType {
		return "", errors.Wrapf(textgen.ErrNotSupported, "dialogue type '%s' is not supported, only '%s' is", t.dialogueType, DefaultType)
	}

	if len(messages) == 0 {
		return "", errors.Wrap(textgen.ErrInvalidInput, "dialogue must have at least one message")
	}

	var system, turns strings.Builder

	if t.system != "" {
		t.writeTurn(&system, t.tokens.System, t.system)
	}

	for _, msg := range messages {
		switch msg.EffectiveRole() {
		case textgen.RoleSystem:
			t.writeTurn(&system, t.tokens.System, msg.Content)
		case textgen.RoleUser:
			t.writeTurn(&turns, t.tokens.User, msg.Content)
		default:
			t.writeTurn(&turns, t.tokens.Assistant, msg.Content)
		}
	}

	turns.WriteString(t.tokens.Assistant)

	return system.String() + turns.String(), nil
}

func (t Template) writeTurn(sb *strings.Builder, token, content string) {
	sb.WriteString(token)
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString(t.tokens.End)
	sb.WriteString("\n")
}

// Extract returns the last assistant reply found in a model output.
//
// Anything up to the last assistant token is an echo of the prompt and is
// dropped, as is anything from the first end token after it.
func (t Template) Extract(raw string) string {
	reply := raw

	if idx := strings.LastIndex(reply, t.tokens.Assistant); idx >= 0 {
		reply = reply[idx+len(t.tokens.Assistant):]
	}

	if idx := strings.Index(reply, t.tokens.End); idx >= 0 {
		reply = reply[:idx]
	}

	return strings.TrimSpace(reply)
}
