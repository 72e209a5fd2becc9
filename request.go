package textgen

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Generator is implemented by text generation providers.
type Generator interface {
	Generate(context.Context, Request) (*Response, error)
}

// innerRequest represents the actual request to be sent to the provider,
// before being adapted for it.
type innerRequest struct {
	// Prompt is set when the request carries a raw prompt instead of messages.
	Prompt     *string
	Messages   []Message
	Config     Config
	Parameters Parameters
}

// Request represents a request to be sent to a provider.
//
// It is a value type: every builder method returns a modified copy, so a
// base request can be shared and extended. Errors raised while building are
// kept and returned by Do.
type Request struct {
	innerRequest

	err error
}

// NewRequest creates a builder for a conversation request, using the default
// configuration.
//
// Example usage:
//
//	resp, err := textgen.NewRequest().
//		WithInstruction("Answer with a single word.").
//		WithText(textgen.RoleUser, "What is the capital of France?").
//		Do(ctx, generator)
func NewRequest() Request {
	return Request{
		innerRequest: innerRequest{
			Config: DefaultConfig(),
		},
	}
}

// NewPromptRequest creates a request sending the given prompt verbatim, with
// no dialogue markup added.
func NewPromptRequest(prompt string) Request {
	return Request{
		innerRequest: innerRequest{
			Prompt: &prompt,
			Config: DefaultConfig(),
		},
	}
}

// Do executes the request on the given generator.
func (r Request) Do(ctx context.Context, gen Generator) (*Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	return gen.Generate(ctx, r)
}

// WithInstruction adds a system message to the request.
func (r Request) WithInstruction(parts ...string) Request {
	return r.WithText(RoleSystem, parts...)
}

// WithText adds a message to the request.
//
// Each provided `string` is a paragraph of the message, separated by a new
// line.
func (r Request) WithText(role Role, parts ...string) Request {
	return r.WithMessages(Message{
		Role:    role,
		Content: strings.Join(parts, "\n"),
	})
}

// WithMessages appends already-built messages, in order.
func (r Request) WithMessages(messages ...Message) Request {
	if r.Prompt != nil {
		r.err = errors.CombineErrors(r.err, errors.Wrap(ErrInvalidInput, "cannot add messages to a raw prompt request"))
		return r
	}

	r.Messages = append(slices.Clone(r.Messages), messages...)

	return r
}

// WithHistory appends the messages saved in a conversation history.
func (r Request) WithHistory(h *History[Message]) Request {
	return r.WithMessages(h.Load()...)
}

// FromCandidate adds a candidate from a previous response as an assistant
// message, to continue the conversation from it.
//
// Example usage:
//
//	resp, err := textgen.NewRequest().
//		WithText(textgen.RoleUser, "Hello!").
//		FromCandidate(previousResp, 0).
//		WithText(textgen.RoleUser, "How are you today?").
//		Do(ctx, generator)
func (r Request) FromCandidate(c Candidater, idx int) Request {
	candidate, err := c.Candidate(idx)
	if err != nil {
		r.err = errors.CombineErrors(r.err, err)
		return r
	}

	return r.WithMessages(Message{Role: RoleAi, Content: candidate.Content})
}

// WithSerializable adds a message whose content is the serialized form of
// data.
func (r Request) WithSerializable(role Role, serializer Serializer, data any) Request {
	content, err := serializer.Serialize(data)
	if err != nil {
		r.err = errors.CombineErrors(r.err, errors.Wrap(err, "could not serialize message content"))
		return r
	}

	return r.WithText(role, content)
}

// WithConfig replaces the generation configuration.
func (r Request) WithConfig(cfg Config) Request {
	r.Config = cfg.WithModel(cfg.Model)

	return r
}

// WithCache enables or disables response caching for this request.
func (r Request) WithCache(enabled bool) Request {
	r.Config.UseCache = enabled

	return r
}

// WithTemperature sets the sampling temperature.
func (r Request) WithTemperature(temp float64) Request {
	r.Config.Temperature = temp

	return r
}

// WithTopP sets the `top_p` parameter.
func (r Request) WithTopP(topp float64) Request {
	r.Config.TopP = topp

	return r
}

// WithMaxNewTokens limits how many tokens the provider can emit.
func (r Request) WithMaxNewTokens(tokens int) Request {
	r.Parameters.MaxNewTokens = &tokens

	return r
}

// WithTopK overrides the `top_k` value of the configuration.
func (r Request) WithTopK(k int) Request {
	r.Parameters.TopK = &k

	return r
}

// WithRepetitionPenalty sets the repetition penalty.
func (r Request) WithRepetitionPenalty(penalty float64) Request {
	r.Parameters.RepetitionPenalty = lo.ToPtr(penalty)

	return r
}

// WithParam sets a free-form argument. Providers ignore arguments they do
// not know about, but they still distinguish cache entries.
func (r Request) WithParam(name string, value any) Request {
	extra := maps.Clone(r.Parameters.Extra)
	if extra == nil {
		extra = make(map[string]any, 1)
	}

	extra[name] = value
	r.Parameters.Extra = extra

	return r
}

// IsPrompt reports whether the request carries a raw prompt.
func (r Request) IsPrompt() bool {
	return r.Prompt != nil
}

// Err returns the errors accumulated while building the request.
func (r Request) Err() error {
	return r.err
}

// ToRequest unwraps the actual request.
func (r Request) ToRequest() innerRequest {
	return r.innerRequest
}
