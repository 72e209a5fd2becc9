package deepinfra

import (
	"net/http"

	"github.com/checkmarble/llm-textgen/cache"
	"github.com/checkmarble/llm-textgen/tokenizer"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a DeepInfra generator.
type Option func(*DeepInfra)

// WithProvider sets the informational name of the provider, reported in logs.
func WithProvider(name string) Option {
	return func(p *DeepInfra) {
		p.provider = name
	}
}

// WithEndpointUrl sets the inference endpoint of the deployed model, such as
// `https://api.deepinfra.com/v1/inference/meta-llama/Llama-2-13b-chat-hf`.
func WithEndpointUrl(url string) Option {
	return func(p *DeepInfra) {
		p.endpointUrl = url
	}
}

func WithApiKey(apiKey string) Option {
	return func(p *DeepInfra) {
		p.apiKey = apiKey
	}
}

// WithDialogueType selects how conversations are rendered into prompts.
//
// Only "default" is supported. Other values are accepted here but requests
// rendering a conversation will fail.
func WithDialogueType(dialogueType string) Option {
	return func(p *DeepInfra) {
		p.dialogueType = dialogueType
	}
}

// WithSystem sets a system text rendered before every conversation, ahead of
// the system messages of the request. Raw prompts are sent without it.
func WithSystem(system string) Option {
	return func(p *DeepInfra) {
		p.system = system
	}
}

// WithMaxLength records the maximum length of the model context.
//
// It is currently not sent to the endpoint.
func WithMaxLength(length int) Option {
	return func(p *DeepInfra) {
		p.maxLength = length
	}
}

// WithHttpClient sets the HTTP client used to reach the endpoint. Timeouts
// configured on the client apply to every generation.
func WithHttpClient(client *http.Client) Option {
	return func(p *DeepInfra) {
		p.httpClient = client
	}
}

// WithCache enables response caching for requests that allow it.
func WithCache(c cache.Cache) Option {
	return func(p *DeepInfra) {
		p.cache = c
	}
}

// WithTokenCounter replaces the whitespace token counter used to compute usage.
func WithTokenCounter(counter tokenizer.Counter) Option {
	return func(p *DeepInfra) {
		p.counter = counter
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *DeepInfra) {
		p.logger = logger
	}
}

// WithMetrics registers the provider metrics on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(p *DeepInfra) {
		p.registerer = reg
	}
}
