package textgen

import (
	"maps"
	"slices"

	"github.com/fatih/structs"
)

// Config holds the sampling parameters of a generation.
//
// It is passed by value: generators copy it and never modify the caller's
// instance. Use DefaultConfig to get a populated value.
type Config struct {
	Model            string   `json:"model" structs:"model"`
	N                int      `json:"n" structs:"n"`
	Temperature      float64  `json:"temperature" structs:"temperature"`
	MaxTokens        *int     `json:"max_tokens" structs:"max_tokens"`
	TopP             float64  `json:"top_p" structs:"top_p"`
	TopK             int      `json:"top_k" structs:"top_k"`
	FrequencyPenalty float64  `json:"frequency_penalty" structs:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty" structs:"presence_penalty"`
	Stop             []string `json:"stop" structs:"stop"`
	UseCache         bool     `json:"use_cache" structs:"use_cache"`
}

// DefaultConfig returns a fresh configuration with the default sampling values.
func DefaultConfig() Config {
	return Config{
		N:           1,
		Temperature: 0.1,
		TopP:        1.0,
		TopK:        50,
		UseCache:    true,
	}
}

// WithModel returns a copy of the configuration targeting another model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	c.Stop = slices.Clone(c.Stop)

	return c
}

// Map flattens the configuration, keyed by the wire name of each field.
func (c Config) Map() map[string]any {
	return structs.Map(c)
}

// Parameters are provider-level generation arguments that complement Config.
//
// Unset values are nil and are left to the provider defaults. Extra carries
// free-form arguments, which only take part in cache keys.
type Parameters struct {
	MaxNewTokens      *int           `json:"max_new_tokens,omitempty" structs:"max_new_tokens,omitempty"`
	TopK              *int           `json:"top_k,omitempty" structs:"top_k,omitempty"`
	RepetitionPenalty *float64       `json:"repetition_penalty,omitempty" structs:"repetition_penalty,omitempty"`
	Extra             map[string]any `json:"extra,omitempty" structs:"-"`
}

// Map flattens the parameters that were set, including extra arguments.
func (p Parameters) Map() map[string]any {
	out := structs.Map(p)
	maps.Copy(out, p.Extra)

	return out
}
