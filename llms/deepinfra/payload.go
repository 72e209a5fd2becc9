package deepinfra

import (
	"maps"

	textgen "github.com/checkmarble/llm-textgen"
	"github.com/samber/lo"
)

const (
	defaultMaxNewTokens      = 200
	defaultRepetitionPenalty = 1.0
)

type inferenceRequest struct {
	Input      string              `json:"input"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

// adaptRequest builds the prompt and the payload sent to the inference
// endpoint.
func (p *DeepInfra) adaptRequest(req textgen.Request) (*inferenceRequest, error) {
	r := req.ToRequest()

	var prompt string

	switch r.Prompt {
	case nil:
		rendered, err := p.template.Render(r.Messages)
		if err != nil {
			return nil, err
		}

		prompt = rendered

	default:
		prompt = *r.Prompt
	}

	return &inferenceRequest{
		Input: prompt,
		Parameters: inferenceParameters{
			MaxNewTokens:      lo.FromPtrOr(r.Parameters.MaxNewTokens, defaultMaxNewTokens),
			Temperature:       r.Config.Temperature,
			TopP:              r.Config.TopP,
			TopK:              lo.FromPtrOr(r.Parameters.TopK, r.Config.TopK),
			RepetitionPenalty: lo.FromPtrOr(r.Parameters.RepetitionPenalty, defaultRepetitionPenalty),
		},
	}, nil
}

// cacheParams lists everything that identifies a generation: the effective
// configuration, every parameter that was set, the conversation and how it is
// rendered.
func (p *DeepInfra) cacheParams(req textgen.Request, cfg textgen.Config) map[string]any {
	r := req.ToRequest()
	params := cfg.Map()

	maps.Copy(params, r.Parameters.Map())

	switch r.Prompt {
	case nil:
		params["messages"] = r.Messages
	default:
		params["messages"] = *r.Prompt
	}

	params["dialogue_type"] = p.template.DialogueType()

	if system := p.template.System(); system != "" && r.Prompt == nil {
		params["system"] = system
	}

	return params
}
