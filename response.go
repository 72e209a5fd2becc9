package textgen

import (
	"github.com/cockroachdb/errors"
)

// Candidater represents a type that can have several candidates.
type Candidater interface {
	NumCandidates() int
	Candidate(int) (*Message, error)
}

// Usage reports token counts for a generation.
//
// Counts are computed by the generator's token counter and may be
// approximations.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the normalized output of a generator.
type Response struct {
	Text     []Message `json:"text"`
	Logprobs []float64 `json:"logprobs"`
	Config   Config    `json:"config"`
	Usage    Usage     `json:"usage"`
}

func (r Response) NumCandidates() int {
	return len(r.Text)
}

func (r Response) Candidate(idx int) (*Message, error) {
	if idx < 0 || idx > len(r.Text)-1 {
		return nil, errors.Newf("candidate %d does not exist (%d candidates)", idx, len(r.Text))
	}

	return &r.Text[idx], nil
}

// Get returns the text content of a candidate.
func (r Response) Get(idx int) (string, error) {
	candidate, err := r.Candidate(idx)
	if err != nil {
		return "", err
	}

	return candidate.Content, nil
}
