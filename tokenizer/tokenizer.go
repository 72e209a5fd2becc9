// Package tokenizer provides the token counters used to report generation
// usage.
package tokenizer

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pkoukk/tiktoken-go"
)

// Counter counts the tokens in a text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a function to the Counter interface.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int {
	return f(text)
}

// Whitespace approximates tokens as runs of non-whitespace characters.
type Whitespace struct{}

func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

// Tiktoken counts tokens with a BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding, such as "cl100k_base".
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load encoding '%s'", encoding)
	}

	return &Tiktoken{enc: enc}, nil
}

// NewTiktokenForModel loads the encoding used by a known model.
func NewTiktokenForModel(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, errors.Wrapf(err, "no encoding for model '%s'", model)
	}

	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}

	return len(t.enc.Encode(text, nil, nil))
}
