package textgen

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/simonfrey/jsonl"
)

// BatchItem is one line of a batch input file.
//
// Exactly one of Prompt or Messages should be provided. Fields missing from
// Config keep their default values.
type BatchItem struct {
	Id         string     `json:"id"`
	Prompt     *string    `json:"prompt,omitempty"`
	Messages   []Message  `json:"messages,omitempty"`
	Config     *Config    `json:"config,omitempty"`
	Parameters Parameters `json:"parameters"`
}

// BatchResult is one line of a batch output file.
type BatchResult struct {
	Id       string    `json:"id"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Request builds the request described by the batch item.
func (item BatchItem) Request() Request {
	req := NewRequest()

	if item.Prompt != nil {
		req = NewPromptRequest(*item.Prompt)
	}

	if len(item.Messages) > 0 {
		req = req.WithMessages(item.Messages...)
	}

	req = req.WithConfig(lo.FromPtrOr(item.Config, DefaultConfig()))
	req.Parameters = item.Parameters

	return req
}

// RunBatch reads batch items as JSON lines from r, generates each of them in
// order and writes one BatchResult line per item to w.
//
// Generation failures are reported in the result line and do not stop the
// batch. Malformed lines, items without an ID, read and write failures do.
// Blank lines are skipped. Lines have no length limit.
func RunBatch(ctx context.Context, gen Generator, r io.Reader, w io.Writer) error {
	in := bufio.NewReader(r)
	out := jsonl.NewWriter(w)

	runItem := func(line int, data []byte) error {
		item := BatchItem{Config: lo.ToPtr(DefaultConfig())}

		if err := json.Unmarshal(data, &item); err != nil {
			return errors.Wrapf(err, "could not decode batch item on line %d", line)
		}

		if item.Id == "" {
			return errors.Wrapf(ErrInvalidInput, "batch item on line %d has no ID", line)
		}

		result := BatchResult{Id: item.Id}

		resp, err := item.Request().Do(ctx, gen)

		switch err {
		case nil:
			result.Response = resp
		default:
			result.Error = err.Error()
		}

		if err := out.Write(result); err != nil {
			return errors.Wrapf(err, "could not write result for batch item '%s'", item.Id)
		}

		return nil
	}

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, readErr := in.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return errors.Wrapf(readErr, "could not read batch line %d", line)
		}

		if len(bytes.TrimSpace(data)) > 0 {
			if err := runItem(line, data); err != nil {
				return err
			}
		}

		if readErr != nil {
			return nil
		}
	}
}
