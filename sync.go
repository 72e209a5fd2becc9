package textgen

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

type AsyncResponse struct {
	Response *Response
	Error    error
}

// All executes every request concurrently on the generator and returns their
// results in the order of the requests.
func All(ctx context.Context, gen Generator, reqs ...Request) []AsyncResponse {
	var wg sync.WaitGroup

	responses := make([]AsyncResponse, len(reqs))

	for idx, req := range reqs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			resp, err := req.Do(ctx, gen)
			if err != nil {
				responses[idx] = AsyncResponse{Error: err}
				return
			}

			responses[idx] = AsyncResponse{Response: resp}
		}()
	}

	wg.Wait()

	return responses
}

// Race executes every request concurrently and returns the first successful
// response. Remaining requests are cancelled through the context.
func Race(ctx context.Context, gen Generator, reqs ...Request) (*Response, error) {
	if len(reqs) == 0 {
		return nil, errors.New("no request to race")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := make(chan AsyncResponse, len(reqs))

	for _, req := range reqs {
		go func() {
			resp, err := req.Do(ctx, gen)
			if err != nil {
				c <- AsyncResponse{Error: err}
				return
			}

			c <- AsyncResponse{Response: resp}
		}()
	}

	var errs error

	for range reqs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case value := <-c:
			if value.Error == nil {
				return value.Response, nil
			}

			errs = errors.CombineErrors(errs, value.Error)
		}
	}

	return nil, errors.Wrap(errs, "all requests failed")
}
