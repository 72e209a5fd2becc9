// Package deepinfra generates text with models deployed on DeepInfra's
// inference API.
//
// Conversations are rendered into a single chat-markup prompt, sent to the
// model endpoint, and the assistant reply is extracted from the generated
// text.
package deepinfra

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	textgen "github.com/checkmarble/llm-textgen"
	"github.com/checkmarble/llm-textgen/cache"
	"github.com/checkmarble/llm-textgen/internal/dialogue"
	"github.com/checkmarble/llm-textgen/tokenizer"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultProvider  = "deepinfra"
	defaultMaxLength = 1024
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type settings struct {
	EndpointUrl string `validate:"required,http_url"`
	ApiKey      string `validate:"required"`
}

type DeepInfra struct {
	provider     string
	endpointUrl  string
	apiKey       string
	dialogueType string
	system       string
	maxLength    int

	template   dialogue.Template
	httpClient *http.Client
	cache      cache.Cache
	counter    tokenizer.Counter
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

// New creates a DeepInfra generator.
//
// The endpoint URL and API key are required.
//
// Example usage:
//
//	llm, err := deepinfra.New(
//		deepinfra.WithEndpointUrl("https://api.deepinfra.com/v1/inference/meta-llama/Llama-2-13b-chat-hf"),
//		deepinfra.WithApiKey(os.Getenv("DEEPINFRA_API_KEY")),
//	)
func New(opts ...Option) (*DeepInfra, error) {
	llm := DeepInfra{
		provider:     defaultProvider,
		dialogueType: dialogue.DefaultType,
		maxLength:    defaultMaxLength,
		httpClient:   &http.Client{},
		counter:      tokenizer.Whitespace{},
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&llm)
	}

	if err := validate.Struct(settings{EndpointUrl: llm.endpointUrl, ApiKey: llm.apiKey}); err != nil {
		return nil, errors.WithSecondaryError(errors.Wrap(textgen.ErrInvalidConfiguration, "DeepInfra endpoint URL and API key must be provided"), err)
	}

	m, err := newMetrics(llm.registerer)
	if err != nil {
		return nil, err
	}

	llm.metrics = m
	llm.template = dialogue.New(llm.dialogueType, dialogue.WithSystem(llm.system))
	llm.logger = llm.logger.With(zap.String("provider", llm.provider))

	return &llm, nil
}

func (p *DeepInfra) Provider() string {
	return p.provider
}

func (p *DeepInfra) EndpointUrl() string {
	return p.endpointUrl
}

func (p *DeepInfra) DialogueType() string {
	return p.dialogueType
}

func (p *DeepInfra) MaxLength() int {
	return p.maxLength
}

// Generate runs a request against the inference endpoint.
//
// When the request allows caching and a cache is configured, a response
// previously generated for identical parameters is returned without calling
// the endpoint.
func (p *DeepInfra) Generate(ctx context.Context, req textgen.Request) (*textgen.Response, error) {
	if err := req.Err(); err != nil {
		return nil, err
	}

	logger := p.logger.With(zap.String("request_id", uuid.NewString()))
	cfg := req.ToRequest().Config.WithModel(p.endpointUrl)
	useCache := cfg.UseCache && p.cache != nil

	var cacheKey string

	if useCache {
		key, err := cache.Key(p.cacheParams(req, cfg))
		if err != nil {
			return nil, err
		}

		cacheKey = key

		if resp, ok := p.fromCache(ctx, logger, cacheKey); ok {
			return resp, nil
		}
	}

	payload, err := p.adaptRequest(req)
	if err != nil {
		return nil, err
	}

	generatedText, err := p.send(ctx, logger, payload)
	if err != nil {
		return nil, err
	}

	if generatedText == "" {
		logger.Warn("generated text is empty")
	}

	promptTokens := p.counter.Count(payload.Input)
	totalTokens := p.counter.Count(generatedText)

	resp := textgen.Response{
		Text: []textgen.Message{
			{Role: textgen.RoleAi, Content: p.template.Extract(generatedText)},
		},
		Logprobs: []float64{},
		Config:   cfg,
		Usage: textgen.Usage{
			PromptTokens: promptTokens,
			// The generated text echoes the prompt, but is not guaranteed to, so
			// this can be negative.
			CompletionTokens: totalTokens - promptTokens,
			TotalTokens:      totalTokens,
		},
	}

	if useCache {
		p.toCache(ctx, logger, cacheKey, resp)
	}

	return &resp, nil
}

func (p *DeepInfra) send(ctx context.Context, logger *zap.Logger, payload *inferenceRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "could not encode DeepInfra request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointUrl, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "could not build DeepInfra request")
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.metrics.observeRequest(0, start)

		return "", errors.Wrap(err, "DeepInfra API request could not be sent")
	}

	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)

	p.metrics.observeRequest(httpResp.StatusCode, start)

	if err != nil {
		return "", errors.Wrap(err, "could not read DeepInfra response")
	}

	logger.Debug("DeepInfra API response",
		zap.Int("status_code", httpResp.StatusCode),
		zap.ByteString("body", respBody),
		zap.Duration("duration", time.Since(start)))

	if httpResp.StatusCode != http.StatusOK {
		return "", errors.Wrap(textgen.NewRemoteError(httpResp.StatusCode, string(respBody)), "DeepInfra API request failed")
	}

	if !gjson.ValidBytes(respBody) {
		return "", errors.New("could not decode DeepInfra response")
	}

	return gjson.GetBytes(respBody, "results.0.generated_text").String(), nil
}

func (p *DeepInfra) fromCache(ctx context.Context, logger *zap.Logger, key string) (*textgen.Response, bool) {
	buf, ok, err := p.cache.Get(ctx, key)

	switch {
	case err != nil:
		logger.Warn("could not read response from cache", zap.Error(err))
		p.metrics.observeCache("error")

		return nil, false

	case !ok:
		p.metrics.observeCache("miss")

		return nil, false
	}

	var resp textgen.Response

	if err := json.Unmarshal(buf, &resp); err != nil {
		logger.Warn("could not decode cached response", zap.Error(err))
		p.metrics.observeCache("error")

		return nil, false
	}

	p.metrics.observeCache("hit")
	logger.Debug("serving response from cache", zap.String("cache_key", key))

	return &resp, true
}

func (p *DeepInfra) toCache(ctx context.Context, logger *zap.Logger, key string, resp textgen.Response) {
	buf, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("could not encode response for cache", zap.Error(err))
		return
	}

	if err := p.cache.Set(ctx, key, buf); err != nil {
		logger.Warn("could not write response to cache", zap.Error(err))
	}
}
