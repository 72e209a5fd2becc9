package deepinfra

import (
	"net/http"
	"testing"
	"time"

	textgen "github.com/checkmarble/llm-textgen"
	"github.com/checkmarble/llm-textgen/cache"
	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestLlm(t *testing.T, opts ...Option) *DeepInfra {
	t.Helper()

	llm, err := New(append([]Option{
		WithEndpointUrl("https://api.deepinfra.com/v1/inference/model"),
		WithApiKey("apikey"),
	}, opts...)...)

	assert.Nil(t, err)

	return llm
}

func TestAdaptRequest(t *testing.T) {
	llm := newTestLlm(t)

	payload, err := llm.adaptRequest(textgen.NewRequest().WithText(textgen.RoleUser, "Hi"))

	assert.Nil(t, err)
	assert.Equal(t, &inferenceRequest{
		Input: "<|user|>\nHi<|end|>\n<|assistant|>",
		Parameters: inferenceParameters{
			MaxNewTokens:      200,
			Temperature:       0.1,
			TopP:              1.0,
			TopK:              50,
			RepetitionPenalty: 1.0,
		},
	}, payload)

	payload, err = llm.adaptRequest(textgen.NewPromptRequest("raw <|user|> text").WithTopK(3))

	assert.Nil(t, err)
	assert.Equal(t, "raw <|user|> text", payload.Input)
	assert.Equal(t, 3, payload.Parameters.TopK)
}

func TestCacheParams(t *testing.T) {
	llm := newTestLlm(t)
	req := textgen.NewRequest().WithText(textgen.RoleUser, "Hi")
	cfg := req.ToRequest().Config.WithModel(llm.EndpointUrl())

	params := llm.cacheParams(req, cfg)

	assert.Equal(t, "https://api.deepinfra.com/v1/inference/model", params["model"])
	assert.Equal(t, 0.1, params["temperature"])
	assert.Equal(t, "default", params["dialogue_type"])
	assert.Equal(t, []textgen.Message{{Role: textgen.RoleUser, Content: "Hi"}}, params["messages"])
	assert.NotContains(t, params, "max_new_tokens")

	key := func(req textgen.Request) string {
		k, err := cache.Key(llm.cacheParams(req, req.ToRequest().Config.WithModel(llm.EndpointUrl())))
		assert.Nil(t, err)

		return k
	}

	base := key(req)

	assert.Equal(t, base, key(textgen.NewRequest().WithText(textgen.RoleUser, "Hi")))
	assert.NotEqual(t, base, key(req.WithText(textgen.RoleUser, "again")))
	assert.NotEqual(t, base, key(req.WithMaxNewTokens(10)))
	assert.NotEqual(t, base, key(req.WithParam("seed", 1)))
	assert.NotEqual(t, base, key(textgen.NewPromptRequest("Hi")))

	other := newTestLlm(t, WithEndpointUrl("https://api.deepinfra.com/v1/inference/other"))
	otherKey, err := cache.Key(other.cacheParams(req, req.ToRequest().Config.WithModel(other.EndpointUrl())))

	assert.Nil(t, err)
	assert.NotEqual(t, base, otherKey)
}

func TestMetrics(t *testing.T) {
	defer gock.Off()

	gock.New("https://api.deepinfra.com").
		Post("/v1/inference/model").
		Times(2).
		Reply(http.StatusOK).
		BodyString(`{"results":[{"generated_text":"Hello"}]}`)

	gock.New("https://api.deepinfra.com").
		Post("/v1/inference/model").
		Reply(http.StatusTooManyRequests).
		BodyString(`{"error":"rate limited"}`)

	reg := prometheus.NewRegistry()
	llm := newTestLlm(t, WithMetrics(reg), WithCache(cache.NewMemory(0)))

	// A second instance on the same registry shares the collectors.
	other := newTestLlm(t, WithMetrics(reg))

	req := textgen.NewRequest().WithText(textgen.RoleUser, "Hi")

	_, err := llm.Generate(t.Context(), req)
	assert.Nil(t, err)

	_, err = llm.Generate(t.Context(), req)
	assert.Nil(t, err)

	_, err = other.Generate(t.Context(), req)
	assert.Nil(t, err)

	_, err = other.Generate(t.Context(), req)
	assert.ErrorIs(t, err, textgen.ErrRemoteRequestFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(llm.metrics.requests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(llm.metrics.requests.WithLabelValues("429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(llm.metrics.cache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(llm.metrics.cache.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "textgen_deepinfra_request_duration_seconds"))
}

func TestMetricsDisabled(t *testing.T) {
	llm := newTestLlm(t)

	assert.Nil(t, llm.metrics)

	llm.metrics.observeRequest(http.StatusOK, time.Now())
	llm.metrics.observeCache("hit")
}

func TestCacheParamsSystem(t *testing.T) {
	req := textgen.NewRequest().WithText(textgen.RoleUser, "Hi")

	plain := newTestLlm(t)
	withSystem := newTestLlm(t, WithSystem("You are a geographer."))

	assert.NotContains(t, plain.cacheParams(req, req.ToRequest().Config), "system")
	assert.Equal(t, "You are a geographer.", withSystem.cacheParams(req, req.ToRequest().Config)["system"])

	prompt := textgen.NewPromptRequest("raw")

	assert.NotContains(t, withSystem.cacheParams(prompt, prompt.ToRequest().Config), "system")
}
