// Command textgen runs a JSONL batch of generation requests against a
// DeepInfra endpoint.
//
// Each input line is a batch item, each output line the matching result:
//
//	{"id":"1","messages":[{"role":"user","content":"What is the capital of France?"}]}
//	{"id":"2","prompt":"Once upon a time","parameters":{"max_new_tokens":50}}
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	textgen "github.com/checkmarble/llm-textgen"
	"github.com/checkmarble/llm-textgen/cache"
	"github.com/checkmarble/llm-textgen/llms/deepinfra"
	"github.com/checkmarble/llm-textgen/tokenizer"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

// execute runs the command and returns its exit code. Deferred calls, such
// as flushing the logger, run before the process exits.
func execute(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("textgen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String("config", "", "path to the YAML configuration file")
	inputPath := flags.String("input", "-", "JSONL batch file, - for stdin")
	outputPath := flags.String("output", "-", "file results are written to, - for stdout")
	printMetrics := flags.Bool("metrics", false, "print metrics to stderr when done")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(stderr, "could not load .env file:", err)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger, err := cfg.Logging.Logger()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *inputPath, *outputPath, *printMetrics); err != nil {
		logger.Error("batch failed", zap.Error(err))
		return 1
	}

	return 0
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger, inputPath, outputPath string, printMetrics bool) error {
	registry := prometheus.NewRegistry()

	llm, closer, err := buildGenerator(cfg, logger, registry)
	if err != nil {
		return err
	}

	defer closer()

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}

	defer in.Close()

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}

	defer out.Close()

	logger.Info("running batch",
		zap.String("endpoint_url", llm.EndpointUrl()),
		zap.String("cache", cfg.Cache.Backend))

	if err := textgen.RunBatch(ctx, llm, in, out); err != nil {
		return err
	}

	if printMetrics {
		return writeMetrics(registry, os.Stderr)
	}

	return nil
}

func buildGenerator(cfg *Config, logger *zap.Logger, reg prometheus.Registerer) (*deepinfra.DeepInfra, func(), error) {
	closer := func() {}

	opts := []deepinfra.Option{
		deepinfra.WithEndpointUrl(cfg.DeepInfra.EndpointUrl),
		deepinfra.WithApiKey(cfg.DeepInfra.ApiKey),
		deepinfra.WithDialogueType(cfg.DeepInfra.DialogueType),
		deepinfra.WithSystem(cfg.DeepInfra.System),
		deepinfra.WithMaxLength(cfg.DeepInfra.MaxLength),
		deepinfra.WithHttpClient(&http.Client{Timeout: cfg.DeepInfra.Timeout}),
		deepinfra.WithLogger(logger),
		deepinfra.WithMetrics(reg),
	}

	switch cfg.Cache.Backend {
	case "memory":
		opts = append(opts, deepinfra.WithCache(cache.NewMemory(cfg.Cache.Ttl)))

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.Db,
		})

		closer = func() {
			if err := client.Close(); err != nil {
				logger.Warn("could not close redis client", zap.Error(err))
			}
		}

		opts = append(opts, deepinfra.WithCache(cache.NewRedis(client, cfg.Cache.Redis.Namespace, cfg.Cache.Ttl)))
	}

	if cfg.Tokenizer.Encoding != "" {
		counter, err := tokenizer.NewTiktoken(cfg.Tokenizer.Encoding)
		if err != nil {
			closer()
			return nil, nil, err
		}

		opts = append(opts, deepinfra.WithTokenCounter(counter))
	}

	llm, err := deepinfra.New(opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return llm, closer, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open batch input")
	}

	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not create batch output")
	}

	return f, nil
}

func writeMetrics(g prometheus.Gatherer, w io.Writer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "could not gather metrics")
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))

	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "could not encode metrics")
		}
	}

	return nil
}
