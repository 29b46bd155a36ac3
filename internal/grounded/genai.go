package grounded

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/metrics"
)

const (
	DefaultModel         = "gemini-3-flash-preview"
	DefaultTimeout       = 30 * time.Second
	DefaultRetryInterval = 500 * time.Millisecond

	throttleKey = "genai"
)

// generator is the subset of *genai.Models the client calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Throttle spaces outbound calls.
type Throttle interface {
	Wait(ctx context.Context, key string) error
}

// Options configures a GenAIClient.
type Options struct {
	APIKey string
	Model  string
	// Timeout bounds a single attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transport failure.
	MaxRetries int
	// RetryInterval is the initial backoff between attempts.
	RetryInterval time.Duration
	Throttle      Throttle
	Logger        *logging.Logger
}

// GenAIClient queries Gemini with Google Search grounding enabled.
type GenAIClient struct {
	models        generator
	model         string
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration
	throttle      Throttle
	logger        *logging.Logger
}

// NewGenAIClient creates a client for the Gemini API.
func NewGenAIClient(ctx context.Context, opts Options) (*GenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenAIClient(client.Models, opts), nil
}

func newGenAIClient(models generator, opts Options) *GenAIClient {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	return &GenAIClient{
		models:        models,
		model:         opts.Model,
		timeout:       opts.Timeout,
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		throttle:      opts.Throttle,
		logger:        opts.Logger,
	}
}

// Model returns the configured model name.
func (c *GenAIClient) Model() string {
	return c.model
}

// Query sends instruction to the model. Transport failures are retried up to
// MaxRetries times with jittered exponential backoff; schema failures are not.
func (c *GenAIClient) Query(ctx context.Context, instruction string, shape Shape) (*Result, error) {
	mode := shape.Mode
	if mode == "" {
		mode = ModeFreeform
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, &GroundedQueryError{Mode: mode, Err: ErrEmptyInstruction}
	}

	config := c.generateConfig(shape)
	start := time.Now()
	attempt := 0

	result, err := backoff.Retry(ctx, func() (*Result, error) {
		attempt++
		return c.generate(ctx, instruction, shape, config)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.RecordRetry(string(mode))
			c.logger.Warn("Retrying grounded query", logging.WithFields(map[string]interface{}{
				"mode":    mode,
				"attempt": attempt,
				"backoff": next.String(),
				"error":   err,
			}))
		}),
	)
	duration := time.Since(start).Seconds()

	if err != nil {
		gqe := queryError(mode, err)
		metrics.RecordQuery(string(mode), outcome(gqe), duration)
		return nil, gqe
	}

	metrics.RecordQuery(string(mode), "success", duration)
	return result, nil
}

func (c *GenAIClient) generate(ctx context.Context, instruction string, shape Shape, config *genai.GenerateContentConfig) (*Result, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, throttleKey); err != nil {
			return nil, backoff.Permanent(err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(instruction), config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}

	result, err := parseBody(resp.Text(), shape, citations(resp))
	if err != nil {
		return nil, backoff.Permanent(&GroundedQueryError{Mode: shape.Mode, Err: err})
	}
	return result, nil
}

func (c *GenAIClient) generateConfig(shape Shape) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if shape.Mode == ModeStructured {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = shape.Schema.toGenAI()
	}
	return config
}

func (c *GenAIClient) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = 8 * c.retryInterval
	return b
}

// citations collects grounding URIs from the first candidate.
func citations(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return []string{}
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return []string{}
	}

	uris := make([]string, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uris = append(uris, chunk.Web.URI)
	}
	return MergeURLs(uris)
}

func outcome(err *GroundedQueryError) string {
	switch {
	case err == nil:
		return "success"
	case isSchemaError(err):
		return "invalid"
	default:
		return "error"
	}
}
