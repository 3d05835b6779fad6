package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jira-askbot/internal/common/metrics"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var (
	ErrModelUnavailable = errors.New("MODEL_UNAVAILABLE")
	ErrExtractionFailed = errors.New("EXTRACTION_FAILED")
)

const proxyAuthHeader = "X-PROXY-AUTH"

// Template names label requests in metrics and logs.
const (
	TemplateIntent   = "intent"
	TemplateEntities = "entities"
	TemplateQuery    = "query"
)

// Request is one completion call: a fixed instruction plus the user text.
type Request struct {
	Template    string
	Instruction string
	UserText    string
	Temperature float64
	MaxTokens   int64
}

// Completer is what the classifier, extractor and synthesizer depend on.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	ProxyToken string
	Model      string
	Timeout    time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint. It never
// retries: callers fall back to their rule tier instead.
type Client struct {
	client  openaigo.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		// The SDK insists on a key; proxies that use X-PROXY-AUTH ignore it.
		apiKey = "unused"
	}

	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + "/"),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.ProxyToken != "" {
		opts = append(opts, option.WithHeader(proxyAuthHeader, cfg.ProxyToken))
	}

	return &Client{
		client:  openaigo.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	template := req.Template
	if template == "" {
		template = "default"
	}
	start := time.Now()

	params := openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(req.Instruction),
			openaigo.UserMessage(req.UserText),
		},
		Temperature: openaigo.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaigo.Int(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		metrics.LLMRequestDuration.WithLabelValues(template, "error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	metrics.LLMRequestDuration.WithLabelValues(template, "ok").Observe(time.Since(start).Seconds())

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choice list", ErrExtractionFailed)
	}
	return resp.Choices[0].Message.Content, nil
}

// Disabled is a Completer for deployments without a model endpoint. Every
// call reports the model as unavailable.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", fmt.Errorf("%w: language model disabled", ErrModelUnavailable)
}
