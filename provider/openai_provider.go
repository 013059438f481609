package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Conversational roles accepted by the chat-completion API.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ChatMessage represents a single chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one conversation to complete. Zero MaxTokens or
// Temperature leaves the provider default in place.
type CompletionRequest struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents the text output from a completion request.
type CompletionResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// CompletionProvider defines an interface for completion services.
type CompletionProvider interface {
	GetCompletions(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// OpenAIProvider is an implementation of CompletionProvider using OpenAI's API.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Options configures an OpenAIProvider. Empty fields fall back to defaults.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIProvider constructs an OpenAIProvider with a bounded HTTP client.
func NewOpenAIProvider(opts Options) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT3Dot5Turbo
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   opts.Model,
		timeout: opts.Timeout,
	}, nil
}

// Model returns the upstream model identifier requests are sent with.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// GetCompletions sends the conversation to the chat-completion endpoint and
// returns the first choice. Failures come back as *UpstreamError.
func (p *OpenAIProvider) GetCompletions(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	ctx, span := otel.GetTracerProvider().Tracer("relai-chat").Start(ctx, "invoke_provider")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	span.SetAttributes(
		attribute.String("llm.provider", "openai"),
		attribute.String("llm.model", p.model),
		attribute.Int("llm.request.messages", len(messages)),
		attribute.Int("llm.request.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	chatResp, err := p.client.CreateChatCompletion(ctx, chatReq)
	span.SetAttributes(attribute.Int64("llm.request.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		upErr := classifyError(err, p.timeout)
		span.RecordError(err)
		span.SetStatus(codes.Error, upErr.Error())
		span.SetAttributes(attribute.Int("http.status_code", upErr.StatusCode))
		return nil, upErr
	}
	if len(chatResp.Choices) == 0 {
		upErr := &UpstreamError{StatusCode: http.StatusInternalServerError, Details: "no chat choices returned"}
		span.SetStatus(codes.Error, upErr.Details)
		return nil, upErr
	}

	span.SetAttributes(
		attribute.Int("llm.usage.prompt_tokens", chatResp.Usage.PromptTokens),
		attribute.Int("llm.usage.completion_tokens", chatResp.Usage.CompletionTokens),
	)
	return &CompletionResponse{
		Text:             chatResp.Choices[0].Message.Content,
		Model:            chatResp.Model,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
	}, nil
}
