package routes

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/like-mike/relai-chat/metrics"
	providerpkg "github.com/like-mike/relai-chat/provider"
	"github.com/like-mike/relai-chat/shared/config"
)

const (
	errRelayDisabled   = "OPENAI_API_KEY is not configured on the server"
	errInvalidBody     = "invalid request body"
	errMessagesMissing = "messages missing"
	errUpstream        = "OpenAI request failed"
	errNoReply         = "no reply received"
)

// ChatRequest represents the JSON body for /api/chat.
type ChatRequest struct {
	Messages []providerpkg.ChatMessage `json:"messages"`
}

// ChatResponse is the success envelope.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the failure envelope. Details is set for upstream failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type chatHandler struct {
	cfg      *config.Config
	provider providerpkg.CompletionProvider
}

func (h *chatHandler) enabled() bool {
	return h.cfg.RelayEnabled() && h.provider != nil
}

// Chat relays the caller's conversation upstream and returns the reply.
func (h *chatHandler) Chat(c *fiber.Ctx) error {
	if !h.enabled() {
		metrics.RelayResultsTotal.WithLabelValues("chat", "disabled").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: errRelayDisabled})
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		metrics.RelayResultsTotal.WithLabelValues("chat", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: errInvalidBody})
	}
	if len(req.Messages) == 0 {
		metrics.RelayResultsTotal.WithLabelValues("chat", "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: errMessagesMissing})
	}

	return h.relay(c, "chat", &providerpkg.CompletionRequest{
		Messages:    req.Messages,
		MaxTokens:   h.cfg.MaxTokens,
		Temperature: h.cfg.Temperature,
	})
}

// Probe sends one fixed message upstream to confirm the key works.
func (h *chatHandler) Probe(c *fiber.Ctx) error {
	if !h.enabled() {
		metrics.RelayResultsTotal.WithLabelValues("test", "disabled").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: errRelayDisabled})
	}

	return h.relay(c, "test", &providerpkg.CompletionRequest{
		Messages:  []providerpkg.ChatMessage{{Role: providerpkg.RoleUser, Content: h.cfg.ProbeMessage}},
		MaxTokens: h.cfg.ProbeMaxTokens,
	})
}

func (h *chatHandler) relay(c *fiber.Ctx, endpoint string, req *providerpkg.CompletionRequest) error {
	start := time.Now()
	resp, err := h.provider.GetCompletions(c.UserContext(), req)
	metrics.UpstreamDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		status := fiber.StatusInternalServerError
		details := err.Error()
		result := "upstream_error"

		var upErr *providerpkg.UpstreamError
		if errors.As(err, &upErr) {
			status = upErr.StatusCode
			details = upErr.Details
			if upErr.Timeout {
				result = "timeout"
			}
		}

		metrics.RelayResultsTotal.WithLabelValues(endpoint, result).Inc()
		slog.Error(errUpstream,
			"endpoint", endpoint,
			"status", status,
			"details", details,
			"request_id", requestID(c),
		)
		return c.Status(status).JSON(ErrorResponse{Error: errUpstream, Details: details})
	}

	metrics.LlmTokens.WithLabelValues(endpoint, "prompt").Observe(float64(resp.PromptTokens))
	metrics.LlmTokens.WithLabelValues(endpoint, "completion").Observe(float64(resp.CompletionTokens))

	if strings.TrimSpace(resp.Text) == "" && !h.cfg.AllowEmptyReply {
		metrics.RelayResultsTotal.WithLabelValues(endpoint, "empty_reply").Inc()
		slog.Error(errNoReply, "endpoint", endpoint, "model", resp.Model, "request_id", requestID(c))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   errNoReply,
			Details: "upstream returned an empty completion",
		})
	}

	metrics.RelayResultsTotal.WithLabelValues(endpoint, "ok").Inc()
	return c.JSON(ChatResponse{Reply: resp.Text})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
