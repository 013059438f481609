// Command stubupstream is a stand-in for the OpenAI chat-completion API,
// used for local runs and load tests of the relay:
//
//	go run ./cmd/stubupstream
//	OPENAI_API_KEY=dummy OPENAI_BASE_URL=http://localhost:2000/v1 go run .
//
// STUB_REPLY sets the reply text, STUB_STATUS forces an error status and
// STUB_DELAY (a Go duration) holds every response back.
package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type stubConfig struct {
	Reply  string
	Status int
	Delay  time.Duration
}

func configFromEnv() stubConfig {
	cfg := stubConfig{Reply: "Hello from dummy backend!", Status: http.StatusOK}
	if v := os.Getenv("STUB_REPLY"); v != "" {
		cfg.Reply = v
	}
	if v, err := strconv.Atoi(os.Getenv("STUB_STATUS")); err == nil {
		cfg.Status = v
	}
	if v, err := time.ParseDuration(os.Getenv("STUB_DELAY")); err == nil {
		cfg.Delay = v
	}
	return cfg
}

func newRouter(cfg stubConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/v1/chat/completions", func(c *gin.Context) {
		var req completionRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "messages are required", "type": "invalid_request_error"}})
			return
		}
		if cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-c.Request.Context().Done():
				return
			}
		}
		if cfg.Status >= 400 {
			c.JSON(cfg.Status, gin.H{"error": gin.H{"message": "stubbed failure", "type": "server_error"}})
			return
		}
		c.JSON(http.StatusOK, CompletionResponse{
			ID:      "chatcmpl-dummy",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []Choice{{
				Message:      Message{Role: "assistant", Content: cfg.Reply},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: len(req.Messages), CompletionTokens: 1, TotalTokens: len(req.Messages) + 1},
		})
	})
	return r
}

func main() {
	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "2000"
	}
	gin.SetMode(gin.ReleaseMode)
	log.Printf("Stub upstream listening on :%s", port)
	if err := newRouter(configFromEnv()).Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
