// Package mockprovider is a standalone OpenAI-compatible upstream used to
// exercise httpadapter.Adapter without a real provider. It echoes whatever
// model id the caller sent (the gateway always sends one of the mock/*
// ids from configs/pricing.yaml) instead of a hardcoded model name, and
// supports the same failure/delay/streaming injection knobs as query
// parameters so resilience and fallback behavior can be driven end to end.
package mockprovider

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter builds a gin.Engine serving the mock chat completions API.
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/v1/chat/completions", handleChatCompletion)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return r
}

type wireRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stream bool `json:"stream"`
}

func handleChatCompletion(c *gin.Context) {
	delayStr := c.Query("delay")
	fail := c.Query("fail")
	failChunkStr := c.Query("fail_chunk")

	var req wireRequest
	_ = c.ShouldBindJSON(&req)

	log.WithFields(log.Fields{
		"model":      req.Model,
		"delay":      delayStr,
		"fail":       fail,
		"stream":     req.Stream,
		"fail_chunk": failChunkStr,
	}).Info("mockprovider: received request")

	if delayStr != "" {
		if ms, err := strconv.Atoi(delayStr); err == nil && ms > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	if fail != "" {
		handleFailure(c, fail)
		return
	}

	if req.Stream {
		failChunk := -1
		if failChunkStr != "" {
			failChunk, _ = strconv.Atoi(failChunkStr)
		}
		handleStreaming(c, req.Model, failChunk)
		return
	}

	handleNormalResponse(c, req.Model)
}

func handleFailure(c *gin.Context, failType string) {
	log.Warnf("mockprovider: simulating failure: %s", failType)

	switch failType {
	case "429":
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{"message": "Rate limit exceeded. Please retry after some time.", "type": "rate_limit_error", "code": "rate_limit_exceeded"},
		})
	case "500":
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"message": "Internal server error", "type": "server_error", "code": "internal_error"},
		})
	case "502":
		c.JSON(http.StatusBadGateway, gin.H{
			"error": gin.H{"message": "Bad gateway", "type": "server_error", "code": "bad_gateway"},
		})
	case "503":
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{"message": "Service temporarily unavailable", "type": "server_error", "code": "service_unavailable"},
		})
	case "timeout":
		time.Sleep(60 * time.Second)
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": gin.H{"message": "Gateway timeout", "type": "timeout_error", "code": "timeout"},
		})
	default:
		code, err := strconv.Atoi(failType)
		if err == nil && code >= 400 && code < 600 {
			c.JSON(code, gin.H{
				"error": gin.H{"message": fmt.Sprintf("Simulated error %d", code), "type": "simulated_error", "code": fmt.Sprintf("error_%d", code)},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"message": "Unknown failure type", "type": "server_error"},
		})
	}
}

func responseText(model string) string {
	switch model {
	case "mock/gpt-4-large-context":
		return "Hello! I'm the large-context mock model, ready for long documents."
	case "mock/gpt-4-balanced":
		return "Hello! I'm the balanced mock model."
	default:
		return "Hello! I'm a mock LLM response. How can I help you today?"
	}
}

func handleNormalResponse(c *gin.Context, model string) {
	if model == "" {
		model = "mock/gpt-4-default"
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      fmt.Sprintf("mock-%d", rand.Intn(100000)),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []gin.H{
			{
				"index":         0,
				"message":       gin.H{"role": "assistant", "content": responseText(model)},
				"finish_reason": "stop",
			},
		},
		"usage": gin.H{
			"prompt_tokens":     10,
			"completion_tokens": 15,
			"total_tokens":      25,
		},
	})
}

func handleStreaming(c *gin.Context, model string, failChunk int) {
	if model == "" {
		model = "mock/gpt-4-default"
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Transfer-Encoding", "chunked")

	chunks := []string{"Hello", " from", " the", " streaming", " mock", " provider", "!"}

	c.Stream(func(w io.Writer) bool {
		for i, chunk := range chunks {
			chunkNum := i + 1

			if failChunk > 0 && chunkNum == failChunk {
				fmt.Fprintf(w, "data: {\"id\":\"mock-%d\",\"choices\":[{\"delta\":{\"content\":\n\n", chunkNum)
				c.Writer.Flush()
				return false
			}

			data := fmt.Sprintf(`{"id":"mock-%d","object":"chat.completion.chunk","model":"%s","choices":[{"index":0,"delta":{"content":"%s"},"finish_reason":null}]}`, chunkNum, model, chunk)
			fmt.Fprintf(w, "data: %s\n\n", data)
			c.Writer.Flush()
			time.Sleep(10 * time.Millisecond)
		}

		finalData := fmt.Sprintf(`{"id":"mock-final","object":"chat.completion.chunk","model":"%s","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`, model)
		fmt.Fprintf(w, "data: %s\n\n", finalData)
		fmt.Fprintf(w, "data: [DONE]\n\n")
		c.Writer.Flush()
		return false
	})
}
