// Package llm provides the chat-completion client for the symptom analysis
// model, together with the resilience layer around it: request rate
// limiting, a circuit breaker, and a completion cache.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/symptom-checker-api/internal/domain"
)

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	rateLimit  *rate.Limiter
	log        *logrus.Logger
}

// NewClient creates a new model client.
func NewClient(cfg domain.ModelConfig, logger *logrus.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Name,
		timeout:    timeout,
		httpClient: &http.Client{Transport: transport},
		rateLimit:  rate.NewLimiter(rate.Limit(rps), 1),
		log:        logger,
	}
}

// NewClientWithHTTPClient is intended for tests; it avoids network access by
// using a custom RoundTripper.
func NewClientWithHTTPClient(cfg domain.ModelConfig, logger *logrus.Logger, httpClient *http.Client) *Client {
	c := NewClient(cfg, logger)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content,omitempty"`
		} `json:"message,omitempty"`
	} `json:"choices"`
}

// Complete sends one analysis request to the model and returns the raw
// completion text. Transport failures, timeouts and non-2xx responses are
// classified as domain.ErrModelUnavailable; the content of a successful
// response is returned untrusted for the normalizer to judge.
func (c *Client) Complete(ctx context.Context, req *domain.AnalysisRequest) (string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w", err)
	}

	body := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserMessage(req)},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.WithError(err).Error("Model request failed")
		return "", fmt.Errorf("calling model endpoint: %v: %w", err, domain.ErrModelUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(raw),
		}).Error("Model endpoint returned error status")
		return "", fmt.Errorf("model endpoint returned status %d: %w", resp.StatusCode, domain.ErrModelUnavailable)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decoding completion envelope: %v: %w", err, domain.ErrModelUnavailable)
	}

	for _, choice := range completion.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content, nil
		}
	}
	return "", nil
}
