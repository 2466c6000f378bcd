package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"unified-assistant/pkg/config"

	"go.uber.org/zap"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client talks to an Azure-OpenAI-compatible deployment over REST. It covers
// the two calls this service needs: text embedding and a single-shot chat
// completion. Safe for concurrent use.
type Client struct {
	endpoint        string
	apiKey          string
	apiVersion      string
	chatDeployment  string
	embedDeployment string
	temperature     float64
	maxTokens       int
	maxRetries      int
	httpClient      *http.Client
	logger          *zap.Logger
}

func NewClient(cfg *config.AzureOpenAIConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azure openai endpoint is not set")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure openai api key is not set")
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		endpoint:        cfg.Endpoint,
		apiKey:          cfg.APIKey,
		apiVersion:      cfg.APIVersion,
		chatDeployment:  cfg.ChatDeployment,
		embedDeployment: cfg.EmbeddingDeployment,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		maxRetries:      2,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}, nil
}

// Embed converts text into an embedding vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{"input": text}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, c.deploymentURL(c.embedDeployment, "embeddings"), reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

// Complete performs one chat completion. No agent loop: one call, one answer.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := map[string]any{
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
		"stream":      false,
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, c.deploymentURL(c.chatDeployment, "chat/completions"), reqBody, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no response from completion API")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) deploymentURL(deployment, operation string) string {
	u := fmt.Sprintf("%s/openai/deployments/%s/%s", c.endpoint, url.PathEscape(deployment), operation)
	if c.apiVersion != "" {
		u += "?api-version=" + url.QueryEscape(c.apiVersion)
	}
	return u
}

// post sends a JSON request and decodes the JSON response, retrying on 429
// and 5xx with exponential backoff. Retry-After is honored when present.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	waited := false
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && !waited {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
		}
		waited = false

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(respBody))
			// A Retry-After wait replaces the next backoff sleep.
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(time.Duration(secs) * time.Second):
					}
					waited = true
				}
			}
			continue
		}

		if resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(respBody))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	c.logger.Warn("LLM request exhausted retries", zap.String("url", url), zap.Error(lastErr))
	return lastErr
}

func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
