package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client wraps Ollama API interactions
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Ollama client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // generation can be slow on small hardware
		},
	}
}

// GenerateRequest represents a generation request
type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// GenerateResponse represents a single generation response frame
type GenerateResponse struct {
	Model         string `json:"model"`
	CreatedAt     string `json:"created_at"`
	Response      string `json:"response"`
	Done          bool   `json:"done"`
	TotalDuration int64  `json:"total_duration,omitempty"`
	EvalCount     int    `json:"eval_count,omitempty"`
}

// WithTemperature sets the sampling temperature on a request
func (r *GenerateRequest) WithTemperature(t float64) *GenerateRequest {
	if r.Options == nil {
		r.Options = make(map[string]any)
	}
	r.Options["temperature"] = t
	return r
}

// Generate generates a complete answer, blocking until done
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	var result strings.Builder
	err := c.stream(ctx, req, func(token string) {
		result.WriteString(token)
	})
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// GenerateStream generates an answer, delivering tokens through onToken in
// generation order. The concatenation of all delivered tokens equals the
// final answer returned.
func (c *Client) GenerateStream(ctx context.Context, req *GenerateRequest, onToken func(string)) (string, error) {
	var result strings.Builder
	err := c.stream(ctx, req, func(token string) {
		result.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
	})
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// stream issues the request and decodes the NDJSON response frames
func (c *Client) stream(ctx context.Context, req *GenerateRequest, onToken func(string)) error {
	req.Stream = true
	url := fmt.Sprintf("%s/api/generate", c.baseURL)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, string(body))
	}

	decoder := json.NewDecoder(resp.Body)
	for {
		var genResp GenerateResponse
		if err := decoder.Decode(&genResp); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}

		if genResp.Response != "" {
			onToken(genResp.Response)
		}

		if genResp.Done {
			break
		}
	}

	return nil
}
