// Package llm talks to a local Ollama server. It is the only transport in
// the system: the engine treats it as a black box producing raw text that
// the parser validates. Every call carries a mandatory timeout, and a
// circuit breaker fails fast once the backend is down so a dead server does
// not cost one full timeout per item.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// DefaultBaseURL is the standard local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// DefaultTimeout bounds one generate call. Local models on CPU can be slow;
// anything beyond this is treated as a transport failure for that item only.
const DefaultTimeout = 120 * time.Second

// Client is a minimal Ollama generate-API client.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewClient creates a client for the given base URL. A zero timeout uses
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settings := gobreaker.Settings{
		Name: "ollama",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures == counts.Requests
		},
		Timeout: 30 * time.Second,
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		breaker:    gobreaker.NewCircuitBreaker[string](settings),
	}
}

// GenerateOptions shapes one generate call.
type GenerateOptions struct {
	Model string
	// JSONFormat asks the server to constrain output to a JSON object.
	JSONFormat bool
	// ImagesB64 attaches base64-encoded images for vision models.
	ImagesB64 []string
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate sends one prompt and returns the raw response text. Timeouts,
// connection failures, and server-side errors are all transport failures.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return c.breaker.Execute(func() (string, error) {
		return c.generate(ctx, prompt, opts)
	})
}

func (c *Client) generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"model":  opts.Model,
		"prompt": prompt,
		"stream": false,
	}
	if opts.JSONFormat {
		payload["format"] = "json"
	}
	if len(opts.ImagesB64) > 0 {
		payload["images"] = opts.ImagesB64
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("model backend timed out after %s", c.timeout)
		}
		return "", fmt.Errorf("model backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model backend status %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("model backend error: %s", decoded.Error)
	}
	return strings.TrimSpace(decoded.Response), nil
}

// VisionCaptioner implements extract.Captioner on top of the client with a
// vision-capable model.
type VisionCaptioner struct {
	Client *Client
	Model  string
}

// Caption describes the image at path.
func (v VisionCaptioner) Caption(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	return v.Client.Generate(ctx, captionPrompt, GenerateOptions{
		Model:     v.Model,
		ImagesB64: []string{base64.StdEncoding.EncodeToString(raw)},
	})
}
