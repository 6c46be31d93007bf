package ollama_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/icebreak/models"
)

const defaultHost = "http://localhost:11434"

// client implements the Provider interface against a local Ollama daemon,
// which serves models straight from files on disk. No API key involved.
type client struct {
	host        string
	model       string
	temperature float64
	httpClient  *http.Client
}

// request represents a request to the generate endpoint
type request struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
}

// response represents a non-streaming response from the generate endpoint
type response struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a new Ollama client. Empty host means the default
// local daemon address.
func NewOllamaClient(host, model string, temperature float64, timeout time.Duration) *client {
	if host == "" {
		host = defaultHost
	}
	return &client{
		host:        host,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *client) Name() string { return "ollama" }

// Generate runs one non-streaming completion against the local daemon.
func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := request{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options{Temperature: c.temperature},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.host+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", models.ErrModelTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: ollama returned status %d", models.ErrModelUnavailable, resp.StatusCode)
	}

	var ollamaResp response
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", models.ErrModelUnavailable, err)
	}
	return ollamaResp.Response, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
