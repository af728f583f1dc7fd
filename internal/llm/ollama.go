package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// Defaults for the local Ollama endpoint
const (
	DefaultBaseModelURL = "http://localhost:11434"
	DefaultBaseModel    = "codellama"

	// Generation parameters tuned for short, focused code completions
	defaultTemperature = 0.7
	defaultTopP        = 0.95
)

// OllamaBase implements BaseModel against the Ollama /api/generate endpoint
type OllamaBase struct {
	baseURL    string
	model      string
	token      string // Bearer token for hosted endpoints; empty = no auth
	httpClient *http.Client
}

// NewOllamaBase creates a base-model client. Empty arguments fall back to
// the local defaults.
func NewOllamaBase(baseURL, model, token string) *OllamaBase {
	if baseURL == "" {
		baseURL = DefaultBaseModelURL
	}
	if model == "" {
		model = DefaultBaseModel
	}

	return &OllamaBase{
		baseURL: baseURL,
		model:   model,
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate sends the prompt to /api/generate and returns the completion
func (o *OllamaBase) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": defaultTemperature,
			"top_p":       defaultTopP,
		},
	}

	body, err := postJSON(ctx, o.httpClient, o.baseURL+"/api/generate", o.token, payload)
	if err != nil {
		return "", fmt.Errorf("base model generate: %w", err)
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("base model decode: %w", err)
	}

	return resp.Response, nil
}

// Name returns the model identifier
func (o *OllamaBase) Name() string {
	return o.model
}

// OllamaEnhancer implements Enhancer against the Ollama /api/chat endpoint,
// for setups that run the enhancement model locally instead of a hosted API
type OllamaEnhancer struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
}

// DefaultOllamaEnhancerModel is used when no enhancer model is configured
const DefaultOllamaEnhancerModel = "llama3.1"

// NewOllamaEnhancer creates an Ollama-backed enhancer
func NewOllamaEnhancer(baseURL, model, token string) *OllamaEnhancer {
	if baseURL == "" {
		baseURL = DefaultBaseModelURL
	}
	if model == "" {
		model = DefaultOllamaEnhancerModel
	}

	return &OllamaEnhancer{
		baseURL: baseURL,
		model:   model,
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Enhance sends the prompt to /api/chat and returns the reply. Failures are
// reported as types.ErrEnhancementUnavailable.
func (o *OllamaEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	body, err := postJSON(ctx, o.httpClient, o.baseURL+"/api/chat", o.token, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrEnhancementUnavailable, err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode: %v", types.ErrEnhancementUnavailable, err)
	}

	return resp.Message.Content, nil
}

// Name returns the model identifier
func (o *OllamaEnhancer) Name() string {
	return o.model
}

// postJSON posts a JSON payload and returns the response body, treating any
// non-200 status as an error
func postJSON(ctx context.Context, client *http.Client, url, token string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
