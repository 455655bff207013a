// Package gemini implements the LLMService port against the Google
// Gemini REST API (v1beta generateContent).
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sujeethshingade/docster/internal/core/domain"
	"github.com/sujeethshingade/docster/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.LLMService = (*Service)(nil)

// Defaults.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 120 * time.Second
)

// Config configures the Gemini service.
type Config struct {
	// APIKey is the Google AI Studio API key. Required.
	APIKey string

	// Model is the model identifier. Defaults to DefaultModel.
	Model string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// Service calls the Gemini generateContent endpoint.
type Service struct {
	config Config
	client *http.Client
}

// New creates a Gemini service.
func New(config Config) (*Service, error) {
	if config.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Service{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate produces a completion for a single prompt.
func (s *Service) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		},
	}
	return s.generateContent(ctx, req)
}

// Chat runs a multi-turn conversation. System messages become the
// system instruction; assistant turns map to Gemini's "model" role.
func (s *Service) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := generateRequest{
		GenerationConfig: &generationConfig{
			MaxOutputTokens: opts.MaxTokens,
			Temperature:     opts.Temperature,
		},
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			req.SystemInstruction = &content{Parts: []part{{Text: msg.Content}}}
		case "assistant":
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	return s.generateContent(ctx, req)
}

func (s *Service) generateContent(ctx context.Context, req generateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.config.BaseURL, s.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", wrapTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", wrapStatusError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}

	var text bytes.Buffer
	for _, p := range genResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// ModelName returns the configured model identifier.
func (s *Service) ModelName() string {
	return s.config.Model
}

// Ping lists models to verify the API key and connectivity without
// running inference.
func (s *Service) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/models?pageSize=1", s.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini: ping failed with status %d: %w", resp.StatusCode, domain.ErrLLMUnavailable)
	}
	return nil
}

// Close releases resources. The HTTP client holds none beyond idle
// connections.
func (s *Service) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// wrapTransportError marks timeouts and connection failures as
// transient.
func wrapTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.Transient(fmt.Errorf("gemini: request timed out: %w", err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Transient(fmt.Errorf("gemini: request timed out: %w", err))
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return domain.Transient(fmt.Errorf("gemini: request failed: %w", err))
}

// wrapStatusError converts an error status into a domain error.
// Throttling and server errors are transient; everything else is
// permanent.
func wrapStatusError(status int, body []byte) error {
	message := string(body)
	var errResp generateResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
		message = errResp.Error.Message
	}

	err := fmt.Errorf("gemini: api error (status %d): %s", status, message)
	switch {
	case status == http.StatusTooManyRequests:
		return domain.Transient(err)
	case status >= 500:
		return domain.Transient(err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, err.Error())
	default:
		return err
	}
}
