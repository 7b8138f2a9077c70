package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.5-flash"

	maxErrorBody = 512
)

// GeminiConfig holds configuration for the REST Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds one HTTP round trip. Zero means no client-side limit.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// DefaultGeminiConfig returns the production endpoint and model.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		BaseURL: DefaultGeminiBaseURL,
		Model:   DefaultGeminiModel,
	}
}

// GeminiClient implements domain.Provider against the generateContent REST endpoint.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &GeminiClient{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}
}

// BuildGeminiRequest maps a session request onto the wire format.
func BuildGeminiRequest(req domain.GenerateRequest) GeminiRequest {
	turns := conversationTurns(req.Turns)
	contents := make([]GeminiContent, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, GeminiContent{
			Role:  wireRole(t.Role),
			Parts: []GeminiPart{{Text: t.Text}},
		})
	}

	body := GeminiRequest{
		Contents: contents,
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     req.Config.Temperature,
			TopK:            req.Config.TopK,
			TopP:            req.Config.TopP,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		},
	}
	if req.Directive != "" {
		body.SystemInstruction = &GeminiContent{
			Parts: []GeminiPart{{Text: req.Directive}},
		}
	}
	return body
}

// Generate implements domain.Provider.
func (c *GeminiClient) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Reply, error) {
	log := observability.LoggerFromContext(ctx).With("provider", "gemini", "model", c.model)

	jsonData, err := json.Marshal(BuildGeminiRequest(req))
	if err != nil {
		return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureMalformed, Detail: "encode request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureNetwork, Detail: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debugw("sending request", "turns", len(req.Turns), "body_len", len(jsonData))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureNetwork, StatusCode: resp.StatusCode, Detail: "read body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warnw("non-success status", "status", resp.StatusCode)
		return domain.Reply{}, &domain.ProviderError{
			Kind:       domain.FailureStatus,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(raw),
		}
	}

	var parsed GeminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Reply{}, &domain.ProviderError{
			Kind:       domain.FailureMalformed,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	return domain.Reply{Text: parsed.firstText()}, nil
}

// errorDetail prefers the provider's error.message and falls back to a
// truncated body.
func errorDetail(raw []byte) string {
	var parsed GeminiResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
