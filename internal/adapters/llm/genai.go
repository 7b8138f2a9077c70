package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/PabloGalante/idefend/internal/domain"
)

// GenAIConfig configures the SDK-backed provider.
// With Vertex set, Project and Location are used instead of APIKey.
type GenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	Vertex   bool
	Project  string
	Location string

	HTTPClient *http.Client
}

// GenAIClient implements domain.Provider with the google.golang.org/genai SDK.
type GenAIClient struct {
	client    *genai.Client
	modelName string
}

func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	if cfg.Vertex {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("genai: project and location are required for the Vertex backend")
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	} else {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("genai: API key is required for the Gemini API backend")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GenAIClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.Provider.
func (g *GenAIClient) Generate(ctx context.Context, req domain.GenerateRequest) (domain.Reply, error) {
	turns := conversationTurns(req.Turns)
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if wireRole(t.Role) == wireRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	temp := req.Config.Temperature
	topP := req.Config.TopP
	topK := float32(req.Config.TopK)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: req.Config.MaxOutputTokens,
	}
	if req.Directive != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.Directive}},
		}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return domain.Reply{}, &domain.ProviderError{
				Kind:       domain.FailureStatus,
				StatusCode: apiErr.Code,
				Detail:     apiErr.Message,
				Err:        err,
			}
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureMalformed, Err: err}
		}
		return domain.Reply{}, &domain.ProviderError{Kind: domain.FailureNetwork, Err: err}
	}

	return domain.Reply{Text: firstCandidateText(res)}, nil
}

func firstCandidateText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 {
		return ""
	}
	c := res.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return ""
	}
	return c.Content.Parts[0].Text
}
