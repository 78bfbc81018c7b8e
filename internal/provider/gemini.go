package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini wraps the Google GenAI SDK behind the Provider interface.
type Gemini struct {
	config Config
	client *genai.Client
	logger *zap.Logger
}

// NewGemini creates a Gemini provider. The API key comes from the config.
func NewGemini(ctx context.Context, cfg Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider %s: api key is required", cfg.ID)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{config: cfg, client: client, logger: logger}, nil
}

func (p *Gemini) ID() string   { return p.config.ID }
func (p *Gemini) Name() string { return p.config.Name }

// Chat sends the conversation to Gemini. System messages become the system
// instruction; the rest map onto user/model turns.
func (p *Gemini) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			}
		case "assistant":
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		}
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != genai.RoleUser {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText("请继续。")},
		})
	}

	if req.Temperature > 0 {
		t := float32(req.Temperature)
		config.Temperature = &t
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	out := &ChatResponse{Model: model, FinishReason: "stop"}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.Content = textOf(cand.Content)
		if cand.FinishReason != "" {
			out.FinishReason = string(cand.FinishReason)
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// ListModels reports the configured model. The SDK's model listing needs
// extra permissions, so the static answer keeps health checks cheap.
func (p *Gemini) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{{ID: p.config.Model, Name: p.config.Model, Provider: p.config.ID}}, nil
}

// HealthCheck sends a minimal generation request.
func (p *Gemini) HealthCheck(ctx context.Context) error {
	_, err := p.Chat(ctx, &ChatRequest{
		Messages:  []ChatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 8,
	})
	return err
}

func textOf(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var out string
	for _, part := range c.Parts {
		out += part.Text
	}
	return out
}
