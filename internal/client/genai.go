package client

import (
	"context"
	"net/http"

	"github.com/kube-rca/incident-responder/internal/config"
	"google.golang.org/genai"
)

// GeminiClient - LLM_PROVIDER=gemini 일 때 사용하는 리포트 생성 클라이언트
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiClient - AI_API_KEY가 없으면 미설정 상태의 클라이언트 반환 (에러 아님)
func NewGeminiClient(cfg config.LLMConfig) (*GeminiClient, error) {
	c := &GeminiClient{model: cfg.Model, maxTokens: int32(cfg.MaxTokens)}
	if cfg.GeminiAPIKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

func (c *GeminiClient) IsConfigured() bool {
	return c.client != nil
}

func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) Generate(ctx context.Context, system, user string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		MaxOutputTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return res.Text(), nil
}
