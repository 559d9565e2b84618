// Anthropic Messages API 클라이언트
//
// 환경변수:
//   - ANTHROPIC_API_KEY: API 키 (없으면 IsConfigured() == false)
//   - ANTHROPIC_URL: API 주소 (default: https://api.anthropic.com)
//   - LLM_MODEL, LLM_MAX_TOKENS, LLM_TIMEOUT
//
// 알람 1건당 한 번만 호출 (재시도, 스트리밍, 멀티턴 없음)

package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/kube-rca/incident-responder/internal/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient 구조체 정의
type AnthropicClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// AnthropicMessage - messages 배열의 단일 메시지
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest - POST /v1/messages 요청 본문
type AnthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []AnthropicMessage `json:"messages"`
}

// AnthropicResponse - 응답 중 텍스트 블록만 사용
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// AnthropicClient 객체 생성
func NewAnthropicClient(cfg config.LLMConfig) *AnthropicClient {
	return &AnthropicClient{
		baseURL:   strings.TrimSuffix(cfg.AnthropicURL, "/"),
		apiKey:    cfg.AnthropicAPIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout, // 리포트 생성 시간 고려
		},
	}
}

// API 키 설정 여부 체크
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Model - 사용하는 모델 ID
func (c *AnthropicClient) Model() string {
	return c.model
}

// Generate - system + 단일 user 메시지로 리포트 생성, 첫 번째 텍스트 블록 반환
func (c *AnthropicClient) Generate(ctx context.Context, system, user string) (string, error) {
	req := AnthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []AnthropicMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp AnthropicResponse
	if err := postJSON(ctx, c.httpClient, "anthropic", c.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "" || block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
