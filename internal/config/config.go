// 프로세스 시작 시 한 번만 환경변수를 읽어 Config를 생성
// 컴포넌트는 생성자로 Config(또는 하위 설정)를 전달받고, 내부에서 os.Getenv를 호출하지 않음
//
// 모든 값은 선택 사항 (자격 증명이 없으면 해당 단계는 no-op으로 동작)

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

type Config struct {
	Environment string
	Server      ServerConfig
	LLM         LLMConfig
	Axiom       AxiomConfig
	GitHub      GitHubConfig
	Slack       SlackConfig
	Runbook     RunbookConfig
}

type ServerConfig struct {
	Port string
	// JWTSecret: 설정 시 웹훅 요청에 HS256 Bearer 토큰 필요
	JWTSecret string
}

type LLMConfig struct {
	Provider            string
	AnthropicAPIKey     string
	AnthropicURL        string
	GeminiAPIKey        string
	Model               string
	MaxTokens           int
	Timeout             time.Duration
	PlatformDescription string
}

type AxiomConfig struct {
	APIToken     string
	Dataset      string
	BaseURL      string
	QueryTimeout time.Duration
	Lookback     time.Duration
}

type GitHubConfig struct {
	Token   string
	Repo    string
	BaseURL string
	Timeout time.Duration
}

type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

type RunbookConfig struct {
	// File: 내장 runbook 위에 덮어쓸 YAML 파일 경로 (선택)
	File string
}

func Load() (Config, error) {
	provider := strings.ToLower(getenv("LLM_PROVIDER", ProviderAnthropic))
	if provider != ProviderAnthropic && provider != ProviderGemini {
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER: %q", provider)
	}

	// APL 쿼리 ['<dataset>'] 안에 그대로 들어감 (따옴표/괄호/역슬래시 불가)
	dataset := getenv("AXIOM_DATASET", "cobalt-logs")
	if strings.ContainsAny(dataset, "'\"[]\\") {
		return Config{}, fmt.Errorf("invalid AXIOM_DATASET: %q", dataset)
	}

	maxTokens, err := parseInt("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Config{}, err
	}

	durations := map[string]time.Duration{
		"LLM_TIMEOUT":         60 * time.Second,
		"AXIOM_QUERY_TIMEOUT": 20 * time.Second,
		"AXIOM_LOOKBACK":      30 * time.Minute,
		"GITHUB_TIMEOUT":      15 * time.Second,
		"SLACK_TIMEOUT":       10 * time.Second,
	}
	for key, fallback := range durations {
		d, err := parseDuration(key, fallback)
		if err != nil {
			return Config{}, err
		}
		durations[key] = d
	}

	return Config{
		Environment: getenv("ENVIRONMENT", "prod"),
		Server: ServerConfig{
			Port:      getenv("PORT", "8080"),
			JWTSecret: os.Getenv("WEBHOOK_JWT_SECRET"),
		},
		LLM: LLMConfig{
			Provider:            provider,
			AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicURL:        getenv("ANTHROPIC_URL", "https://api.anthropic.com"),
			GeminiAPIKey:        os.Getenv("AI_API_KEY"),
			Model:               getenv("LLM_MODEL", defaultModel(provider)),
			MaxTokens:           maxTokens,
			Timeout:             durations["LLM_TIMEOUT"],
			PlatformDescription: os.Getenv("PLATFORM_DESCRIPTION"),
		},
		Axiom: AxiomConfig{
			APIToken:     os.Getenv("AXIOM_API_TOKEN"),
			Dataset:      dataset,
			BaseURL:      getenv("AXIOM_URL", "https://api.axiom.co"),
			QueryTimeout: durations["AXIOM_QUERY_TIMEOUT"],
			Lookback:     durations["AXIOM_LOOKBACK"],
		},
		GitHub: GitHubConfig{
			Token:   os.Getenv("GITHUB_TOKEN"),
			Repo:    os.Getenv("GITHUB_REPO"),
			BaseURL: getenv("GITHUB_API_URL", "https://api.github.com"),
			Timeout: durations["GITHUB_TIMEOUT"],
		},
		Slack: SlackConfig{
			WebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
			Timeout:    durations["SLACK_TIMEOUT"],
		},
		Runbook: RunbookConfig{
			File: os.Getenv("RUNBOOK_FILE"),
		},
	}, nil
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultAnthropicModel
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}
