// GitHub Issues API 클라이언트
//
// 환경변수:
//   - GITHUB_TOKEN: 토큰 (oauth2 StaticTokenSource로 Bearer 헤더 설정)
//   - GITHUB_REPO: 대상 저장소 (owner/repo)
//   - GITHUB_API_URL: API 주소 (default: https://api.github.com)
//
// 토큰과 저장소가 모두 있어야 설정된 것으로 판단

package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kube-rca/incident-responder/internal/config"
	"golang.org/x/oauth2"
)

// GitHubClient 구조체 정의
type GitHubClient struct {
	baseURL    string
	repo       string
	configured bool
	httpClient *http.Client
}

// GitHubIssueRequest - POST /repos/{repo}/issues 요청 본문
type GitHubIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// GitHubIssueResponse - 생성된 이슈 중 필요한 필드
type GitHubIssueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// GitHubClient 객체 생성
func NewGitHubClient(cfg config.GitHubConfig) *GitHubClient {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
	}
	httpClient.Timeout = cfg.Timeout

	return &GitHubClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		repo:       strings.Trim(cfg.Repo, "/"),
		configured: cfg.Token != "" && strings.Trim(cfg.Repo, "/") != "",
		httpClient: httpClient,
	}
}

// 토큰, 저장소 설정 여부 체크
func (c *GitHubClient) IsConfigured() bool {
	return c.configured
}

// CreateIssue - 이슈 생성 후 html_url 반환
func (c *GitHubClient) CreateIssue(ctx context.Context, title, body string, labels []string) (string, error) {
	req := GitHubIssueRequest{
		Title:  title,
		Body:   body,
		Labels: labels,
	}
	headers := map[string]string{
		"Accept": "application/vnd.github.v3+json",
	}

	var resp GitHubIssueResponse
	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, c.repo)
	if err := postJSON(ctx, c.httpClient, "github", url, headers, req, &resp); err != nil {
		return "", err
	}
	return resp.HTMLURL, nil
}
