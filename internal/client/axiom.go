// Axiom APL 조회 클라이언트
//
// 환경변수:
//   - AXIOM_API_TOKEN: API 토큰 (없으면 IsConfigured() == false)
//   - AXIOM_URL: API 주소 (default: https://api.axiom.co)
//
// 인증은 oauth2 StaticTokenSource로 Bearer 헤더를 붙임

package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kube-rca/incident-responder/internal/config"
	"github.com/kube-rca/incident-responder/internal/model"
	"golang.org/x/oauth2"
)

// AxiomClient 구조체 정의
type AxiomClient struct {
	baseURL    string
	configured bool
	httpClient *http.Client
}

// aplRequest - POST /v1/datasets/_apl 요청 본문
type aplRequest struct {
	APL       string `json:"apl"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// aplResponse - legacy 포맷 응답 (matches[].data에 실제 레코드)
type aplResponse struct {
	Matches []map[string]any `json:"matches"`
}

// AxiomClient 객체 생성
func NewAxiomClient(cfg config.AxiomConfig) *AxiomClient {
	httpClient := &http.Client{}
	if cfg.APIToken != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.APIToken,
			TokenType:   "Bearer",
		}))
	}
	// 조회별 timeout은 호출자가 context로 지정, 여기서는 상한만 설정
	httpClient.Timeout = 60 * time.Second

	return &AxiomClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		configured: cfg.APIToken != "",
		httpClient: httpClient,
	}
}

// Axiom 토큰 설정 여부 체크
func (c *AxiomClient) IsConfigured() bool {
	return c.configured
}

// Query - APL 쿼리 실행 후 최대 limit개의 레코드 반환
//
// 서비스가 limit보다 많이 돌려줘도 앞에서부터 limit개만 사용
func (c *AxiomClient) Query(ctx context.Context, apl string, start, end time.Time, limit int) ([]model.LogRecord, error) {
	req := aplRequest{
		APL:       apl,
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
	}

	var resp aplResponse
	if err := postJSON(ctx, c.httpClient, "axiom", c.baseURL+"/v1/datasets/_apl?format=legacy", nil, req, &resp); err != nil {
		return nil, err
	}

	matches := resp.Matches
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	records := make([]model.LogRecord, 0, len(matches))
	for _, m := range matches {
		if data, ok := m["data"].(map[string]any); ok {
			records = append(records, model.LogRecord(data))
			continue
		}
		records = append(records, model.LogRecord(m))
	}
	return records, nil
}
