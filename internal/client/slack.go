// Slack Incoming Webhook 클라이언트
//
// 환경변수:
//   - SLACK_WEBHOOK_URL: Incoming Webhook URL (없으면 IsConfigured() == false)
//
// Bot Token(chat.postMessage) 대신 Webhook을 사용하는 이유:
//   - 알람마다 독립된 메시지 1건만 전송 (쓰레드 관리 불필요)
//   - 호출 간 상태(thread_ts 등)를 저장하지 않음

package client

import (
	"context"
	"net/http"

	"github.com/kube-rca/incident-responder/internal/config"
)

// SlackClient 구조체 정의
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

// SlackMessage(메시지 내용) 구조체 정의
type SlackMessage struct {
	Text string `json:"text"` // mrkdwn 본문
}

// SlackClient 객체 생성
func NewSlackClient(cfg config.SlackConfig) *SlackClient {
	return &SlackClient{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Webhook URL 설정 여부 체크
func (c *SlackClient) IsConfigured() bool {
	return c.webhookURL != ""
}

// Send - Webhook으로 메시지 전송 (응답 본문은 "ok" 텍스트라 파싱하지 않음)
func (c *SlackClient) Send(ctx context.Context, text string) error {
	return postJSON(ctx, c.httpClient, "slack", c.webhookURL, nil, SlackMessage{Text: text}, nil)
}
