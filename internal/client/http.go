// 외부 서비스(Axiom, Anthropic, GitHub, Slack) 공통 HTTP 호출 유틸

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// 에러 메시지에 포함할 응답 본문 최대 길이
const maxErrorBody = 512

// APIError - 2xx 이외의 HTTP 응답
type APIError struct {
	Service    string
	StatusCode int
	Body       string // 최대 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

func newAPIError(service string, statusCode int, body []byte) *APIError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{Service: service, StatusCode: statusCode, Body: string(body)}
}

// postJSON - payload를 JSON으로 POST하고 응답을 dest에 파싱 (dest가 nil이면 본문 무시)
func postJSON(ctx context.Context, httpClient *http.Client, service, url string, headers map[string]string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", service, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(service, resp.StatusCode, respBody)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", service, err)
	}
	return nil
}
