// SNS 알람 웹훅 요청을 처리하는 핸들러
//
// 요청 흐름:
//  1. POST /webhook/sns로 SNS 이벤트(Records[]) 또는 SNS HTTP Notification 문서 수신
//  2. events.SNSEvent로 정규화
//  3. Dispatcher에 위임하고 statusCode / body를 HTTP 응답으로 반환

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/kube-rca/incident-responder/internal/model"
)

// EventProcessor - SNS 이벤트 처리 인터페이스 (service.Dispatcher가 구현)
type EventProcessor interface {
	Process(ctx context.Context, event events.SNSEvent) model.InvocationResponse
}

// Alert 핸들러 구조체 정의
type AlertHandler struct {
	processor EventProcessor
}

// Alert 핸들러 객체 생성
func NewAlertHandler(processor EventProcessor) *AlertHandler {
	return &AlertHandler{
		processor: processor,
	}
}

// snsNotification - HTTP(S) 구독으로 직접 전달되는 SNS 문서
type snsNotification struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	Subject      string `json:"Subject"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL"`
}

// SNS 이벤트 1건 최대 크기 (SNS 메시지 상한 256KB에 여유를 둠)
const maxWebhookBody = 1 << 20

func (h *AlertHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid payload"})
		return
	}

	event, err := decodeSNSEvent(payload)
	if err != nil {
		log.Printf("Failed to parse webhook: %v", err)
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid payload"})
		return
	}

	// subject: 인증 미들웨어가 검증한 토큰의 sub (인증 미사용이면 "")
	log.Printf("Received SNS webhook: recordCount=%d, subject=%q", len(event.Records), c.GetString(webhookSubjectKey))

	// Lambda 응답(statusCode/body) 대신 body를 그대로 HTTP 응답 본문으로 사용
	resp := h.processor.Process(c.Request.Context(), event)
	contentType := "text/plain; charset=utf-8"
	if json.Valid([]byte(resp.Body)) {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(resp.StatusCode, contentType, []byte(resp.Body))
}

// decodeSNSEvent - Lambda 이벤트 형식 우선, 아니면 단일 Notification 문서로 해석
func decodeSNSEvent(payload []byte) (events.SNSEvent, error) {
	var event events.SNSEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return events.SNSEvent{}, err
	}
	if len(event.Records) > 0 {
		return event, nil
	}

	var n snsNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return events.SNSEvent{}, err
	}
	switch n.Type {
	case "Notification":
		return events.SNSEvent{Records: []events.SNSEventRecord{{
			EventSource: "aws:sns",
			SNS: events.SNSEntity{
				Type:      n.Type,
				MessageID: n.MessageID,
				TopicArn:  n.TopicArn,
				Subject:   n.Subject,
				Message:   n.Message,
			},
		}}}, nil
	case "SubscriptionConfirmation":
		// 구독 확인은 수동으로 진행 (SubscribeURL 방문)
		log.Printf("Received SNS subscription confirmation (topic=%s, subscribe_url=%s)", n.TopicArn, n.SubscribeURL)
	}
	return events.SNSEvent{}, nil
}
