// 리포트 게시 비즈니스 로직 정의
//
//   - GitHub 이슈 생성: 실패하면 에러 반환 (호출자가 레코드를 failed로 처리)
//   - Slack 알림: 실패해도 로그만 남김

package service

import (
	"context"
	"fmt"
	"log"

	"github.com/kube-rca/incident-responder/internal/model"
	tmpl "github.com/kube-rca/incident-responder/internal/template"
)

// IssueCreator - 이슈 트래커 인터페이스 (client.GitHubClient가 구현)
type IssueCreator interface {
	IsConfigured() bool
	CreateIssue(ctx context.Context, title, body string, labels []string) (string, error)
}

// Notifier - 채팅 알림 인터페이스 (client.SlackClient가 구현)
type Notifier interface {
	IsConfigured() bool
	Send(ctx context.Context, text string) error
}

// PublishService 구조체 정의
type PublishService struct {
	issues   IssueCreator
	notifier Notifier
}

// PublishService 객체 생성
func NewPublishService(issues IssueCreator, notifier Notifier) *PublishService {
	return &PublishService{
		issues:   issues,
		notifier: notifier,
	}
}

// CreateIssue - 리포트로 이슈 생성 후 URL 반환 (미설정이면 "")
func (s *PublishService) CreateIssue(ctx context.Context, ic model.IncidentContext, report string) (string, error) {
	if !s.issues.IsConfigured() {
		log.Printf("GitHub not configured, skipping issue creation (investigation_id=%s)", ic.InvestigationID)
		return "", nil
	}

	url, err := s.issues.CreateIssue(ctx,
		tmpl.IssueTitle(ic.Alarm, ic.Runbook),
		tmpl.IssueBody(ic, report),
		tmpl.IssueLabels(ic.Alarm, ic.Runbook),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}

	log.Printf("Created issue (investigation_id=%s, url=%s)", ic.InvestigationID, url)
	return url, nil
}

// Notify - 메시지 전송, 성공 여부 반환 (에러는 삼킴)
func (s *PublishService) Notify(ctx context.Context, text string) bool {
	if !s.notifier.IsConfigured() {
		log.Printf("Slack not configured, skipping notification")
		return false
	}
	if err := s.notifier.Send(ctx, text); err != nil {
		log.Printf("Failed to send Slack notification: %v", err)
		return false
	}
	return true
}

// Publish - 이슈 생성 후 알림 전송
func (s *PublishService) Publish(ctx context.Context, ic model.IncidentContext, report string) (model.PublishResult, error) {
	url, err := s.CreateIssue(ctx, ic, report)
	if err != nil {
		return model.PublishResult{}, err
	}
	notified := s.Notify(ctx, tmpl.AlertMessage(ic.Alarm, ic.Runbook, url))
	return model.PublishResult{IssueURL: url, Notified: notified}, nil
}
