// SNS 이벤트 처리 (알람 -> 리포트 -> 게시) 비즈니스 로직 정의
//
// 레코드별 처리 흐름:
//  1. Message(JSON) 파싱 (실패해도 "unknown" 알람으로 계속 진행)
//  2. OK 상태면 resolved 알림만 전송하고 종료
//  3. 알람 이름으로 카테고리 분류 -> runbook 조회
//  4. ERROR / WARN 로그 조회
//  5. 리포트 생성 (모델 1회 호출)
//  6. GitHub 이슈 생성 -> Slack 알림
//
// 배치 내 모든 레코드를 순서대로 처리하고 결과를 모아서 응답
// 하나라도 실패하면 statusCode 500

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/google/uuid"
	"github.com/kube-rca/incident-responder/internal/client"
	"github.com/kube-rca/incident-responder/internal/config"
	"github.com/kube-rca/incident-responder/internal/model"
	"github.com/kube-rca/incident-responder/internal/runbook"
	tmpl "github.com/kube-rca/incident-responder/internal/template"
)

const (
	NoRecordsBody      = "No records processed"
	defaultAlarmReason = "No reason provided"
	unknownAlarmName   = "unknown"
	maxLoggedEvent     = 1000
)

// CloudWatch StateChangeTime 포맷 (예: 2026-01-15T09:12:44.123+0000)
const cloudWatchTimeLayout = "2006-01-02T15:04:05.000-0700"

// Dispatcher 구조체 정의
type Dispatcher struct {
	environment string
	catalog     *runbook.Catalog
	evidence    *EvidenceService
	reports     *ReportService
	publisher   *PublishService
	now         func() time.Time
	newID       func() string
}

// Dispatcher 객체 생성
func NewDispatcher(environment string, catalog *runbook.Catalog, evidence *EvidenceService, reports *ReportService, publisher *PublishService) *Dispatcher {
	return &Dispatcher{
		environment: environment,
		catalog:     catalog,
		evidence:    evidence,
		reports:     reports,
		publisher:   publisher,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// NewDispatcherFromConfig - 설정으로 client / service를 모두 생성
func NewDispatcherFromConfig(cfg config.Config, catalog *runbook.Catalog) (*Dispatcher, error) {
	var generator ReportGenerator
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		gemini, err := client.NewGeminiClient(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		generator = gemini
	default:
		generator = client.NewAnthropicClient(cfg.LLM)
	}

	return NewDispatcher(
		cfg.Environment,
		catalog,
		NewEvidenceService(client.NewAxiomClient(cfg.Axiom), cfg.Axiom),
		NewReportService(generator, cfg.LLM.PlatformDescription),
		NewPublishService(client.NewGitHubClient(cfg.GitHub), client.NewSlackClient(cfg.Slack)),
	), nil
}

// Process - SNS 이벤트의 모든 레코드를 처리하고 요약 응답 생성
func (d *Dispatcher) Process(ctx context.Context, event events.SNSEvent) model.InvocationResponse {
	if raw, err := json.Marshal(event); err == nil {
		log.Printf("Received event: %s", tmpl.Truncate(string(raw), maxLoggedEvent))
	}

	if len(event.Records) == 0 {
		return model.InvocationResponse{StatusCode: http.StatusOK, Body: NoRecordsBody}
	}

	summary := model.BatchSummary{
		Status:  "ok",
		Results: make([]model.AlarmResult, 0, len(event.Records)),
	}
	for _, record := range event.Records {
		result := d.HandleRecord(ctx, record.SNS.Message)
		summary.Results = append(summary.Results, result)
		summary.Processed++
		if result.Status == model.AlarmStatusFailed {
			summary.Failed++
		}
	}

	statusCode := http.StatusOK
	if summary.Failed > 0 {
		summary.Status = "error"
		statusCode = http.StatusInternalServerError
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return model.InvocationResponse{StatusCode: http.StatusInternalServerError, Body: err.Error()}
	}
	return model.InvocationResponse{StatusCode: statusCode, Body: string(body)}
}

// HandleRecord - SNS 레코드 1건 처리 (에러는 결과에 담아 반환)
func (d *Dispatcher) HandleRecord(ctx context.Context, message string) model.AlarmResult {
	alarm := d.ParseAlarm(message)
	log.Printf("Processing alarm (alarm=%s, state=%s)", alarm.Name, alarm.State)

	// OK 복구: 조사 없이 resolved 알림만 전송
	if alarm.IsRecovery() {
		d.publisher.Notify(ctx, tmpl.ResolvedMessage(alarm))
		return model.AlarmResult{Alarm: alarm.Name, Status: model.AlarmStatusResolved}
	}

	category := runbook.Classify(alarm.Name)
	ic := model.IncidentContext{
		InvestigationID: d.newID(),
		Alarm:           alarm,
		Runbook:         d.catalog.Lookup(category),
	}
	result := model.AlarmResult{
		Alarm:           alarm.Name,
		Status:          model.AlarmStatusInvestigated,
		Category:        ic.Runbook.Category,
		Severity:        ic.Runbook.Severity,
		InvestigationID: ic.InvestigationID,
	}
	log.Printf("Classified alarm (alarm=%s, category=%s, severity=%s, investigation_id=%s)",
		alarm.Name, ic.Runbook.Category, ic.Runbook.Severity, ic.InvestigationID)

	ic.ErrorLogs, ic.WarnLogs = d.evidence.Gather(ctx, alarm)

	report, err := d.reports.Synthesize(ctx, ic)
	if err != nil {
		return failed(result, err)
	}
	result.ReportLength = len([]rune(report))

	published, err := d.publisher.Publish(ctx, ic, report)
	if err != nil {
		return failed(result, err)
	}
	result.GitHubIssue = published.IssueURL

	log.Printf("Investigation complete (investigation_id=%s, issue=%s, notified=%v)",
		ic.InvestigationID, published.IssueURL, published.Notified)
	return result
}

// ParseAlarm - SNS Message를 AlarmEvent로 변환 (파싱 실패 시 원문을 reason으로 사용)
func (d *Dispatcher) ParseAlarm(message string) model.AlarmEvent {
	var msg model.AlarmMessage
	if err := json.Unmarshal([]byte(message), &msg); err != nil {
		log.Printf("Failed to parse alarm message, continuing with raw text: %v", err)
		msg = model.AlarmMessage{AlarmName: unknownAlarmName, NewStateReason: message}
	}

	alarm := model.AlarmEvent{
		Name:        strings.TrimSpace(msg.AlarmName),
		State:       types.StateValue(strings.TrimSpace(msg.NewStateValue)),
		Reason:      msg.NewStateReason,
		Environment: d.environment,
	}
	if alarm.Name == "" {
		alarm.Name = unknownAlarmName
	}
	if alarm.State == "" {
		alarm.State = types.StateValueAlarm
	}
	if alarm.Reason == "" {
		alarm.Reason = defaultAlarmReason
	}
	alarm.ChangedAt = parseStateChangeTime(msg.StateChangeTime, d.now())
	return alarm
}

func parseStateChangeTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	for _, layout := range []string{cloudWatchTimeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}

func failed(result model.AlarmResult, err error) model.AlarmResult {
	log.Printf("Investigation failed (alarm=%s, investigation_id=%s): %v", result.Alarm, result.InvestigationID, err)
	result.Status = model.AlarmStatusFailed
	result.Error = err.Error()
	return result
}
