// 인시던트 리포트 생성 비즈니스 로직 정의
//
// 처리 흐름:
//  1. 모델 미설정이면 고정 안내 문구 반환 (네트워크 호출 없음)
//  2. system prompt + user message 렌더링
//  3. 모델 1회 호출 (재시도 없음)
//  4. 빈 응답은 "No response from model"로 대체

package service

import (
	"context"
	"fmt"
	"log"

	"github.com/kube-rca/incident-responder/internal/model"
	tmpl "github.com/kube-rca/incident-responder/internal/template"
)

const (
	FallbackReport = "LLM API key not configured. Manual investigation required."
	EmptyReport    = "No response from model"
)

// ReportGenerator - 추론 모델 인터페이스 (AnthropicClient, GeminiClient가 구현)
type ReportGenerator interface {
	IsConfigured() bool
	Model() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// ReportService 구조체 정의
type ReportService struct {
	generator ReportGenerator
	platform  string
}

// ReportService 객체 생성
func NewReportService(generator ReportGenerator, platform string) *ReportService {
	return &ReportService{
		generator: generator,
		platform:  platform,
	}
}

// Synthesize - IncidentContext로 리포트(markdown) 생성
func (s *ReportService) Synthesize(ctx context.Context, ic model.IncidentContext) (string, error) {
	if !s.generator.IsConfigured() {
		log.Printf("LLM not configured, using fallback report (investigation_id=%s)", ic.InvestigationID)
		return FallbackReport, nil
	}

	log.Printf("Requesting report (investigation_id=%s, model=%s)", ic.InvestigationID, s.generator.Model())
	report, err := s.generator.Generate(ctx, tmpl.SystemPrompt(s.platform), tmpl.UserMessage(ic))
	if err != nil {
		return "", fmt.Errorf("failed to synthesize report: %w", err)
	}
	if report == "" {
		return EmptyReport, nil
	}
	return report, nil
}
