// 로그 증거 수집 비즈니스 로직 정의
//
// 처리 흐름:
//  1. 조회 구간 계산: [min(알람 시각, 현재) - lookback, 현재]
//  2. ERROR 레벨 조회 (최대 30건)
//  3. WARN 레벨 조회 (최대 15건)
//
// 토큰이 없거나 조회가 실패해도 에러를 반환하지 않음 (sentinel 레코드로 대체)

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kube-rca/incident-responder/internal/config"
	"github.com/kube-rca/incident-responder/internal/model"
)

// 레벨별 조회 상한
const (
	ErrorRecordLimit = 30
	WarnRecordLimit  = 15
)

const notConfiguredNote = "Axiom API token not configured"

// LogQuerier - 로그 서비스 인터페이스 (client.AxiomClient가 구현)
type LogQuerier interface {
	IsConfigured() bool
	Query(ctx context.Context, apl string, start, end time.Time, limit int) ([]model.LogRecord, error)
}

// EvidenceService 구조체 정의
type EvidenceService struct {
	querier      LogQuerier
	dataset      string
	queryTimeout time.Duration
	lookback     time.Duration
	now          func() time.Time
}

// EvidenceService 객체 생성
func NewEvidenceService(querier LogQuerier, cfg config.AxiomConfig) *EvidenceService {
	return &EvidenceService{
		querier:      querier,
		dataset:      cfg.Dataset,
		queryTimeout: cfg.QueryTimeout,
		lookback:     cfg.Lookback,
		now:          time.Now,
	}
}

// Gather - ERROR / WARN 로그를 순서대로 조회
func (s *EvidenceService) Gather(ctx context.Context, alarm model.AlarmEvent) (errs, warns model.Evidence) {
	if !s.querier.IsConfigured() {
		log.Printf("Axiom not configured, skipping log queries (alarm=%s)", alarm.Name)
		return degraded("note", notConfiguredNote), degraded("note", notConfiguredNote)
	}

	end := s.now()
	anchor := alarm.ChangedAt
	if anchor.IsZero() || anchor.After(end) {
		anchor = end
	}
	start := anchor.Add(-s.lookback)

	errs = s.query(ctx, "ERROR", ErrorRecordLimit, start, end)
	warns = s.query(ctx, "WARN", WarnRecordLimit, start, end)
	log.Printf("Gathered evidence (alarm=%s, errors=%d, warnings=%d, errors_degraded=%q, warnings_degraded=%q)",
		alarm.Name, len(errs.Records), len(warns.Records), errs.Degraded, warns.Degraded)
	return errs, warns
}

// query - 레벨 하나에 대한 조회 (조회별 독립 timeout)
func (s *EvidenceService) query(ctx context.Context, level string, limit int, start, end time.Time) model.Evidence {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	records, err := s.querier.Query(ctx, s.APL(level, limit), start, end, limit)
	if err != nil {
		log.Printf("Failed to query %s logs: %v", level, err)
		return degraded("error", err.Error())
	}
	if records == nil {
		records = []model.LogRecord{}
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return model.Evidence{Records: records}
}

// APL - 레벨별 최신순 조회 쿼리
func (s *EvidenceService) APL(level string, limit int) string {
	return fmt.Sprintf("['%s'] | where level == '%s' | sort by _time desc | limit %d", s.dataset, level, limit)
}

func degraded(key, reason string) model.Evidence {
	return model.Evidence{
		Records:  []model.LogRecord{{key: reason}},
		Degraded: reason,
	}
}
