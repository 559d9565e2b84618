package model

// IncidentContext - 알람 1건에 대한 리포트 생성 입력 (프롬프트 렌더링 후 폐기)
type IncidentContext struct {
	InvestigationID string
	Alarm           AlarmEvent
	Runbook         RunbookEntry
	ErrorLogs       Evidence
	WarnLogs        Evidence
}

// PublishResult - 이슈 생성 / 알림 전송 결과 (재시도하지 않음, 로깅 및 응답용)
type PublishResult struct {
	IssueURL string
	Notified bool
}

// 레코드 처리 결과 상태
const (
	AlarmStatusInvestigated = "investigated"
	AlarmStatusResolved     = "resolved"
	AlarmStatusFailed       = "failed"
)

// AlarmResult - SNS 레코드 1건의 처리 요약
type AlarmResult struct {
	Alarm           string `json:"alarm"`
	Status          string `json:"status"`
	Category        string `json:"category,omitempty"`
	Severity        string `json:"severity,omitempty"`
	GitHubIssue     string `json:"github_issue"`
	ReportLength    int    `json:"report_length"`
	InvestigationID string `json:"investigation_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BatchSummary - 한 번의 호출(SNS 이벤트)에 포함된 모든 레코드의 처리 요약
type BatchSummary struct {
	Status    string        `json:"status"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Results   []AlarmResult `json:"results"`
}

// InvocationResponse - Lambda / HTTP / CLI 공통 응답
type InvocationResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
