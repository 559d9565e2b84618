// Package template renders the LLM prompt, the GitHub issue and the Slack messages.
//
// 사용자 메시지 템플릿 변수:
//
//	{{alarm.name}}, {{alarm.state}}, {{alarm.time}}, {{alarm.reason}}, {{alarm.environment}}
//	{{runbook.title}}, {{runbook.severity}}, {{runbook.steps}}
//	{{evidence.errors}}, {{evidence.warnings}}
//
// 치환은 strings.Replacer로 한 번에 수행하므로 로그 내용에 포함된 {{...}}는 다시 치환되지 않음
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kube-rca/incident-responder/internal/model"
)

// 프롬프트 크기 상한 (증거 양과 무관하게 프롬프트 크기 고정)
const (
	ErrorPromptRecords = 20
	WarnPromptRecords  = 10
	ErrorEvidenceChars = 3000
	WarnEvidenceChars  = 1500
	ReasonChars        = 500
)

// DefaultPlatformDescription - PLATFORM_DESCRIPTION 미설정 시 사용
const DefaultPlatformDescription = `Platform: 3 Spring Boot services (core:8080, notification:8081, violations:8082) + React frontend on EKS.
Database: PostgreSQL on RDS. Caching: Caffeine (in-process). Logs: Structured JSON with MDC (requestId, tenantId, userId).`

const systemPromptTemplate = `You are the platform AI incident response agent.

{{platform}}

Your job is to analyze the alarm and log evidence, then produce a structured incident report.

Safety rules:
- NEVER recommend destructive actions without flagging them as requiring human approval
- NEVER include sensitive data (passwords, tokens, PII) in the report
- If uncertain about root cause, say so — do not guess
- Always reference the relevant runbook steps
- Include specific log excerpts as evidence`

// ''' -> ``` (raw string 안에서 backtick 사용 불가)
var userMessageTemplate = strings.ReplaceAll(`## Alert Triggered

**Alarm**: {{alarm.name}}
**State**: {{alarm.state}}
**Time**: {{alarm.time}}
**Reason**: {{alarm.reason}}
**Environment**: {{alarm.environment}}

## Relevant Runbook: {{runbook.title}} ({{runbook.severity}})

Investigation steps:
{{runbook.steps}}

## Recent Error Logs (from Axiom)

'''json
{{evidence.errors}}
'''

## Recent Warning Logs

'''json
{{evidence.warnings}}
'''

Please produce an incident report following this format:

## Incident Report: [Title]
**Alert**: [details]
**Severity**: {{runbook.severity}}
**Time detected**: {{alarm.time}}
**Services affected**: [determine from logs]
**Tenants affected**: [determine from logs]

### Timeline
[reconstruct from evidence]

### Evidence
[cite specific log entries]

### Root Cause Analysis
[your diagnosis]

### Recommended Actions
[numbered list with expected outcomes — flag destructive actions as REQUIRES HUMAN APPROVAL]

### Risk Assessment
- Immediate risk: [high/medium/low]
- Customer impact: [description]
- Data integrity: [assessment]`, "'''", "```")

// SystemPrompt - 플랫폼 설명 + 안전 규칙
func SystemPrompt(platform string) string {
	if strings.TrimSpace(platform) == "" {
		platform = DefaultPlatformDescription
	}
	return strings.NewReplacer("{{platform}}", platform).Replace(systemPromptTemplate)
}

// UserMessage - 알람 정보, runbook, 증거(잘라낸 JSON)로 사용자 메시지 생성
func UserMessage(ic model.IncidentContext) string {
	steps := make([]string, 0, len(ic.Runbook.Steps))
	for _, step := range ic.Runbook.Steps {
		steps = append(steps, "- "+step)
	}

	return strings.NewReplacer(
		"{{alarm.name}}", ic.Alarm.Name,
		"{{alarm.state}}", string(ic.Alarm.State),
		"{{alarm.time}}", formatTime(ic.Alarm.ChangedAt),
		"{{alarm.reason}}", ic.Alarm.Reason,
		"{{alarm.environment}}", ic.Alarm.Environment,
		"{{runbook.title}}", ic.Runbook.Title,
		"{{runbook.severity}}", ic.Runbook.Severity,
		"{{runbook.steps}}", strings.Join(steps, "\n"),
		"{{evidence.errors}}", FormatEvidence(ic.ErrorLogs.Records, ErrorPromptRecords, ErrorEvidenceChars),
		"{{evidence.warnings}}", FormatEvidence(ic.WarnLogs.Records, WarnPromptRecords, WarnEvidenceChars),
	).Replace(userMessageTemplate)
}

// FormatEvidence - 앞에서 maxRecords개를 들여쓰기 JSON으로 직렬화한 뒤 maxChars 글자로 자름
//
// JSON 구조가 중간에 잘릴 수 있음 (크기 상한이 우선)
func FormatEvidence(records []model.LogRecord, maxRecords, maxChars int) string {
	if records == nil {
		records = []model.LogRecord{}
	}
	if len(records) > maxRecords {
		records = records[:maxRecords]
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	serialized := ""
	if err := enc.Encode(records); err != nil {
		serialized = fmt.Sprintf("%v", records)
	} else {
		serialized = strings.TrimSuffix(buf.String(), "\n")
	}
	return Truncate(serialized, maxChars)
}

// Truncate - 최대 n 글자(rune)로 자름 (UTF-8 경계 유지)
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
