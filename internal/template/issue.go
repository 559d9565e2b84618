package template

import (
	"fmt"
	"strings"

	"github.com/kube-rca/incident-responder/internal/model"
)

const issueBodyTemplate = `> Auto-generated by AI Incident Responder

{{report}}

---

**Alarm details**: ` + "`{{alarm.name}}`" + ` transitioned to ` + "`{{alarm.state}}`" + `
**Trigger reason**: {{alarm.reason}}
**Runbook**: {{runbook.title}}
**Environment**: {{alarm.environment}}
**Investigation ID**: {{investigation.id}}
`

// IssueTitle - "[P1] prod: alarm-name"
func IssueTitle(alarm model.AlarmEvent, runbook model.RunbookEntry) string {
	return fmt.Sprintf("[%s] %s: %s", runbook.Severity, alarm.Environment, alarm.Name)
}

// IssueBody - 리포트 전문 + 메타데이터 footer (reason은 500자까지)
func IssueBody(ic model.IncidentContext, report string) string {
	return strings.NewReplacer(
		"{{report}}", report,
		"{{alarm.name}}", ic.Alarm.Name,
		"{{alarm.state}}", string(ic.Alarm.State),
		"{{alarm.reason}}", Truncate(ic.Alarm.Reason, ReasonChars),
		"{{runbook.title}}", ic.Runbook.Title,
		"{{alarm.environment}}", ic.Alarm.Environment,
		"{{investigation.id}}", ic.InvestigationID,
	).Replace(issueBodyTemplate)
}

// IssueLabels - incident, 소문자 severity, env:<environment>, ai-generated
func IssueLabels(alarm model.AlarmEvent, runbook model.RunbookEntry) []string {
	return []string{
		"incident",
		strings.ToLower(runbook.Severity),
		"env:" + alarm.Environment,
		"ai-generated",
	}
}

// AlertMessage - 조사 완료 후 Slack 알림 (이슈 URL이 없으면 안내 문구)
func AlertMessage(alarm model.AlarmEvent, runbook model.RunbookEntry, issueURL string) string {
	link := issueURL
	if link == "" {
		link = "See GitHub Issues"
	}
	return fmt.Sprintf("*%s Incident — %s*\nAlarm: `%s`\nAI Report: %s\nRunbook: %s",
		runbook.Severity, alarm.Environment, alarm.Name, link, runbook.Title)
}

// ResolvedMessage - OK 상태 복구 알림
func ResolvedMessage(alarm model.AlarmEvent) string {
	return fmt.Sprintf("Resolved: %s in %s returned to OK state", alarm.Name, alarm.Environment)
}
