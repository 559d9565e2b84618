package runbook

import "strings"

// Rule - 알람 이름(소문자) 매칭 규칙
type Rule struct {
	Category string
	Match    func(name string) bool
}

// rules - 평가 순서가 곧 우선순위 (첫 매칭 규칙 적용)
//
// 규칙끼리 겹칠 수 있으므로 순서를 바꾸면 분류 결과가 달라짐
// 예: "rds-cpu-latency" -> database-cpu (latency 아님)
var rules = []Rule{
	{Category: CategoryHighErrorRate, Match: contains("5xx")},
	{Category: CategoryDatabaseCPU, Match: contains("cpu", "rds")},
	{Category: CategoryDatabaseConnections, Match: contains("connection")},
	{Category: CategoryLatency, Match: contains("latency")},
}

// Classify - 알람 이름을 runbook 카테고리로 매핑 (대소문자 무시, 매칭 없으면 DefaultCategory)
func Classify(alarmName string) string {
	name := strings.ToLower(alarmName)
	for _, rule := range rules {
		if rule.Match(name) {
			return rule.Category
		}
	}
	return DefaultCategory
}

// contains - 모든 부분 문자열을 포함하면 매칭
func contains(substrs ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range substrs {
			if !strings.Contains(name, s) {
				return false
			}
		}
		return true
	}
}
