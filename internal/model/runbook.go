package model

// RunbookEntry - 알람 카테고리별 조사 절차 및 심각도
type RunbookEntry struct {
	Category string   `yaml:"-" json:"category"`
	Title    string   `yaml:"title" json:"title"`
	Severity string   `yaml:"severity" json:"severity"` // P1, P2, ...
	Steps    []string `yaml:"steps" json:"steps"`
}
