// Package runbook provides the alarm runbook catalog and the alarm-name classifier.
//
// 카탈로그는 내장 YAML(runbooks.yaml)로 시작 시 한 번 생성되고 이후 변경하지 않음.
// RUNBOOK_FILE이 지정되면 같은 형식의 YAML을 내장 카탈로그 위에 덮어씀 (추가/교체).
package runbook

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kube-rca/incident-responder/internal/model"
	"gopkg.in/yaml.v3"
)

// 카테고리 키
const (
	CategoryHighErrorRate       = "high-error-rate"
	CategoryDatabaseCPU         = "database-cpu"
	CategoryDatabaseConnections = "database-connections"
	CategoryLatency             = "latency"
	CategoryPodCrash            = "pod-crash"
)

// DefaultCategory - 매칭되는 규칙/항목이 없을 때 사용하는 카테고리
const DefaultCategory = CategoryHighErrorRate

//go:embed runbooks.yaml
var defaultRunbooks []byte

// Catalog - 카테고리 -> runbook (읽기 전용)
type Catalog struct {
	entries map[string]model.RunbookEntry
}

// Default - 내장 runbook만으로 카탈로그 생성
func Default() (*Catalog, error) {
	return Load("")
}

// Load - 내장 runbook + overridePath(선택) YAML 병합
func Load(overridePath string) (*Catalog, error) {
	entries, err := parse(defaultRunbooks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded runbooks: %w", err)
	}

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read runbook file: %w", err)
		}
		overrides, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse runbook file %s: %w", overridePath, err)
		}
		for category, entry := range overrides {
			entries[category] = entry
		}
	}

	if _, ok := entries[DefaultCategory]; !ok {
		return nil, fmt.Errorf("runbook catalog has no %q entry", DefaultCategory)
	}
	return &Catalog{entries: entries}, nil
}

func parse(data []byte) (map[string]model.RunbookEntry, error) {
	raw := map[string]model.RunbookEntry{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	entries := make(map[string]model.RunbookEntry, len(raw))
	for category, entry := range raw {
		category = strings.TrimSpace(category)
		if category == "" || entry.Title == "" || entry.Severity == "" || len(entry.Steps) == 0 {
			return nil, fmt.Errorf("runbook %q requires title, severity and steps", category)
		}
		entry.Category = category
		entries[category] = entry
	}
	return entries, nil
}

// Lookup - 카테고리에 해당하는 runbook 반환, 없으면 기본(high-error-rate) runbook
func (c *Catalog) Lookup(category string) model.RunbookEntry {
	entry, ok := c.entries[category]
	if !ok {
		entry = c.entries[DefaultCategory]
	}
	// 호출자가 Steps를 수정해도 카탈로그에 영향 없도록 복사
	entry.Steps = append([]string(nil), entry.Steps...)
	return entry
}

// Categories - 등록된 카테고리 키 (정렬)
func (c *Catalog) Categories() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
