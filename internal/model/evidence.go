package model

// LogRecord - 로그 서비스가 돌려준 레코드 (구조 검증하지 않음)
type LogRecord map[string]any

// Evidence - 로그 조회 결과
//
// Records는 nil이 아님:
//   - 정상: 조회된 레코드 (매칭이 없으면 빈 슬라이스)
//   - Degraded != "": 사유를 담은 sentinel 레코드 1개 ({"note": ...} 또는 {"error": ...})
type Evidence struct {
	Records  []LogRecord
	Degraded string
}

// IsDegraded - 실제 로그 대신 sentinel 레코드가 들어있는지 여부
func (e Evidence) IsDegraded() bool {
	return e.Degraded != ""
}
