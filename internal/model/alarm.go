// CloudWatch 알람 메시지 및 파싱된 알람 이벤트 구조체를 정의
// handler, service, template 레이어에서 공통으로 사용하기 때문에 model 레이어에 별도로 정의

package model

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// AlarmMessage - SNS Message 본문에 담긴 CloudWatch 알람 JSON
// 필요한 필드만 정의 (나머지 필드는 무시)
type AlarmMessage struct {
	AlarmName string `json:"AlarmName"`

	// ALARM | OK | INSUFFICIENT_DATA
	NewStateValue  string `json:"NewStateValue"`
	NewStateReason string `json:"NewStateReason"`
	OldStateValue  string `json:"OldStateValue,omitempty"`

	// 예: "2026-01-15T09:12:44.123+0000"
	StateChangeTime string `json:"StateChangeTime"`

	AlarmDescription string `json:"AlarmDescription,omitempty"`
	Region           string `json:"Region,omitempty"`
	AWSAccountID     string `json:"AWSAccountId,omitempty"`
}

// AlarmEvent - 파싱이 끝난 알람 (이후 변경하지 않음)
type AlarmEvent struct {
	Name   string
	State  types.StateValue
	Reason string

	// ChangedAt: 상태 변경 시각 (파싱 실패 시 수신 시각)
	ChangedAt time.Time

	// Environment: payload가 아닌 설정에서 주입 (예: "prod")
	Environment string
}

// IsRecovery - OK 상태 (조사 불필요, resolved 알림만 전송)
func (a AlarmEvent) IsRecovery() bool {
	return a.State == types.StateValueOk
}
