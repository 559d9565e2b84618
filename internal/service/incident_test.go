package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/google/go-cmp/cmp"
	"github.com/kube-rca/incident-responder/internal/config"
	"github.com/kube-rca/incident-responder/internal/model"
	"github.com/kube-rca/incident-responder/internal/runbook"
)

var fixedNow = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

type fakeQuerier struct {
	configured bool
	records    []model.LogRecord
	err        error
	apls       []string
	starts     []time.Time
	ends       []time.Time
}

func (f *fakeQuerier) IsConfigured() bool { return f.configured }

func (f *fakeQuerier) Query(ctx context.Context, apl string, start, end time.Time, limit int) ([]model.LogRecord, error) {
	f.apls = append(f.apls, apl)
	f.starts = append(f.starts, start)
	f.ends = append(f.ends, end)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeGenerator struct {
	configured bool
	out        string
	failFor    string
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeGenerator) IsConfigured() bool { return f.configured }

func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSystem, f.lastUser = system, user
	if f.failFor != "" && strings.Contains(user, f.failFor) {
		return "", errors.New("model unavailable")
	}
	return f.out, nil
}

type fakeIssues struct {
	configured bool
	url        string
	err        error
	titles     []string
	bodies     []string
	labels     [][]string
}

func (f *fakeIssues) IsConfigured() bool { return f.configured }

func (f *fakeIssues) CreateIssue(ctx context.Context, title, body string, labels []string) (string, error) {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
	f.labels = append(f.labels, labels)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeNotifier struct {
	configured bool
	err        error
	messages   []string
}

func (f *fakeNotifier) IsConfigured() bool { return f.configured }

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

type fakes struct {
	querier   *fakeQuerier
	generator *fakeGenerator
	issues    *fakeIssues
	notifier  *fakeNotifier
}

func newTestDispatcher(t *testing.T, f fakes) *Dispatcher {
	t.Helper()
	catalog, err := runbook.Default()
	if err != nil {
		t.Fatalf("runbook.Default error: %v", err)
	}

	evidence := NewEvidenceService(f.querier, config.AxiomConfig{
		Dataset:      "cobalt-logs",
		QueryTimeout: time.Second,
		Lookback:     30 * time.Minute,
	})
	evidence.now = func() time.Time { return fixedNow }

	d := NewDispatcher("prod", catalog, evidence,
		NewReportService(f.generator, ""),
		NewPublishService(f.issues, f.notifier),
	)
	d.now = func() time.Time { return fixedNow }
	d.newID = func() string { return "inv-1" }
	return d
}

func unconfigured() fakes {
	return fakes{
		querier:   &fakeQuerier{},
		generator: &fakeGenerator{},
		issues:    &fakeIssues{},
		notifier:  &fakeNotifier{},
	}
}

func configured() fakes {
	return fakes{
		querier:   &fakeQuerier{configured: true, records: []model.LogRecord{{"level": "ERROR", "message": "boom"}}},
		generator: &fakeGenerator{configured: true, out: "## Incident Report: test"},
		issues:    &fakeIssues{configured: true, url: "https://github.com/acme/ops/issues/7"},
		notifier:  &fakeNotifier{configured: true},
	}
}

func alarmMessage(name, state string) string {
	return fmt.Sprintf(`{"AlarmName":%q,"NewStateValue":%q,"NewStateReason":"Threshold Crossed","StateChangeTime":"2026-01-15T09:12:44.123+0000"}`, name, state)
}

func snsEvent(messages ...string) events.SNSEvent {
	event := events.SNSEvent{}
	for _, m := range messages {
		event.Records = append(event.Records, events.SNSEventRecord{SNS: events.SNSEntity{Message: m}})
	}
	return event
}

func TestHandleRecordWithoutCredentials(t *testing.T) {
	f := unconfigured()
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("prod-core-5xx-rate", "ALARM"))

	want := model.AlarmResult{
		Alarm:           "prod-core-5xx-rate",
		Status:          model.AlarmStatusInvestigated,
		Category:        runbook.CategoryHighErrorRate,
		Severity:        "P1",
		GitHubIssue:     "",
		ReportLength:    len(FallbackReport),
		InvestigationID: "inv-1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if len(f.querier.apls) != 0 || f.generator.calls != 0 || len(f.issues.titles) != 0 || len(f.notifier.messages) != 0 {
		t.Fatalf("expected no external calls without credentials")
	}
}

func TestHandleRecordFallbackReportIsPublished(t *testing.T) {
	f := configured()
	f.generator.configured = false
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("prod-core-5xx-rate", "ALARM"))

	if got.Status != model.AlarmStatusInvestigated || got.GitHubIssue != f.issues.url {
		t.Fatalf("result = %+v, want investigated with issue", got)
	}
	if f.generator.calls != 0 {
		t.Fatalf("model calls = %d, want 0 without a key", f.generator.calls)
	}
	if len(f.issues.bodies) != 1 || !strings.Contains(f.issues.bodies[0], FallbackReport) {
		t.Fatalf("issue body must carry %q, got %v", FallbackReport, f.issues.bodies)
	}
	if len(f.notifier.messages) != 1 || !strings.Contains(f.notifier.messages[0], "AI Report: "+f.issues.url) {
		t.Fatalf("alert notification = %v", f.notifier.messages)
	}
}

func TestHandleRecordRecovery(t *testing.T) {
	f := configured()
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "OK"))

	if got.Status != model.AlarmStatusResolved || got.Alarm != "rds-cpu-high" {
		t.Fatalf("result = %+v, want resolved rds-cpu-high", got)
	}
	if len(f.querier.apls) != 0 || f.generator.calls != 0 || len(f.issues.titles) != 0 {
		t.Fatalf("recovery must not query logs, call the model or create issues")
	}
	want := []string{"Resolved: rds-cpu-high in prod returned to OK state"}
	if diff := cmp.Diff(want, f.notifier.messages); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleRecordInvestigates(t *testing.T) {
	f := configured()
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "ALARM"))

	if got.Status != model.AlarmStatusInvestigated || got.Category != runbook.CategoryDatabaseCPU || got.Severity != "P2" {
		t.Fatalf("result = %+v", got)
	}
	if got.GitHubIssue != f.issues.url {
		t.Errorf("GitHubIssue = %q, want %q", got.GitHubIssue, f.issues.url)
	}
	if got.ReportLength != len("## Incident Report: test") {
		t.Errorf("ReportLength = %d", got.ReportLength)
	}
	if f.generator.calls != 1 {
		t.Errorf("model calls = %d, want exactly 1", f.generator.calls)
	}
	if len(f.querier.apls) != 2 {
		t.Errorf("log queries = %d, want 2", len(f.querier.apls))
	}
	if !strings.Contains(f.generator.lastUser, `"message": "boom"`) {
		t.Errorf("evidence missing from prompt")
	}
	if diff := cmp.Diff([]string{"[P2] prod: rds-cpu-high"}, f.issues.titles); diff != "" {
		t.Errorf("issue titles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"incident", "p2", "env:prod", "ai-generated"}, f.issues.labels[0]); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(f.issues.bodies[0], "**Investigation ID**: inv-1") {
		t.Errorf("issue body missing investigation id")
	}
	if len(f.notifier.messages) != 1 || !strings.Contains(f.notifier.messages[0], "AI Report: "+f.issues.url) {
		t.Errorf("alert notification = %v", f.notifier.messages)
	}
}

func TestHandleRecordInsufficientDataIsInvestigated(t *testing.T) {
	f := configured()
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("api-latency-p99", "INSUFFICIENT_DATA"))
	if got.Status != model.AlarmStatusInvestigated || got.Category != runbook.CategoryLatency {
		t.Fatalf("result = %+v", got)
	}
}

func TestHandleRecordModelFailure(t *testing.T) {
	f := configured()
	f.generator.failFor = "rds-cpu-high"
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "ALARM"))

	if got.Status != model.AlarmStatusFailed || !strings.Contains(got.Error, "model unavailable") {
		t.Fatalf("result = %+v, want failed with model error", got)
	}
	if len(f.issues.titles) != 0 || len(f.notifier.messages) != 0 {
		t.Fatalf("nothing must be published after a model failure")
	}
}

func TestHandleRecordIssueFailure(t *testing.T) {
	f := configured()
	f.issues.err = errors.New("github down")
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "ALARM"))
	if got.Status != model.AlarmStatusFailed || !strings.Contains(got.Error, "github down") {
		t.Fatalf("result = %+v, want failed with issue error", got)
	}
	if len(f.notifier.messages) != 0 {
		t.Fatalf("alert must not be sent after issue failure")
	}
}

func TestHandleRecordNotifyFailureIsSwallowed(t *testing.T) {
	f := configured()
	f.notifier.err = errors.New("slack down")
	d := newTestDispatcher(t, f)

	got := d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "ALARM"))
	if got.Status != model.AlarmStatusInvestigated {
		t.Fatalf("result = %+v, want investigated", got)
	}
}

func TestHandleRecordEmptyModelOutput(t *testing.T) {
	f := configured()
	f.generator.out = ""
	d := newTestDispatcher(t, f)

	d.HandleRecord(context.Background(), alarmMessage("rds-cpu-high", "ALARM"))
	if len(f.issues.bodies) != 1 || !strings.Contains(f.issues.bodies[0], EmptyReport) {
		t.Fatalf("issue body must carry %q", EmptyReport)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	f := configured()
	f.generator.failFor = "rds-cpu-high"
	d := newTestDispatcher(t, f)

	resp := d.Process(context.Background(), snsEvent(
		alarmMessage("rds-cpu-high", "ALARM"),
		alarmMessage("api-latency-p99", "ALARM"),
		alarmMessage("db-connection-pool", "OK"),
	))

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", resp.StatusCode)
	}

	var summary model.BatchSummary
	if err := json.Unmarshal([]byte(resp.Body), &summary); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if summary.Processed != 3 || summary.Failed != 1 || summary.Status != "error" {
		t.Fatalf("summary = %+v", summary)
	}

	statuses := []string{}
	for _, r := range summary.Results {
		statuses = append(statuses, r.Status)
	}
	want := []string{model.AlarmStatusFailed, model.AlarmStatusInvestigated, model.AlarmStatusResolved}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessAllSucceeded(t *testing.T) {
	d := newTestDispatcher(t, unconfigured())

	resp := d.Process(context.Background(), snsEvent(alarmMessage("prod-core-5xx-rate", "ALARM")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(resp.Body, `"status":"ok"`) || !strings.Contains(resp.Body, `"github_issue":""`) {
		t.Fatalf("Body = %s", resp.Body)
	}
}

func TestProcessEmptyBatch(t *testing.T) {
	d := newTestDispatcher(t, unconfigured())

	resp := d.Process(context.Background(), events.SNSEvent{})
	want := model.InvocationResponse{StatusCode: http.StatusOK, Body: NoRecordsBody}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAlarm(t *testing.T) {
	d := newTestDispatcher(t, unconfigured())

	tests := []struct {
		name    string
		message string
		want    model.AlarmEvent
	}{
		{
			name:    "cloudwatch",
			message: alarmMessage("rds-cpu-high", "ALARM"),
			want: model.AlarmEvent{
				Name:        "rds-cpu-high",
				State:       types.StateValueAlarm,
				Reason:      "Threshold Crossed",
				ChangedAt:   time.Date(2026, 1, 15, 9, 12, 44, 123000000, time.UTC),
				Environment: "prod",
			},
		},
		{
			name:    "rfc3339",
			message: `{"AlarmName":"x","NewStateValue":"OK","NewStateReason":"r","StateChangeTime":"2026-01-15T09:00:00Z"}`,
			want: model.AlarmEvent{
				Name:        "x",
				State:       types.StateValueOk,
				Reason:      "r",
				ChangedAt:   time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
				Environment: "prod",
			},
		},
		{
			name:    "defaults",
			message: `{}`,
			want: model.AlarmEvent{
				Name:        "unknown",
				State:       types.StateValueAlarm,
				Reason:      "No reason provided",
				ChangedAt:   fixedNow,
				Environment: "prod",
			},
		},
		{
			name:    "malformed",
			message: "not json at all",
			want: model.AlarmEvent{
				Name:        "unknown",
				State:       types.StateValueAlarm,
				Reason:      "not json at all",
				ChangedAt:   fixedNow,
				Environment: "prod",
			},
		},
		{
			name:    "bad-time",
			message: `{"AlarmName":"x","NewStateValue":"INSUFFICIENT_DATA","StateChangeTime":"yesterday"}`,
			want: model.AlarmEvent{
				Name:        "x",
				State:       types.StateValueInsufficientData,
				Reason:      "No reason provided",
				ChangedAt:   fixedNow,
				Environment: "prod",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.ParseAlarm(tt.message)
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
				t.Fatalf("ParseAlarm mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewDispatcherFromConfig(t *testing.T) {
	catalog, err := runbook.Default()
	if err != nil {
		t.Fatalf("runbook.Default error: %v", err)
	}

	for _, provider := range []string{config.ProviderAnthropic, config.ProviderGemini} {
		cfg := config.Config{Environment: "staging", LLM: config.LLMConfig{Provider: provider}}
		d, err := NewDispatcherFromConfig(cfg, catalog)
		if err != nil {
			t.Fatalf("NewDispatcherFromConfig(%s) error: %v", provider, err)
		}
		if d.reports.generator.IsConfigured() {
			t.Errorf("%s generator must be unconfigured without a key", provider)
		}
	}
}
