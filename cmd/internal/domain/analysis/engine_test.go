package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/infrastructure/legal"
	"hseqaudit/cmd/internal/infrastructure/llm"
)

type fakeProvider struct {
	calls   int
	content string
	err     error
	block   bool
	lastReq *llm.Request
}

func (f *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.calls++
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return nil, fmt.Errorf("post: %w", ctx.Err())
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content, Model: "fake:model"}, nil
}

func boolPtr(b bool) *bool { return &b }

func nonCompliant(id, requirement, comment string) Finding {
	return Finding{ID: id, Norm: entity.NormISO45001, Clause: "6.1", Requirement: requirement, Comment: comment, Compliant: boolPtr(false)}
}

var audit = AuditContext{Code: "AUD-2026-0001", Type: entity.AuditInternal, Norms: []entity.Norm{entity.NormISO45001}}

func TestAnalyze_NoNonCompliantFindingsSkipsProvider(t *testing.T) {
	p := &fakeProvider{content: "{}"}
	e := NewEngine(p, legal.NewIndex(nil), time.Second)

	out := e.Analyze(context.Background(), audit, []Finding{
		{ID: "1", Compliant: boolPtr(true)},
		{ID: "2"},
	})

	if out.Kind != KindOK || out.Result.Source != entity.SourceNoFindings || out.Result.RiskLevel != entity.RiskLow {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(out.Result.NonConformities) != 0 {
		t.Errorf("expected no NCs, got %d", len(out.Result.NonConformities))
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times, want 0", p.calls)
	}
}

func TestAnalyze_DisabledProviderUsesHeuristic(t *testing.T) {
	e := NewEngine(llm.Disabled(), legal.NewIndex(nil), time.Second)

	var findings []Finding
	for i := 0; i < 6; i++ {
		findings = append(findings, nonCompliant(fmt.Sprint(i), "Control documental", "Registro incompleto"))
	}

	out := e.Analyze(context.Background(), audit, findings)
	if out.Kind != KindDegraded || out.Reason != ReasonDisabled {
		t.Fatalf("expected DEGRADED/DISABLED, got %s/%s", out.Kind, out.Reason)
	}
	if out.Result.Source != entity.SourceHeuristic || out.Result.RiskLevel != entity.RiskHigh {
		t.Errorf("unexpected result %+v", out.Result)
	}
	if len(out.Result.NonConformities) != 6 {
		t.Fatalf("expected 6 NCs, got %d", len(out.Result.NonConformities))
	}
	for _, nc := range out.Result.NonConformities {
		if nc.Severity != entity.SeverityMajor {
			t.Errorf("finding %s severity = %s, want MAJOR", nc.FindingID, nc.Severity)
		}
	}
}

func TestAnalyze_RiskThresholds(t *testing.T) {
	cases := map[int]entity.RiskLevel{1: entity.RiskLow, 2: entity.RiskLow, 3: entity.RiskMedium, 5: entity.RiskMedium, 6: entity.RiskHigh}
	for n, want := range cases {
		if got := HeuristicRisk(n); got != want {
			t.Errorf("HeuristicRisk(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestHeuristicSeverity_Markers(t *testing.T) {
	cases := []struct {
		requirement, comment string
		want                 entity.Severity
	}{
		{"Identificación de peligros", "Existe RIESGO de caída", entity.SeverityCritical},
		{"Política de SST", "", entity.SeverityCritical},
		{"Politica ambiental", "", entity.SeverityCritical},
		{"Requisitos legales", "", entity.SeverityCritical},
		{"Control operacional", "Falla grave", entity.SeverityCritical},
		{"Control documental", "Formato desactualizado", entity.SeverityMajor},
	}
	for _, tc := range cases {
		if got := HeuristicSeverity(tc.requirement, tc.comment); got != tc.want {
			t.Errorf("HeuristicSeverity(%q, %q) = %s, want %s", tc.requirement, tc.comment, got, tc.want)
		}
	}
}

func TestAnalyze_DegradeReasons(t *testing.T) {
	cases := []struct {
		name string
		p    *fakeProvider
		want Reason
	}{
		{"rate limited", &fakeProvider{err: &llm.StatusError{Provider: "anthropic", StatusCode: http.StatusTooManyRequests}}, ReasonRateLimited},
		{"server error", &fakeProvider{err: &llm.StatusError{Provider: "anthropic", StatusCode: http.StatusBadGateway}}, ReasonHTTPStatus},
		{"transport", &fakeProvider{err: errors.New("connection refused")}, ReasonTransport},
		{"empty", &fakeProvider{err: fmt.Errorf("anthropic: %w", llm.ErrEmptyContent)}, ReasonEmptyContent},
		{"blank content", &fakeProvider{content: "   "}, ReasonEmptyContent},
		{"not json", &fakeProvider{content: "Lo siento, no puedo ayudar"}, ReasonMalformedResponse},
		{"bad risk", &fakeProvider{content: `{"summary":"x","riskLevel":"EXTREMO"}`}, ReasonMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(tc.p, nil, time.Second)
			out := e.Analyze(context.Background(), audit, []Finding{nonCompliant("1", "Matriz de riesgos", "")})
			if out.Kind != KindDegraded || out.Reason != tc.want {
				t.Fatalf("got %s/%s, want DEGRADED/%s", out.Kind, out.Reason, tc.want)
			}
			if out.Result == nil || out.Result.Source != entity.SourceHeuristic {
				t.Errorf("degraded outcome must carry the heuristic result, got %+v", out.Result)
			}
		})
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	e := NewEngine(&fakeProvider{block: true}, nil, 20*time.Millisecond)
	out := e.Analyze(context.Background(), audit, []Finding{nonCompliant("1", "r", "c")})
	if out.Kind != KindDegraded || out.Reason != ReasonTimeout {
		t.Fatalf("got %s/%s, want DEGRADED/TIMEOUT", out.Kind, out.Reason)
	}
}

func TestAnalyze_CallerCancellationIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProvider{block: true}
	e := NewEngine(p, nil, time.Minute)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out := e.Analyze(ctx, audit, []Finding{nonCompliant("1", "r", "c")})
	if out.Kind != KindFatal || !errors.Is(out.Err, context.Canceled) {
		t.Fatalf("expected FATAL with context.Canceled, got %+v", out)
	}
	if out.Result != nil {
		t.Error("fatal outcome must not carry a result")
	}
}

func TestAnalyze_ParsesFencedLLMResponse(t *testing.T) {
	content := "```json\n" + `{
		"summary": "Brechas en gestión de riesgos",
		"riskLevel": "medio",
		"nonConformities": [
			{"findingId": "10", "severity": "CRITICAL", "description": "Sin matriz IPER", "legalReference": "DS 44 Art. 7"},
			{"findingId": "10", "severity": "MINOR", "description": "duplicado"},
			{"findingId": "99", "severity": "MAJOR", "description": "inventado"},
			{"findingId": "11", "severity": "bogus", "description": ""}
		],
		"recommendations": ["Elaborar matriz IPER"],
		"legalFindings": [{"norm": "DS 44", "article": "Art. 7", "description": "Gestión preventiva"}]
	}` + "\n```"
	p := &fakeProvider{content: content}
	e := NewEngine(p, legal.NewIndex(nil), time.Second)

	out := e.Analyze(context.Background(), audit, []Finding{
		nonCompliant("10", "Identificación de peligros", "No existe matriz"),
		nonCompliant("11", "Control documental", "Formato antiguo"),
		{ID: "12", Compliant: boolPtr(true), Requirement: "Contexto"},
	})

	if out.Kind != KindOK {
		t.Fatalf("expected OK, got %s/%s", out.Kind, out.Reason)
	}
	res := out.Result
	if res.Source != entity.SourceLLM || res.RiskLevel != entity.RiskMedium {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.NonConformities) != 2 {
		t.Fatalf("expected 2 NCs after filtering, got %+v", res.NonConformities)
	}
	if res.NonConformities[0].FindingID != "10" || res.NonConformities[0].Severity != entity.SeverityCritical {
		t.Errorf("unexpected first NC %+v", res.NonConformities[0])
	}
	if nc := res.NonConformities[1]; nc.Severity != entity.SeverityMajor || nc.Description == "" {
		t.Errorf("invalid severity and empty description should be repaired, got %+v", nc)
	}
	if len(res.Raw) == 0 || strings.HasPrefix(string(res.Raw), "```") {
		t.Errorf("raw response should hold the unfenced JSON, got %q", res.Raw)
	}

	if !strings.Contains(p.lastReq.UserPrompt, "findingId=10") || !strings.Contains(p.lastReq.UserPrompt, "Contexto legal") {
		t.Errorf("prompt missing findings or legal context:\n%s", p.lastReq.UserPrompt)
	}
}

func TestClassifySeverity(t *testing.T) {
	e := NewEngine(&fakeProvider{content: `{"severity":"minor"}`}, nil, time.Second)
	c, err := e.ClassifySeverity(context.Background(), "Requisitos legales", "riesgo")
	if err != nil {
		t.Fatalf("ClassifySeverity: %v", err)
	}
	if c.Severity != entity.SeverityMinor || c.Source != entity.SourceLLM {
		t.Errorf("unexpected classification %+v", c)
	}

	e = NewEngine(llm.Disabled(), nil, time.Second)
	c, _ = e.ClassifySeverity(context.Background(), "Requisitos legales", "")
	if c.Severity != entity.SeverityCritical || c.Reason != ReasonDisabled {
		t.Errorf("unexpected fallback classification %+v", c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.ClassifySeverity(ctx, "x", "y"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestJSONObject(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":                           `{"a":1}`,
		"```\n{}\n```":                                      "{}",
		"  {\"b\":2}  ":                                     `{"b":2}`,
		"Este es el análisis:\n{\"c\":{\"d\":3}}\nSaludos.": `{"c":{"d":3}}`,
		"  sin objeto  ":                                    "sin objeto",
	}
	for in, want := range cases {
		if got := jsonObject(in); got != want {
			t.Errorf("jsonObject(%q) = %q, want %q", in, got, want)
		}
	}
}
