package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/infrastructure/legal"
	"hseqaudit/cmd/internal/infrastructure/llm"
)

const (
	moduleName     = "analysis"
	legalTopK      = 3
	analysisTokens = 4096
	severityTokens = 64
)

type LegalLookup interface {
	Search(query string, k int) []legal.Match
}

// Engine turns audit findings into an analysis, through the LLM provider when
// it answers correctly and through the keyword heuristic otherwise.
type Engine struct {
	provider llm.Provider
	legal    LegalLookup
	timeout  time.Duration
}

func NewEngine(provider llm.Provider, lookup LegalLookup, timeout time.Duration) *Engine {
	if provider == nil {
		provider = llm.Disabled()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{provider: provider, legal: lookup, timeout: timeout}
}

func (e *Engine) Enabled() bool {
	return !llm.IsDisabled(e.provider)
}

func (e *Engine) Analyze(ctx context.Context, audit AuditContext, findings []Finding) Outcome {
	nonCompliant := nonCompliantOf(findings)
	if len(nonCompliant) == 0 {
		return Outcome{Kind: KindOK, Result: noFindingsResult(len(findings))}
	}

	var refs []legal.Match
	seen := map[string]bool{}
	for _, f := range nonCompliant {
		for _, m := range e.legalContext(f, legalTopK) {
			key := m.Name + "|" + m.Article
			if !seen[key] {
				seen[key] = true
				refs = append(refs, m)
			}
		}
	}

	content, reason, err := e.complete(ctx, &llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildPrompt(audit, findings, refs),
		Temperature:  0.2,
		MaxTokens:    analysisTokens,
	})
	if err != nil {
		return Outcome{Kind: KindFatal, Err: err}
	}
	if reason != "" {
		return Outcome{Kind: KindDegraded, Reason: reason, Result: e.heuristic(findings)}
	}

	res, err := parseResult(content)
	if err != nil {
		config.LogError(config.GetLogger(), moduleName, "Analyze", "Parsing provider response", audit.Code, err)
		return Outcome{Kind: KindDegraded, Reason: ReasonMalformedResponse, Result: e.heuristic(findings)}
	}

	res.NonConformities = keepKnown(res.NonConformities, nonCompliant, audit.Code)
	return Outcome{Kind: KindOK, Result: res}
}

// ClassifySeverity asks the provider for the severity of one non-compliant
// finding, falling back to the keyword heuristic. The error is only set when
// ctx itself was cancelled.
func (e *Engine) ClassifySeverity(ctx context.Context, requirement, comment string) (Classification, error) {
	content, reason, err := e.complete(ctx, &llm.Request{
		SystemPrompt: severityPrompt,
		UserPrompt:   buildSeverityPrompt(requirement, comment),
		MaxTokens:    severityTokens,
	})
	if err != nil {
		return Classification{}, err
	}

	if reason == "" {
		severity, perr := parseSeverity(content)
		if perr == nil {
			return Classification{Severity: severity, Source: entity.SourceLLM}, nil
		}
		config.LogError(config.GetLogger(), moduleName, "ClassifySeverity", "Parsing provider response", nil, perr)
		reason = ReasonMalformedResponse
	}

	return Classification{
		Severity: HeuristicSeverity(requirement, comment),
		Source:   entity.SourceHeuristic,
		Reason:   reason,
	}, nil
}

// complete runs one provider call under the engine timeout. Failures come
// back as a degrade reason; err is reserved for caller cancellation.
func (e *Engine) complete(ctx context.Context, req *llm.Request) (string, Reason, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.provider.Complete(callCtx, req)
	if err == nil {
		if strings.TrimSpace(resp.Content) == "" {
			return "", ReasonEmptyContent, nil
		}
		return resp.Content, "", nil
	}

	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}

	reason := classifyError(err)
	if reason != ReasonDisabled {
		config.LogError(config.GetLogger(), moduleName, "complete", "Provider call failed, using heuristic", reason, err)
	}
	return "", reason, nil
}

func classifyError(err error) Reason {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrDisabled):
		return ReasonDisabled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.As(err, &statusErr):
		if statusErr.RateLimited() {
			return ReasonRateLimited
		}
		return ReasonHTTPStatus
	case errors.Is(err, llm.ErrEmptyContent):
		return ReasonEmptyContent
	default:
		return ReasonTransport
	}
}

func (e *Engine) legalContext(f Finding, k int) []legal.Match {
	if e.legal == nil {
		return nil
	}
	return e.legal.Search(f.Requirement+" "+f.Comment, k)
}

// keepKnown drops entries that point at unknown or compliant findings, keeps
// the first entry per finding and repairs invalid severities.
func keepKnown(ncs []IdentifiedNC, nonCompliant []Finding, auditCode string) []IdentifiedNC {
	byID := make(map[string]Finding, len(nonCompliant))
	for _, f := range nonCompliant {
		byID[f.ID] = f
	}

	out := make([]IdentifiedNC, 0, len(ncs))
	used := map[string]bool{}
	for _, nc := range ncs {
		f, ok := byID[nc.FindingID]
		if !ok || used[nc.FindingID] {
			config.GetLogger().Warnf("analysis of %s referenced unknown or repeated finding %q, dropping it", auditCode, nc.FindingID)
			continue
		}
		used[nc.FindingID] = true

		nc.Severity = entity.Severity(strings.ToUpper(string(nc.Severity)))
		if !nc.Severity.Valid() {
			nc.Severity = HeuristicSeverity(f.Requirement, f.Comment)
		}
		if strings.TrimSpace(nc.Description) == "" {
			nc.Description = describe(f)
		}
		if nc.LegalReference == "" {
			nc.LegalReference = f.LegalRef
		}
		out = append(out, nc)
	}
	return out
}
