package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hseqaudit/cmd/internal/domain/entity"
)

var errMalformed = errors.New("malformed analysis response")

// jsonObject cuts the outermost JSON object out of a model reply. Models wrap
// the object in markdown fences or a sentence often enough that the reply is
// never decoded as is. A reply without braces is returned trimmed so the
// decoder reports it.
func jsonObject(reply string) string {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(reply)
	}
	return reply[start : end+1]
}

func parseResult(raw string) (*Result, error) {
	cleaned := jsonObject(raw)

	var res Result
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	res.RiskLevel = entity.RiskLevel(strings.ToUpper(strings.TrimSpace(string(res.RiskLevel))))
	if !res.RiskLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown risk level %q", errMalformed, res.RiskLevel)
	}
	if strings.TrimSpace(res.Summary) == "" {
		return nil, fmt.Errorf("%w: empty summary", errMalformed)
	}

	if res.NonConformities == nil {
		res.NonConformities = []IdentifiedNC{}
	}
	if res.Recommendations == nil {
		res.Recommendations = []string{}
	}
	if res.LegalFindings == nil {
		res.LegalFindings = []entity.LegalFinding{}
	}
	res.Raw = json.RawMessage(cleaned)
	res.Source = entity.SourceLLM
	return &res, nil
}

func parseSeverity(raw string) (entity.Severity, error) {
	var out struct {
		Severity string `json:"severity"`
	}
	if err := json.Unmarshal([]byte(jsonObject(raw)), &out); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformed, err)
	}

	severity := entity.Severity(strings.ToUpper(strings.TrimSpace(out.Severity)))
	if !severity.Valid() {
		return "", fmt.Errorf("%w: unknown severity %q", errMalformed, out.Severity)
	}
	return severity, nil
}
