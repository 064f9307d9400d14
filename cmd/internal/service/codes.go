package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/infrastructure/coordination"
)

const maxCodeAttempts = 5

var ErrCodeExhausted = errors.New("could not allocate a unique code")

// CodeKind binds a code prefix to the table whose code column it fills.
type CodeKind struct {
	Prefix string
	Table  string
}

var (
	AuditCodes = CodeKind{Prefix: "AUD", Table: "audits"}
	NCCodes    = CodeKind{Prefix: "NC", Table: "non_conformities"}
)

var codeKinds = []CodeKind{AuditCodes, NCCodes}

func (k CodeKind) Scope(year int) string {
	return fmt.Sprintf("%s-%d", k.Prefix, year)
}

func (k CodeKind) Format(year int, seq int64) string {
	return fmt.Sprintf("%s-%04d", k.Scope(year), seq)
}

type CodeRepository interface {
	MaxCodeSuffix(table, scope string) (int64, error)
	CodeExists(table, code string) (bool, error)
}

// CodeFloor resolves a sequence scope such as "NC-2026" to the highest code
// suffix already stored for it.
func CodeFloor(repo CodeRepository) coordination.FloorFunc {
	return func(scope string) (int64, error) {
		prefix, _, _ := strings.Cut(scope, "-")
		for _, kind := range codeKinds {
			if kind.Prefix == prefix {
				return repo.MaxCodeSuffix(kind.Table, scope)
			}
		}
		return 0, fmt.Errorf("unknown code scope %q", scope)
	}
}

type CodeGenerator struct {
	seq  coordination.Sequencer
	repo CodeRepository
}

func NewCodeGenerator(seq coordination.Sequencer, repo CodeRepository) *CodeGenerator {
	return &CodeGenerator{seq: seq, repo: repo}
}

// Create takes sequence numbers until persist succeeds. A unique violation on
// the generated code resyncs the counter and retries; any other error is
// returned untouched.
func (g *CodeGenerator) Create(ctx context.Context, kind CodeKind, year int, persist func(code string) error) (string, error) {
	log := config.GetLogger()
	scope := kind.Scope(year)

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		n, err := g.seq.Next(ctx, scope)
		if err != nil {
			return "", fmt.Errorf("next %s: %w", scope, err)
		}

		code := kind.Format(year, n)
		err = persist(code)
		if err == nil {
			return code, nil
		}
		if !database.IsUniqueViolation(err) {
			return "", err
		}

		taken, cerr := g.repo.CodeExists(kind.Table, code)
		if cerr != nil {
			return "", cerr
		}
		if !taken {
			// the violation came from another unique column
			return "", err
		}

		log.Warnf("code %s already taken (attempt %d/%d), resyncing %s", code, attempt, maxCodeAttempts, scope)
		if rerr := g.seq.Resync(ctx, scope); rerr != nil {
			config.LogError(log, "codes", "Create", "Resyncing sequence", scope, rerr)
		}
	}
	return "", ErrCodeExhausted
}
