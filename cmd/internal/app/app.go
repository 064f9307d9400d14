// Package app wires configuration, storage, integrations and services into
// one graph shared by the API server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/analysis"
	"hseqaudit/cmd/internal/domain/database"
	"hseqaudit/cmd/internal/domain/database/repository"
	"hseqaudit/cmd/internal/domain/policy"
	cognitoclient "hseqaudit/cmd/internal/infrastructure/aws/cognito"
	"hseqaudit/cmd/internal/infrastructure/aws/storage"
	"hseqaudit/cmd/internal/infrastructure/coordination"
	"hseqaudit/cmd/internal/infrastructure/legal"
	"hseqaudit/cmd/internal/infrastructure/llm"
	"hseqaudit/cmd/internal/infrastructure/webhook"
	"hseqaudit/cmd/internal/service"
	"hseqaudit/cmd/internal/service/jobs"
	"hseqaudit/cmd/internal/utils"
	"hseqaudit/cmd/internal/utils/uid"
	"hseqaudit/cmd/internal/utils/validators"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis is nil when REDIS_ADDRESS is not set.
	Redis    *redis.Client
	Tokens   *utils.TokenVerifier
	Notifier *webhook.Client

	Users     *service.DefaultUserService
	Companies *service.DefaultCompanyService
	Checklist *service.DefaultChecklistService
	Audits    *service.DefaultAuditService
	Findings  *service.DefaultFindingService
	NCs       *service.DefaultNCService
	Analysis  *service.DefaultAnalysisService
	Dashboard *service.DefaultDashboardService
	Reports   *service.DefaultReportService
	Watcher   *jobs.OverdueWatcher
}

// New opens the database (migrating it) and builds every service. Optional
// integrations that are not configured fall back to their local variants.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := config.GetLogger()
	uid.Init(cfg.NodeID)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{Config: cfg, DB: db}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	if err := a.Checklist.ReloadLegal(); err != nil {
		log.Warnf("legal corpus not reloaded from database, using builtin documents: %v", err)
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	log := config.GetLogger()
	validate := validators.New()
	recordPolicy := policy.NewRecordPolicy()
	userPolicy := policy.NewUserPolicy()

	companyRepo := repository.NewCompanyRepository(a.DB)
	userRepo := repository.NewUserRepository(a.DB)
	checklistRepo := repository.NewChecklistRepository(a.DB)
	normRefRepo := repository.NewNormReferenceRepository(a.DB)
	auditRepo := repository.NewAuditRepository(a.DB)
	findingRepo := repository.NewFindingRepository(a.DB)
	ncRepo := repository.NewNCRepository(a.DB)
	analysisRepo := repository.NewAnalysisRepository(a.DB)
	seqRepo := repository.NewSequenceRepository(a.DB)

	var locker coordination.Locker
	var sequencer coordination.Sequencer
	if cfg.RedisAddress != "" {
		client, err := coordination.NewRedisClient(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = client
		locker = coordination.NewRedisLocker(client)
		sequencer = coordination.NewRedisSequencer(client, service.CodeFloor(seqRepo))
	} else {
		log.Info("REDIS_ADDRESS not set, using in-process locks and database sequences")
		locker = coordination.NewLocalLocker()
		sequencer = coordination.NewDatabaseSequencer(seqRepo, service.CodeFloor(seqRepo))
	}
	codes := service.NewCodeGenerator(sequencer, seqRepo)

	s3Client, err := storage.NewStorageClient(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}

	var inviter cognitoclient.Inviter
	if cfg.CognitoRegion != "" && cfg.CognitoPoolID != "" {
		inviter, err = cognitoclient.NewCognitoClient(ctx, cfg.CognitoRegion, cfg.CognitoPoolID)
		if err != nil {
			return fmt.Errorf("init cognito client: %w", err)
		}
	}

	a.Tokens, err = utils.NewTokenVerifier(cfg.JWTSecret, cfg.JWKSURL, cfg.SessionTTL)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(cfg.LLMModel, cfg.LLMAPIKey, llm.WithBaseURL(cfg.LLMBaseURL))
	if err != nil {
		return fmt.Errorf("init llm provider: %w", err)
	}
	if llm.IsDisabled(provider) {
		log.Warn("LLM API key missing or mock, analysis runs on the heuristic engine")
	}

	legalIndex := legal.NewIndex(legal.BuiltinDocuments())
	engine := analysis.NewEngine(provider, legalIndex, cfg.LLMTimeout)
	a.Notifier = webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout)

	a.Users = service.NewUserService(userRepo, companyRepo, validate, inviter, userPolicy, a.Tokens)
	a.Companies = service.NewCompanyService(companyRepo, userPolicy, validate)
	a.Checklist = &service.DefaultChecklistService{
		ChecklistRepo: checklistRepo,
		NormRefRepo:   normRefRepo,
		CompanyRepo:   companyRepo,
		UserRepo:      userRepo,
		Locker:        locker,
		Legal:         legalIndex,
		RecordPolicy:  recordPolicy,
		UserPolicy:    userPolicy,
		Validate:      validate,
		LLMModel:      cfg.LLMModel,
		Integrations: contract.IntegrationsResponse{
			LLM:             engine.Enabled(),
			Webhook:         a.Notifier.Enabled(),
			EvidenceStorage: s3Client.Enabled(),
			Redis:           a.Redis != nil,
			IdentityInvites: inviter != nil,
		},
	}
	a.Audits = service.NewAuditService(auditRepo, companyRepo, userRepo, codes, recordPolicy, validate)
	a.Findings = service.NewFindingService(findingRepo, auditRepo, checklistRepo, s3Client, recordPolicy, validate)
	a.NCs = &service.DefaultNCService{
		NCRepo:       ncRepo,
		FindingRepo:  findingRepo,
		AuditRepo:    auditRepo,
		Analyzer:     engine,
		Codes:        codes,
		Locker:       locker,
		Notifier:     a.Notifier,
		RecordPolicy: recordPolicy,
		Validate:     validate,
	}
	a.Analysis = &service.DefaultAnalysisService{
		AnalysisRepo: analysisRepo,
		AuditRepo:    auditRepo,
		NCRepo:       ncRepo,
		Analyzer:     engine,
		Codes:        codes,
		Locker:       locker,
		Notifier:     a.Notifier,
		RecordPolicy: recordPolicy,
		Validate:     validate,
	}
	a.Dashboard = service.NewDashboardService(auditRepo, findingRepo, ncRepo, recordPolicy)
	a.Reports = service.NewReportService(auditRepo, recordPolicy)
	a.Watcher = jobs.NewOverdueWatcher(ncRepo, a.Notifier, cfg.OverdueSweepInterval)
	return nil
}

// PingDatabase is used by the health check.
func (a *App) PingDatabase(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) PingRedis(ctx context.Context) error {
	return a.Redis.Ping(ctx).Err()
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, database.Close(a.DB))
	}
	return errors.Join(errs...)
}
