package usecase

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	"github.com/inkwell-cms/inkwell/domains/health"
	"github.com/inkwell-cms/inkwell/infrastructure/valkey"
)

type healthService struct {
	db        *gorm.DB
	generator domainGenerate.IGenerateUsecase
	valkey    *valkey.Client
}

// NewHealthService builds the aggregate health probe. The valkey client
// may be nil when caching is disabled; that component is then skipped.
func NewHealthService(db *gorm.DB, generator domainGenerate.IGenerateUsecase, vk *valkey.Client) health.IHealthUsecase {
	return &healthService{db: db, generator: generator, valkey: vk}
}

func (s *healthService) Check(ctx context.Context) health.Report {
	report := health.Report{
		Status:     health.StatusOk,
		Components: map[string]health.Component{},
		CheckedAt:  time.Now().UTC(),
	}
	if coreconfig.Global != nil {
		report.Version = coreconfig.Global.App.Version
	}

	report.Components["api"] = health.Component{Status: health.StatusOk}
	report.Components["database"] = s.checkDatabase(ctx)
	report.Components["llm"] = s.checkLLM(ctx)
	if s.valkey != nil {
		report.Components["valkey"] = s.checkValkey()
	}

	for _, c := range report.Components {
		if c.Status != health.StatusOk {
			report.Status = health.StatusDegraded
			break
		}
	}
	return report
}

func (s *healthService) checkDatabase(ctx context.Context) health.Component {
	if s.db == nil {
		return health.Component{Status: health.StatusError, Message: "database not initialized"}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return health.Component{Status: health.StatusError, Message: err.Error()}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return health.Component{Status: health.StatusError, Message: err.Error()}
	}
	return health.Component{Status: health.StatusOk}
}

func (s *healthService) checkLLM(ctx context.Context) health.Component {
	if s.generator == nil {
		return health.Component{Status: health.StatusError, Message: "generator not configured"}
	}
	if !s.generator.Healthy(ctx) {
		return health.Component{
			Status:  health.StatusError,
			Message: fmt.Sprintf("%s provider unreachable", s.generator.ProviderName()),
		}
	}
	component := health.Component{Status: health.StatusOk}
	if models, err := s.generator.Models(ctx); err == nil {
		component.Models = models
	}
	return component
}

func (s *healthService) checkValkey() health.Component {
	if !s.valkey.IsConnected() {
		return health.Component{Status: health.StatusError, Message: "ping failed"}
	}
	return health.Component{Status: health.StatusOk}
}
