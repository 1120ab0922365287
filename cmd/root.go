package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	coreDB "github.com/inkwell-cms/inkwell/core/database"
	settingsApp "github.com/inkwell-cms/inkwell/core/settings/application"
	domainAnalytics "github.com/inkwell-cms/inkwell/domains/analytics"
	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	domainHealth "github.com/inkwell-cms/inkwell/domains/health"
	domainKeyword "github.com/inkwell-cms/inkwell/domains/keyword"
	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	"github.com/inkwell-cms/inkwell/infrastructure/valkey"
	"github.com/inkwell-cms/inkwell/integrations/gemini"
	"github.com/inkwell-cms/inkwell/integrations/lmstudio"
	"github.com/inkwell-cms/inkwell/pkg/pubworker"
	"github.com/inkwell-cms/inkwell/pkg/utils"
	"github.com/inkwell-cms/inkwell/schedule/application"
	"github.com/inkwell-cms/inkwell/schedule/repository"
	scheduleUsecaseLayer "github.com/inkwell-cms/inkwell/schedule/usecase"
	"github.com/inkwell-cms/inkwell/usecase"
)

var (
	// Usecases shared by the rest and mcp subcommands.
	generateUsecase  domainGenerate.IGenerateUsecase
	blogUsecase      domainBlog.IBlogUsecase
	socialUsecase    domainSocial.ISocialUsecase
	keywordUsecase   domainKeyword.IKeywordUsecase
	analyticsUsecase domainAnalytics.IAnalyticsUsecase
	scheduleUsecase  domainSchedule.IScheduleUsecase
	healthUsecase    domainHealth.IHealthUsecase
	settingsService  *settingsApp.SettingsService

	// Scheduler plumbing.
	scheduleRepository repository.IScheduleRepository
	scheduleRunner     *application.Runner

	vkClient *valkey.Client
	runnerID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Content management backend with LLM generation and publish scheduling",
	Long: `Inkwell manages blog and social content, generates drafts with a local
or hosted LLM, and publishes on schedule. Run "rest" for the HTTP API or
"mcp" to expose the same capabilities to AI agents over MCP.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	// Then initialize other components
	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	pf := rootCmd.PersistentFlags()

	pf.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	pf.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	pf.StringP("basic-auth", "b", "", "basic auth credential | -b=yourUsername:yourPassword")
	pf.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/inkwell"`)
	pf.String("trusted-proxies", "", `trusted proxy IP ranges for reverse proxy deployments --trusted-proxies <string> | example: --trusted-proxies="10.0.0.0/8,172.16.0.0/12"`)
	pf.String("db-driver", "", `database driver, sqlite (default) or postgres --db-driver <string> | example: --db-driver=postgres`)

	_ = viper.BindPFlag("app_port", pf.Lookup("port"))
	_ = viper.BindPFlag("app_debug", pf.Lookup("debug"))
	_ = viper.BindPFlag("app_basic_auth", pf.Lookup("basic-auth"))
	_ = viper.BindPFlag("app_base_path", pf.Lookup("base-path"))
	_ = viper.BindPFlag("app_trusted_proxies", pf.Lookup("trusted-proxies"))
	_ = viper.BindPFlag("db_driver", pf.Lookup("db-driver"))
}

// initEnvConfig loads the configuration and lets flags win over the
// environment.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[APP] Failed to load configuration: %v", err)
	}

	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetString("app_basic_auth"); v != "" {
		cfg.App.BasicAuth = strings.Split(v, ",")
	}
	if v := viper.GetString("app_base_path"); v != "" {
		cfg.App.BasePath = v
	}
	if v := viper.GetString("app_trusted_proxies"); v != "" {
		cfg.App.TrustedProxies = strings.Split(v, ",")
	}
	if v := viper.GetString("db_driver"); v != "" {
		cfg.Database.Driver = v
	}
}

func initApp() {
	cfg := coreconfig.Global

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Preparing folders if not exist
	if err := utils.CreateFolder(cfg.Paths.Storages, cfg.Paths.Statics, cfg.Paths.Media); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] Failed to connect database: %v", err)
	}
	sqlDB, err := coreDB.SQLDB()
	if err != nil {
		logrus.Fatalf("[APP] Failed to get sql.DB: %v", err)
	}

	settingsService = settingsApp.NewSettingsService(db)
	if err := settingsService.InitSchema(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init settings schema: %v", err)
	}

	// Valkey is optional; without it the instance runs standalone and the
	// claim protocol alone prevents double publishes.
	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Warnf("[APP] Valkey unavailable, continuing standalone: %v", err)
			vkClient = nil
		}
	}

	runnerID = cfg.App.ServerID
	if runnerID == "" {
		runnerID = uuid.NewString()
	}

	// 1. LLM provider and generation
	var provider domainGenerate.Provider
	switch cfg.LLM.Provider {
	case "gemini":
		provider = gemini.NewProvider(cfg.LLM)
	default:
		provider = lmstudio.NewProvider(cfg.LLM)
	}
	generateUsecase = usecase.NewGenerateService(provider)

	// 2. Schedule storage
	repo := repository.NewScheduleGormRepository(db, sqlDB, cfg.Database.Driver)
	if err := repo.InitSchema(ctx); err != nil {
		logrus.Fatalf("[APP] Failed to init schedule schema: %v", err)
	}
	scheduleRepository = repo

	// 3. Content usecases
	blogUsecase = usecase.NewBlogService(db, scheduleRepository, generateUsecase)
	socialUsecase = usecase.NewSocialService(db, scheduleRepository, generateUsecase)
	keywordUsecase = usecase.NewKeywordService(db)
	analyticsUsecase = usecase.NewAnalyticsService(db)

	// 4. Scheduling on top of the content layer
	publishResolver := usecase.NewPublishResolver(blogUsecase, socialUsecase)
	scheduleUsecase = scheduleUsecaseLayer.NewScheduleService(scheduleRepository, publishResolver, runnerID)

	healthUsecase = usecase.NewHealthService(db, generateUsecase, vkClient)

	if cfg.Scheduler.Enabled {
		pool := pubworker.NewPublishPool(cfg.Scheduler.Workers, cfg.Scheduler.QueueSize)
		opts := []application.Option{
			application.WithInterval(time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second),
			application.WithClaimTTL(time.Duration(cfg.Scheduler.LockTTLSeconds) * time.Second),
		}
		if vkClient != nil {
			opts = append(opts, application.WithValkey(vkClient))
		}
		scheduleRunner = application.NewRunner(scheduleRepository, publishResolver, pool, runnerID, opts...)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}

// StopApp performs a clean shutdown of the scheduler and connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if scheduleRunner != nil {
		scheduleRunner.Stop()
	}

	if vkClient != nil {
		vkClient.Close()
	}

	if sqlDB, err := coreDB.SQLDB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.Errorf("[APP] Failed to close database: %v", err)
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
