package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	"github.com/inkwell-cms/inkwell/schedule/application"
	"github.com/inkwell-cms/inkwell/ui/rest"
	"github.com/inkwell-cms/inkwell/ui/rest/middleware"
	"github.com/inkwell-cms/inkwell/ui/websocket"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the content management API over http",
	Long:  `Start the HTTP API: content CRUD, LLM generation, scheduling, analytics and the websocket event feed. The background schedule runner starts alongside the server.`,
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		BodyLimit:               int(cfg.Social.MaxMediaSize),
		Network:                 "tcp",
		AppName:                 "Inkwell Content Engine",
		DisableStartupMessage:   false,
		ServerHeader:            "Hidden",
	}

	// Configure proxy settings if trusted proxies are specified
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	// Security: RequestID for audit trails
	app.Use(requestid.New())

	// Security: Strict CORS
	origins := strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	if !strings.Contains(origins, cfg.App.BaseUrl) {
		origins += ", " + cfg.App.BaseUrl
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())

	// Security: Hardened Headers
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}

	account := make(map[string]string)
	for _, basicAuth := range cfg.App.BasicAuth {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please use the format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	// Generated media under statics stays directly servable
	app.Static(cfg.App.BasePath+"/statics", "./"+cfg.Paths.Statics)

	healthPath := cfg.App.BasePath + "/api/health"

	// Create API group
	apiGroup := app.Group(cfg.App.BasePath + "/api")

	// Apply BasicAuth ONLY to the API group
	apiGroup.Use(basicauth.New(basicauth.Config{
		Users: account,
		Next: func(c *fiber.Ctx) bool {
			// Allow CORS preflight without credentials.
			if c.Method() == fiber.MethodOptions {
				return true
			}
			// The health probe stays open for load balancers.
			return c.Path() == healthPath
		},
	}))

	runnerCtx, cancelRunner := context.WithCancel(context.Background())

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}

		cancelRunner()
		StopApp()
	}()

	if scheduleRunner != nil {
		scheduleRunner.OnEvent = websocket.ScheduleEventObserver
		scheduleRunner.Start(runnerCtx)

		if err := scheduleRunner.AddCronJob("@daily", func() {
			if err := analyticsUsecase.RollUpDaily(context.Background()); err != nil {
				logrus.WithError(err).Error("[ANALYTICS] Daily roll-up failed")
			}
		}); err != nil {
			logrus.WithError(err).Error("[ANALYTICS] Failed to register daily roll-up")
		}

		// On Postgres, LISTEN/NOTIFY wakes the runner as soon as a
		// schedule is created or retried from another instance.
		if cfg.Database.Driver == "postgres" {
			listener, err := application.NewChangeListener(cfg.Database.PostgresDSN(), scheduleRunner)
			if err != nil {
				logrus.WithError(err).Warn("[RUNNER] Change listener unavailable, relying on the tick interval")
			} else {
				listener.Start(runnerCtx)
			}
		}
	}

	// Health stays outside the authenticated group.
	healthRouter := fiber.Router(app)
	if cfg.App.BasePath != "" {
		healthRouter = app.Group(cfg.App.BasePath)
	}
	rest.InitRestHealth(healthRouter, healthUsecase)

	rest.InitRestGenerate(apiGroup, generateUsecase)
	rest.InitRestBlog(apiGroup, blogUsecase)
	rest.InitRestSocial(apiGroup, socialUsecase)
	rest.InitRestKeyword(apiGroup, keywordUsecase)
	rest.InitRestAnalytics(apiGroup, analyticsUsecase)
	rest.InitRestSchedule(apiGroup, scheduleUsecase, scheduleRunner)
	rest.InitRestSettings(apiGroup, settingsService)

	// Websocket event feed
	websocket.SetValkeyClient(vkClient, runnerID)
	websocket.RegisterRoutes(apiGroup, scheduleRunner)
	go websocket.RunHub()

	// 404 Handler for the API group
	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
