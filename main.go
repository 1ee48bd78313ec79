package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/redis/v3"
	"github.com/isgnet/devreg/internal/audit"
	"github.com/isgnet/devreg/internal/auth"
	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/config"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/internal/devices"
	"github.com/isgnet/devreg/internal/handlers/api"
	"github.com/isgnet/devreg/internal/mail"
	"github.com/isgnet/devreg/internal/middlewares"
	"github.com/isgnet/devreg/internal/render"
	"github.com/isgnet/devreg/internal/store"
	"github.com/isgnet/devreg/internal/users"
	"github.com/isgnet/devreg/model"
	"github.com/isgnet/devreg/params"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	envFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "dotenv file exported before the config is read",
		Value: ".env",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "devreg - ISG device registry with audited changes"
	app.Flags = []cli.Flag{
		configFileFlag,
		envFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:  "version",
			Usage: "Print the version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:   "migrate",
			Usage:  "Create or update the database schema and exit",
			Action: migrate,
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if err := config.LoadEnvFile(ctx.String(envFileFlag.Name)); err != nil {
		return nil, fmt.Errorf("could not load env file: %w", err)
	}
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		return nil, err
	}
	mustInitLogger(cfg.Debug || ctx.Bool(debugFlag.Name))
	return cfg, nil
}

func mustInitDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	db, err := database.Open(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "smtp":
		sender, err := mail.NewSMTPMailSender(mailCfg.SMTP, mailCfg.From)
		if err != nil {
			slog.Error("Failed to initialize SMTP mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	case "", "log":
		slog.Warn("No mail backend configured, password reset codes will not be delivered")
		return mail.LogMailSender{}
	default:
		slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
		os.Exit(1)
	}
	return nil
}

// mustInitStorage returns the key/value storage for reset codes and the
// fiber storage for the rate limiter. Redis backs both when configured,
// otherwise they share an in-process memory store.
func mustInitStorage(redisCfg config.RedisConfig) (store.Storage, fiber.Storage, goredis.UniversalClient) {
	if redisCfg.URL == "" {
		slog.Warn("Redis is not configured, using in-memory storage")
		memStorage := memory.New()
		return store.NewKVStorage(memStorage), memStorage, nil
	}
	redisStorage := redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
	return store.NewRedisStorage(redisStorage.Conn()), redisStorage, redisStorage.Conn()
}

func migrate(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := model.AutoMigrate(db); err != nil {
		return err
	}
	slog.Info("Database schema is up to date")
	return nil
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	globalVars := map[string]interface{}{
		"siteName": cfg.SiteName,
	}
	if err := render.Initialize(globalVars, cfg.TemplateDir); err != nil {
		slog.Error("Failed to load templates", "error", err)
		return err
	}
	mailSender := mustInitMailSender(cfg.Mail)
	db := mustInitDatabase(cfg.Database)
	kvStorage, limiterStorage, rdb := mustInitStorage(cfg.Redis)

	// repositories
	var (
		userRepo   = users.NewUserRepository(db)
		deviceRepo = devices.NewDeviceRepository(db)
		auditRepo  = audit.NewAuditLogRepository(db)
	)

	// services
	var (
		userService = users.NewUserService(userRepo, kvStorage, users.PasswordResetOptions{
			Secret:      cfg.JWT.Secret,
			CodeTTL:     cfg.PasswordReset.CodeTTL,
			MaxAttempts: cfg.PasswordReset.MaxAttempts,
		})
		deviceService = devices.NewDeviceService(db, deviceRepo, auditRepo)
		auditService  = audit.NewAuditService(auditRepo)
		tokenIssuer   = auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(requestid.New())
	router.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: len(cfg.AllowOrigins) > 0 && !strings.Contains(strings.Join(cfg.AllowOrigins, ","), "*"),
	}))
	router.Use(middlewares.RequestMetrics())
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	resetLimiter := limiter.New(limiter.Config{
		Max:        params.PasswordResetRateLimit,
		Expiration: params.PasswordResetRateWindow,
		Storage:    limiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "limiter:reset:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many password reset requests, try again later")
		},
	})
	requireAuth := middlewares.RequireAuth(tokenIssuer, userService, cfg.JWT.CookieName)

	api.SetupRoutes(router.Group(params.APIPrefix), api.Handlers{
		Account:       api.NewAccountHandler(userService, tokenIssuer, api.CookieConfig{Name: cfg.JWT.CookieName, Secure: cfg.JWT.CookieSecure}),
		PasswordReset: api.NewPasswordResetHandler(userService, mailSender, cfg.PasswordReset.CodeTTL),
		Device:        api.NewDeviceHandler(deviceService),
		Audit:         api.NewAuditHandler(auditService),
	}, requireAuth, resetLimiter)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, rdb, db)
	defer func() {
		term()
		<-done
	}()
	slog.Info("Starting server", "addr", cfg.ListenAddr, "version", params.VersionWithCommit(gitCommit, gitDate))
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
