// Package main is the entrypoint for the Parley API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/parley/parley/internal/cache"
	"github.com/parley/parley/internal/config"
	"github.com/parley/parley/internal/handler"
	"github.com/parley/parley/internal/metrics"
	"github.com/parley/parley/internal/middleware"
	"github.com/parley/parley/internal/reply"
	"github.com/parley/parley/internal/repository"
	"github.com/parley/parley/internal/server"
	"github.com/parley/parley/internal/service"
	"github.com/parley/parley/internal/token"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize token manager
	tokens, err := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to initialize token manager", "error", err)
		os.Exit(1)
	}

	// Initialize the reply generator
	strategy, err := buildReplyStrategy(cfg)
	if err != nil {
		logger.Error("failed to initialize reply strategy", "error", err)
		os.Exit(1)
	}
	generator := reply.NewGenerator(strategy, logger)
	logger.Info("reply generator ready", "provider", cfg.AssistantProvider)

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	authService := service.NewAuthService(repo, cacheClient, tokens)
	chatService := service.NewChatService(repo, cacheClient, metricsRecorder)
	messageService := service.NewMessageService(repo, cacheClient, metricsRecorder)
	conversationService := service.NewConversationService(chatService, messageService, generator, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, messageService, logger)
	messageHandler := handler.NewMessageHandler(messageService, conversationService, logger)
	conversationHandler := handler.NewConversationHandler(conversationService, logger)

	// Setup router
	r := setupRouter(routerDeps{
		base:         h,
		health:       healthHandler,
		metrics:      metricsHandler,
		auth:         authHandler,
		user:         userHandler,
		chat:         chatHandler,
		message:      messageHandler,
		conversation: conversationHandler,
		tokens:       tokens,
		cache:        cacheClient,
		cfg:          cfg,
		logger:       logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildReplyStrategy selects the reply strategy from configuration.
func buildReplyStrategy(cfg *config.Config) (reply.Strategy, error) {
	switch cfg.AssistantProvider {
	case "delegated":
		if cfg.AssistantEndpoint == "" {
			return nil, errors.New("ASSISTANT_ENDPOINT must be set when ASSISTANT_PROVIDER=delegated")
		}
		return reply.NewDelegated(reply.DelegatedConfig{
			Endpoint: cfg.AssistantEndpoint,
			Model:    cfg.AssistantModel,
			APIKey:   cfg.AssistantAPIKey,
			Timeout:  cfg.AssistantTimeout,
		}), nil
	default:
		return reply.NewFixedSet(), nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base         *handler.Handler
	health       *handler.HealthHandler
	metrics      *handler.MetricsHandler
	auth         *handler.AuthHandler
	user         *handler.UserHandler
	chat         *handler.ChatHandler
	message      *handler.MessageHandler
	conversation *handler.ConversationHandler
	tokens       *token.Manager
	cache        *cache.Cache
	cfg          *config.Config
	logger       *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	authCfg := middleware.AuthConfig{
		Logger: deps.logger,
		Tokens: deps.tokens,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       deps.logger,
		Cache:        deps.cache,
		LoginEnabled: deps.cfg.RateLimitLoginEnabled,
		LoginRPS:     deps.cfg.RateLimitLoginRPS,
		LoginBurst:   deps.cfg.RateLimitLoginBurst,
	}

	// Credential endpoints (no auth, rate limited per IP)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitLogin(rateLimitCfg))
		r.Post("/auth/signup", deps.auth.SignUp)
		r.Post("/auth/login", deps.auth.Login)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Get("/auth/verify", deps.auth.Verify)

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", deps.chat.List)
			r.Get("/archives", deps.chat.ListArchived)
			r.Post("/", deps.chat.Create)
			r.Delete("/", deps.chat.DeleteAll)
			r.Get("/{id}", deps.chat.Get)
			r.Put("/{id}", deps.chat.Rename)
			r.Put("/{id}/archive", deps.chat.Archive)
			r.Delete("/{id}", deps.chat.Delete)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/{chatId}", deps.message.List)
			r.Post("/{chatId}", deps.message.Append)
			r.Post("/{chatId}/bot-response", deps.message.BotResponse)
			r.Delete("/{id}", deps.message.Delete)
		})

		r.Post("/conversation", deps.conversation.Send)

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", deps.user.Profile)
			r.Put("/profile", deps.user.UpdateProfile)
			r.Put("/change-password", deps.user.ChangePassword)
			r.Delete("/account", deps.user.DeleteAccount)
		})

		r.Get("/metrics", deps.metrics.Metrics)
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
