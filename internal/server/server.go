// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"errors"
	"time"

	_ "inertus/docs" // swagger docs
	"inertus/internal/assistant"
	"inertus/internal/cache"
	"inertus/internal/config"
	"inertus/internal/crisis"
	"inertus/internal/featureflags"
	"inertus/internal/middleware"
	"inertus/internal/models"
	"inertus/internal/notifications"
	"inertus/internal/repository"
	"inertus/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	bodyLimit       = 1 * 1024 * 1024
	shutdownTimeout = 10 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	dispatcher *service.Dispatcher

	userService         *service.UserService
	postService         *service.PostService
	resourceService     *service.ResourceService
	groupService        *service.GroupService
	messageService      *service.MessageService
	notificationService *service.NotificationService
	psychAIService      *service.PsychAIService
}

// NewServer wires repositories and services on top of already-initialized connections.
// rdb may be nil: caching, rate limits, token revocation and live fan-out then degrade
// to their in-process or disabled forms.
func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server: config and database are required")
	}

	store := cache.NewStore(rdb)
	userRepo := repository.NewUserRepository(db, store)
	postRepo := repository.NewPostRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		promMiddleware: middleware.InitMetrics("inertus"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
	}

	// Redis pub/sub fans out across instances; without it the local hub is the publisher.
	var publisher notifications.Publisher = s.hub
	if rdb != nil {
		s.notifier = notifications.NewNotifier(rdb)
		publisher = s.notifier
	}

	s.notificationService = service.NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewOutboxRepository(db),
		publisher,
		cfg.OutboxMaxAttempts,
	)
	s.dispatcher = service.NewDispatcher(s.notificationService, cfg.OutboxPollInterval)

	s.userService = service.NewUserService(userRepo, repository.NewProfileRepository(db), postRepo)
	s.postService = service.NewPostService(postRepo, repository.NewCommentRepository(db), s.notificationService)
	s.resourceService = service.NewResourceService(repository.NewResourceRepository(db))
	s.groupService = service.NewGroupService(repository.NewGroupRepository(db), s.notificationService)
	s.messageService = service.NewMessageService(repository.NewMessageRepository(db), userRepo, s.notificationService)
	s.psychAIService = service.NewPsychAIService(
		crisis.Default(),
		newResponder(cfg),
		s.featureFlags,
		repository.NewChatHistoryRepository(rdb),
	)

	s.app = s.newApp()
	return s, nil
}

// newResponder returns the Gemini responder when an API key is configured.
func newResponder(cfg *config.Config) assistant.Responder {
	if cfg.GeminiAPIKey == "" {
		return nil
	}
	g, err := assistant.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, "")
	if err != nil {
		middleware.Logger.Warn("gemini unavailable, using fallback replies", zap.Error(err))
		return nil
	}
	return g
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Inertus API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
			}
			middleware.LoggerFrom(c.UserContext()).Error("unhandled error", zap.Error(err))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	// Request ID, trace ID and later user ID flow to services through the user context.
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Inertus Metrics"}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := s.AuthRequired()

	app.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout", auth, s.Logout)
	app.Post("/logout", auth, s.Logout)
	app.Get("/me", auth, s.Me)

	app.Get("/", s.ListPosts)
	app.Post("/create_post", auth, s.CreatePost)
	app.Get("/post/:id", s.GetPost)
	app.Get("/post/:id/comments", s.ListComments)
	app.Post("/post/:id/comment", auth, s.CreateComment)

	// /profile/edit must be registered before /profile/:username.
	app.Get("/profile/edit", auth, s.GetMyProfile)
	app.Post("/profile/edit", auth, s.UpdateMyProfile)
	app.Get("/profile/:username", s.GetProfile)

	app.Get("/resources", s.ListResources)
	app.Post("/resources/add", auth, s.AddResource)

	app.Get("/groups", s.ListGroups)
	app.Post("/groups/create", auth, s.CreateGroup)
	app.Get("/groups/:id/join", auth, s.JoinGroup)
	app.Post("/groups/:id/join", auth, s.JoinGroup)

	app.Get("/messages", auth, s.ListMessages)
	app.Get("/messages/send/:id", auth, s.GetMessageReceiver)
	app.Post("/messages/send/:id", auth, s.SendMessage)

	app.Get("/notifications", auth, s.ListNotifications)

	app.Post("/psychai/message", auth,
		middleware.RateLimit(s.redis, 30, time.Minute, "psychai"), s.PsychAIMessage)
	app.Get("/psychai/history", auth, s.PsychAIHistory)

	app.Post("/ws/ticket", auth, s.IssueWSTicket)
	app.Get("/ws", auth, s.requireUpgrade, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: an unconfigured
// client is reported as unavailable without failing readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Run serves HTTP and runs the background workers until ctx is cancelled or one of
// them fails, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.dispatcher.Run(gctx)
	})
	if s.notifier != nil {
		g.Go(func() error {
			if err := s.hub.Run(gctx, s.notifier); err != nil {
				// Live fan-out is best effort; the outbox keeps notifications safe.
				middleware.Logger.Error("notification subscriber stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		middleware.Logger.Info("server starting", zap.String("port", s.config.Port))
		return s.app.Listen(":" + s.config.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests and closes websockets. Database and Redis are
// owned by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", zap.Error(err))
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", zap.Error(err))
	}
	middleware.Logger.Info("server shutdown complete")
	return nil
}
