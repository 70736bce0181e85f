package routes

import (
	"researchhub/internal/adapters/http/handlers"
	"researchhub/internal/adapters/http/middleware"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/config"
	"researchhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	publicationRepo := repositories.NewPublicationRepository(db)
	requestRepo := repositories.NewRequestRepository(db)
	evaluationRepo := repositories.NewEvaluationRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Initialize services
	auditService := services.NewAuditService(auditRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	captchaService := services.NewCaptchaService(cfg)
	authService := services.NewAuthService(userRepo, sessionRepo, userTokenRepo, captchaService, auditService, cfg)
	userService := services.NewUserService(userRepo, auditService)
	projectService := services.NewProjectService(projectRepo, userRepo, notificationService, auditService)
	publicationService := services.NewPublicationService(publicationRepo, projectRepo, auditService)
	requestService := services.NewRequestService(requestRepo, projectRepo, userRepo, notificationService, auditService)
	evaluationService := services.NewEvaluationService(evaluationRepo, projectRepo, auditService)
	cronService := services.NewCronService(sessionRepo, userTokenRepo, requestRepo, notificationService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	publicationHandler := handlers.NewPublicationHandler(publicationService)
	requestHandler := handlers.NewRequestHandler(requestService, projectService)
	evaluationHandler := handlers.NewEvaluationHandler(evaluationService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	auditHandler := handlers.NewAuditHandler(auditService)
	publicHandler := handlers.NewPublicHandler(projectService, publicationService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, stricter rate limits)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public site routes (no auth, cacheable)
	publicRoutes := apiV1.Group("/public")
	publicRoutes.Use(middleware.PublicCache())
	publicRoutes.Get("/projects", publicHandler.Projects)
	publicRoutes.Get("/publications", publicHandler.Publications)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	userRoutes.Get("/", userHandler.List)
	userRoutes.Post("/", userHandler.Create)
	userRoutes.Get("/:id", userHandler.Get)
	userRoutes.Put("/:id", userHandler.Update)
	userRoutes.Delete("/:id", userHandler.Delete)

	// Profile routes (Authenticated users)
	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	profileRoutes.Use(middleware.NoCacheHeaders())
	profileRoutes.Get("/", authHandler.Me)
	profileRoutes.Put("/", userHandler.UpdateProfile)
	profileRoutes.Put("/password", userHandler.ChangePassword)

	// Project routes (Authenticated users)
	projectRoutes := apiV1.Group("/projects")
	projectRoutes.Use(middleware.AuthMiddleware(cfg))
	projectRoutes.Get("/", projectHandler.List)
	projectRoutes.Get("/mine", projectHandler.ListMine)
	projectRoutes.Post("/", projectHandler.Create)
	projectRoutes.Get("/:id", projectHandler.Get)
	projectRoutes.Put("/:id", projectHandler.Update)
	projectRoutes.Delete("/:id", projectHandler.Delete)
	projectRoutes.Post("/:id/members", projectHandler.AddMember)
	projectRoutes.Delete("/:id/members/:userId", projectHandler.RemoveMember)
	projectRoutes.Get("/:id/evaluations", middleware.AdminOnly(), evaluationHandler.ListByProject)

	// Publication routes (Authenticated users)
	publicationRoutes := apiV1.Group("/publications")
	publicationRoutes.Use(middleware.AuthMiddleware(cfg))
	publicationRoutes.Get("/", publicationHandler.List)
	publicationRoutes.Get("/mine", publicationHandler.ListMine)
	publicationRoutes.Post("/", publicationHandler.Create)
	publicationRoutes.Get("/:id", publicationHandler.Get)
	publicationRoutes.Put("/:id", publicationHandler.Update)
	publicationRoutes.Delete("/:id", publicationHandler.Delete)

	// Request routes (Authenticated users; status/restore admin only)
	requestRoutes := apiV1.Group("/requests")
	requestRoutes.Use(middleware.AuthMiddleware(cfg))
	requestRoutes.Use(middleware.NoCacheHeaders())
	requestRoutes.Get("/", requestHandler.List)
	requestRoutes.Post("/", requestHandler.Create)
	requestRoutes.Get("/:id", requestHandler.Get)
	requestRoutes.Put("/:id", requestHandler.Update)
	requestRoutes.Delete("/:id", requestHandler.Delete)
	requestRoutes.Post("/:id/comments", requestHandler.AddComment)
	requestRoutes.Patch("/:id/status", middleware.AdminOnly(), requestHandler.ChangeStatus)
	requestRoutes.Post("/:id/restore", middleware.AdminOnly(), requestHandler.Restore)

	// Evaluation routes (Admin only)
	evaluationRoutes := apiV1.Group("/evaluations")
	evaluationRoutes.Use(middleware.AuthMiddleware(cfg))
	evaluationRoutes.Use(middleware.AdminOnly())
	evaluationRoutes.Get("/", evaluationHandler.List)
	evaluationRoutes.Post("/", evaluationHandler.Create)
	evaluationRoutes.Get("/:id", evaluationHandler.Get)
	evaluationRoutes.Put("/:id", evaluationHandler.Update)
	evaluationRoutes.Delete("/:id", evaluationHandler.Delete)

	// Notification routes (Authenticated users)
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Use(middleware.NoCacheHeaders())
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/unread", notificationHandler.Unread)
	notificationRoutes.Post("/:id/read", notificationHandler.MarkRead)
	notificationRoutes.Post("/read-all", notificationHandler.MarkAllRead)

	// Audit routes (Admin only)
	auditRoutes := apiV1.Group("/audits")
	auditRoutes.Use(middleware.AuthMiddleware(cfg))
	auditRoutes.Use(middleware.AdminOnly())
	auditRoutes.Get("/", auditHandler.List)

	return cronService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", middleware.OptionalAuth(cfg), handler.Logout)

	// Password reset (strict rate limits)
	router.Post("/password-reset", middleware.StrictRateLimiter(), handler.RequestPasswordReset)
	router.Post("/password-reset/confirm", middleware.StrictRateLimiter(), handler.ConfirmPasswordReset)

	// Email verification
	router.Post("/verify-email", middleware.AuthMiddleware(cfg), handler.RequestEmailVerification)
	router.Post("/verify-email/confirm", middleware.StrictRateLimiter(), handler.ConfirmEmailVerification)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}
