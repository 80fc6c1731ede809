package server

import (
	"net/http"
	"time"

	"anoa.com/campusfeedback/internal/config"
	"anoa.com/campusfeedback/internal/entity"
	"anoa.com/campusfeedback/internal/middleware"

	accessRepo "anoa.com/campusfeedback/internal/modules/access/repository"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"

	anonymity "anoa.com/campusfeedback/internal/modules/anonymity/service"

	adminHttp "anoa.com/campusfeedback/internal/modules/admin/delivery/http"
	adminService "anoa.com/campusfeedback/internal/modules/admin/service"

	categoryHttp "anoa.com/campusfeedback/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/campusfeedback/internal/modules/category/repository"
	categoryService "anoa.com/campusfeedback/internal/modules/category/service"

	feedbackHttp "anoa.com/campusfeedback/internal/modules/feedback/delivery/http"
	feedbackRepo "anoa.com/campusfeedback/internal/modules/feedback/repository"
	feedbackService "anoa.com/campusfeedback/internal/modules/feedback/service"

	moderationHttp "anoa.com/campusfeedback/internal/modules/moderation/delivery/http"
	moderationRepo "anoa.com/campusfeedback/internal/modules/moderation/repository"
	moderationService "anoa.com/campusfeedback/internal/modules/moderation/service"

	notifHttp "anoa.com/campusfeedback/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/campusfeedback/internal/modules/notification/repository"
	notifService "anoa.com/campusfeedback/internal/modules/notification/service"

	socialHttp "anoa.com/campusfeedback/internal/modules/social/delivery/http"
	socialRepo "anoa.com/campusfeedback/internal/modules/social/repository"
	socialService "anoa.com/campusfeedback/internal/modules/social/service"

	userHttp "anoa.com/campusfeedback/internal/modules/user/delivery/http"
	userRepo "anoa.com/campusfeedback/internal/modules/user/repository"
	userService "anoa.com/campusfeedback/internal/modules/user/service"

	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/credential"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Repositories is the storage the server is composed over.
type Repositories struct {
	Users         userRepo.UserRepository
	Feedback      feedbackRepo.FeedbackRepository
	Likes         socialRepo.LikeRepository
	Comments      socialRepo.CommentRepository
	Flags         moderationRepo.FlagRepository
	Notifications notifRepo.NotificationRepository
	Categories    categoryRepo.CategoryRepository
	Revocations   accessRepo.RevocationStore
}

// NewRepositories builds the Postgres-backed repositories. A nil Redis
// client disables token revocation.
func NewRepositories(db *gorm.DB, redisClient *redis.Client) Repositories {
	return Repositories{
		Users:         userRepo.NewUserRepository(db),
		Feedback:      feedbackRepo.NewFeedbackRepository(db),
		Likes:         socialRepo.NewLikeRepository(db),
		Comments:      socialRepo.NewCommentRepository(db),
		Flags:         moderationRepo.NewFlagRepository(db),
		Notifications: notifRepo.NewNotificationRepository(db),
		Categories:    categoryRepo.NewCategoryRepository(db),
		Revocations:   accessRepo.NewRedisRevocationStore(redisClient),
	}
}

// Options tune the composition. Zero values mean production defaults.
type Options struct {
	Clock       clock.Clock
	Hasher      credential.Hasher
	Handles     userService.HandleGenerator
	SkipLogging []string
}

type Server struct {
	engine *gin.Engine
	auth   userService.AuthService
}

func NewServer(cfg *config.Config, repos Repositories, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Hasher == nil {
		opts.Hasher = credential.NewBcryptHasher(bcrypt.DefaultCost)
	}
	if opts.Handles == nil {
		opts.Handles = userService.NewRandomHandleGenerator(cfg.AnonymousHandlePrefix)
	}

	tokens := token.NewJWTService(cfg.JWTSecret, cfg.JWTTTL, opts.Clock)
	gate := accessService.NewGate(tokens, repos.Users, repos.Revocations, opts.Clock)
	authMiddleware := middleware.NewAuthMiddleware(gate)

	googleConfig := userService.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	authSvc := userService.NewAuthService(repos.Users, gate, tokens, opts.Hasher, opts.Handles, googleConfig)
	authHandler := userHttp.NewAuthHandler(authSvc, cfg.FrontendURL)

	notificationSvc := notifService.NewNotificationService(repos.Notifications)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc)

	categorySvc := categoryService.NewCategoryService(repos.Categories)
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	projector := anonymity.NewProjector(repos.Likes)

	feedbackSvc := feedbackService.NewFeedbackService(repos.Feedback, categorySvc, projector)
	feedbackHandler := feedbackHttp.NewFeedbackHandler(feedbackSvc)

	socialSvc := socialService.NewSocialService(feedbackSvc, repos.Likes, repos.Comments)
	socialHandler := socialHttp.NewSocialHandler(socialSvc)

	moderationSvc := moderationService.NewModerationService(
		repos.Flags, repos.Feedback, repos.Users, notificationSvc, opts.Clock,
		moderationService.Policy{
			DefaultSuspensionDays: cfg.DefaultSuspensionDays,
			MaxSuspensionDays:     cfg.MaxSuspensionDays,
		},
	)
	moderationHandler := moderationHttp.NewModerationHandler(moderationSvc)

	adminSvc := adminService.NewAdminService(repos.Users, repos.Flags, repos.Feedback, notificationSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.SkipLogging...))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := authMiddleware.RequireAuth()
	optionalAuth := authMiddleware.OptionalAuth()

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.PUT("/display-name", requireAuth, authHandler.UpdateDisplayName)
		if cfg.GoogleEnabled() {
			auth.GET("/google", authHandler.GoogleLogin)
			auth.GET("/google/callback", authHandler.GoogleCallback)
		}
	}

	api.GET("/categories", categoryHandler.GetActiveCategories)

	feedback := api.Group("/feedback")
	{
		feedback.GET("", optionalAuth, feedbackHandler.ListFeedback)
		feedback.POST("", requireAuth, feedbackHandler.CreateFeedback)
		feedback.GET("/:id", optionalAuth, feedbackHandler.GetFeedback)
		feedback.PUT("/:id", requireAuth, feedbackHandler.UpdateFeedback)
		feedback.DELETE("/:id", requireAuth, feedbackHandler.DeleteFeedback)

		feedback.POST("/:id/like", requireAuth, socialHandler.Like)
		feedback.DELETE("/:id/like", requireAuth, socialHandler.Unlike)
		feedback.POST("/:id/comment", requireAuth, socialHandler.AddComment)
		feedback.GET("/:id/comments", optionalAuth, socialHandler.ListComments)

		feedback.POST("/:id/flag", requireAuth,
			authMiddleware.RequireRole(entity.RoleFaculty, entity.RoleAdmin),
			moderationHandler.FlagFeedback)
	}

	api.GET("/notifications", requireAuth, notificationHandler.GetNotifications)

	adminGroup := api.Group("/admin")
	adminGroup.Use(requireAuth, authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.GET("/faculty/pending", adminHandler.ListPendingFaculty)
		adminGroup.PUT("/faculty/:id/approve", adminHandler.ApproveFaculty)
		adminGroup.PUT("/faculty/:id/reject", adminHandler.RejectFaculty)

		adminGroup.GET("/flags", moderationHandler.ListPendingFlags)
		adminGroup.PUT("/flags/:id/dismiss", moderationHandler.DismissFlag)
		adminGroup.PUT("/flags/:id/suspend", moderationHandler.SuspendAuthor)
		adminGroup.PUT("/flags/:id/ban", moderationHandler.BanAuthor)

		adminGroup.GET("/users", adminHandler.ListUsers)
		adminGroup.GET("/stats", adminHandler.Stats)

		adminGroup.POST("/categories", categoryHandler.CreateCategory)
		adminGroup.DELETE("/categories/:id", categoryHandler.DeactivateCategory)
	}

	return &Server{engine: router, auth: authSvc}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// AuthService is used at startup to seed the bootstrap admin.
func (s *Server) AuthService() userService.AuthService {
	return s.auth
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
