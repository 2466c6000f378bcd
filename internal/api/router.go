package api

import (
	"unified-assistant/docs"
	"unified-assistant/internal/api/handlers"
	"unified-assistant/pkg/auth"
	"unified-assistant/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	askHandler *handlers.AskHandler,
	statusHandler *handlers.StatusHandler,
	docHandler *handlers.DocumentHandler,
	authHandler *handlers.AuthHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo // ensure docs package is imported and init() is called
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Service info
	app.Get("/", statusHandler.Root)
	app.Get("/status", statusHandler.Status)

	// Question endpoints (public)
	app.Post("/ask", askHandler.Ask)
	app.Post("/sop/ask", askHandler.AskSOP)
	app.Post("/hc/ask", askHandler.AskHC)

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	authRequired := middleware.AuthMiddleware(jwtManager, appLogger)
	app.Post("/hc/upload", authRequired, docHandler.UploadHC)

	protected := app.Group("/api/v1", authRequired)
	protected.Get("/documents", docHandler.ListDocuments)

	return app
}
