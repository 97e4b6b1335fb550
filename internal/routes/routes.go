package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/internal/handlers"
	"userauth/internal/middleware"
	"userauth/internal/models"
	"userauth/internal/repositories"
	"userauth/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	mailHandler *handlers.MailHandler,
	tokenService services.TokenService,
	userRepo repositories.UserRepository,
) *gin.Engine {

	// health
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"success": true,
			"message": "App Is Running Well!",
		})
	})

	auth := middleware.AuthMiddleware(tokenService, userRepo)

	api := r.Group("/api/v1")

	// ---- public
	a := api.Group("/auth")
	{
		a.POST("/login", authHandler.Login)
		a.POST("/forgot-password", authHandler.ForgotPassword)
		a.POST("/reset-password/:token", authHandler.ResetPassword)

		// ---- protected
		a.GET("/me", auth, authHandler.GetMe)
		a.POST("/change-password", auth, authHandler.ChangePassword)
	}

	u := api.Group("/user")
	{
		u.POST("/", userHandler.CreateUser) // signup stays public

		u.GET("/", auth, userHandler.ListUsers)
		u.GET("/export/pdf", auth, middleware.RequireRoles(models.RoleAdmin), userHandler.ExportPDF)
		u.GET("/:id", auth, userHandler.GetUserByID)
		u.PATCH("/:id", auth, userHandler.UpdateUser)
		u.DELETE("/:id", auth, middleware.RequireRoles(models.RoleAdmin), userHandler.DeleteUser)
		u.POST("/:id/image", auth, userHandler.UploadImage)
	}

	api.POST("/mail", auth, mailHandler.SendMailToUser)

	return r
}
