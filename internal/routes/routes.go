package routes

import (
	"github.com/gin-gonic/gin"

	"petition/internal/handlers"
	"petition/internal/middleware"
	"petition/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	authService services.AuthService,
	voteHandler *handlers.VoteHandler,
	userHandler *handlers.UserHandler,
	votingHandler *handlers.VotingHandler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	// ---- public
	r.GET("/health", healthHandler.Health)

	vote := r.Group("/vote")
	{
		vote.POST("/validate", voteHandler.Validate)
		vote.POST("/verify_sms", voteHandler.VerifySMS)
		vote.GET("/vote_info", voteHandler.VoteInfo)
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
	}

	// ---- admin (cookie JWT)
	requireAdmin := []gin.HandlerFunc{
		middleware.AdminAuth(authService),
		middleware.RequireAdmin(authService),
	}

	auth.GET("/me", append(requireAdmin, authHandler.Me)...)

	admin := r.Group("/vote", requireAdmin...)
	{
		admin.GET("/all_user", userHandler.ListUsers)
		admin.POST("/update_user", userHandler.UpdateUser)

		admin.GET("/voting", votingHandler.Get)
		admin.POST("/voting", votingHandler.Create)
		admin.PUT("/voting", votingHandler.Update)
	}

	return r
}
