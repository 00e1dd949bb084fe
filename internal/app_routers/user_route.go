package approuters

import (
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/configuration"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/gin-gonic/gin"
)

func AuthRouters(router *gin.Engine, container *configuration.Container) {
	authRoute := router.Group("/api/auth")
	{
		authRoute.POST("/register", container.AuthHandler.Register)
		authRoute.POST("/login", container.AuthHandler.Login)
		authRoute.GET("/me",
			middleware.RequireAuth(container.Config.Auth.JwtSecret),
			container.UserHandler.GetProfile)
	}
}

func UserRouters(router *gin.Engine, container *configuration.Container) {
	auth := middleware.RequireAuth(container.Config.Auth.JwtSecret)

	userRoute := router.Group("/api/users", auth)
	{
		userRoute.GET("/profile", container.UserHandler.GetProfile)
		userRoute.PUT("/profile", container.UserHandler.UpdateProfile)
		userRoute.PUT("/profile/picture", container.UserHandler.UpdateProfilePicture)
	}
}

func DoctorRouters(router *gin.Engine, container *configuration.Container) {
	auth := middleware.RequireAuth(container.Config.Auth.JwtSecret)

	doctorRoute := router.Group("/api/doctors", auth)
	{
		// Patient-facing directory lists verified doctors only.
		doctorRoute.GET("", container.DoctorHandler.ListVerified)
	}

	adminRoute := router.Group("/api/doctors", auth, middleware.RequireRole(model.RoleAdmin))
	{
		adminRoute.GET("/all", container.DoctorHandler.ListAll)
		adminRoute.GET("/unverified", container.DoctorHandler.ListUnverified)
		adminRoute.GET("/stats", container.DoctorHandler.Stats)
		adminRoute.PUT("/verify/:doctorId", container.DoctorHandler.Verify)
	}
}
