package approuters

import (
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/configuration"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	auth := middleware.RequireAuth(container.Config.Auth.JwtSecret)

	chatRoute := router.Group("/api/chat", auth)
	{
		chatRoute.POST("/conversations", container.ChatHandler.CreateConversation)
		chatRoute.GET("/conversations", container.ChatHandler.ListConversations)
		chatRoute.GET("/messages/:conversationId", container.ChatHandler.ListMessages)
		chatRoute.POST("/messages/:conversationId", container.ChatHandler.SendMessage)
		chatRoute.POST("/messages/:conversationId/file", container.ChatHandler.SendFileMessage)
		chatRoute.POST("/messages/:conversationId/share", container.ChatHandler.ShareStoredFile)
		chatRoute.DELETE("/messages/:messageId", container.ChatHandler.DeleteMessage)
	}
}

func ChatbotRouters(router *gin.Engine, container *configuration.Container) {
	auth := middleware.RequireAuth(container.Config.Auth.JwtSecret)

	botRoute := router.Group("/api/chatbot", auth)
	{
		botRoute.POST("/message", container.ChatbotHandler.SendMessage)
		botRoute.POST("/analyze", container.ChatbotHandler.AnalyzeReport)
		botRoute.POST("/analyze-stored", container.ChatbotHandler.AnalyzeStoredReport)
		botRoute.GET("/chats", container.ChatbotHandler.ListChats)
		botRoute.GET("/chats/:chatId", container.ChatbotHandler.GetChat)
		botRoute.PUT("/chats/:chatId/title", container.ChatbotHandler.RenameChat)
		botRoute.DELETE("/chats/:chatId", container.ChatbotHandler.DeleteChat)
	}
}

func ReportRouters(router *gin.Engine, container *configuration.Container) {
	auth := middleware.RequireAuth(container.Config.Auth.JwtSecret)

	reportRoute := router.Group("/api/reports", auth)
	{
		reportRoute.POST("", container.ReportHandler.Upload)
		reportRoute.GET("", container.ReportHandler.List)
		reportRoute.GET("/:reportId/download", container.ReportHandler.Download)
		reportRoute.DELETE("/:reportId", container.ReportHandler.Delete)
	}

	// Blob inventory for the conversation re-share picker.
	router.GET("/api/files/list", auth, container.ReportHandler.ListStoredFiles)
}
