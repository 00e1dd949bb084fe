package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/db"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/handler"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/hub"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/service"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/blobstore"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/gemini"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Container holds every wired component; it is assembled once at startup.
type Container struct {
	AuthHandler    handler.AuthHandler
	UserHandler    handler.UserHandler
	DoctorHandler  handler.DoctorHandler
	ChatHandler    handler.ChatHandler
	ChatbotHandler handler.ChatbotHandler
	ReportHandler  handler.ReportHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	userRepo := repo.NewUserRepository(db.NewRepository[model.User](con, config.Mongo.UsersCollection))
	convRepo := repo.NewConversationRepository(db.NewRepository[model.Conversation](con, config.Mongo.ConversationsCollection), logger)
	msgRepo := repo.NewMessageRepository(db.NewRepository[model.Message](con, config.Mongo.MessagesCollection), logger)
	chatRepo := repo.NewChatRepository(db.NewRepository[model.ChatSession](con, config.Mongo.ChatsCollection))
	reportRepo := repo.NewReportRepository(db.NewRepository[model.Report](con, config.Mongo.ReportsCollection))

	// Unique indexes back the duplicate-email and duplicate-conversation
	// guarantees; the app must not start without them.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensuring user indexes: %w", err)
	}
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensuring conversation indexes: %w", err)
	}

	blobs, err := blobstore.NewCloudinary(blobstore.Config{
		CloudName: config.Cloudinary.CloudName,
		APIKey:    config.Cloudinary.APIKey,
		APISecret: config.Cloudinary.APISecret,
		Folder:    config.Cloudinary.Folder,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing blob store: %w", err)
	}

	analyzer := gemini.New(config.Gemini.APIKeys, config.Gemini.Model, logger)

	h := hub.NewHub(logger, config.Server.AllowedOrigins)

	userService := service.NewUserService(userRepo, blobs, config.Auth.JwtSecret, logger)
	doctorService := service.NewDoctorService(userRepo, logger)
	chatService := service.NewChatService(convRepo, msgRepo, userRepo, blobs, h, logger)
	chatbotService := service.NewChatbotService(chatRepo, analyzer, logger)
	reportService := service.NewReportService(reportRepo, blobs, logger)

	return &Container{
		AuthHandler:    handler.NewAuthHandler(userService),
		UserHandler:    handler.NewUserHandler(userService),
		DoctorHandler:  handler.NewDoctorHandler(doctorService),
		ChatHandler:    handler.NewChatHandler(chatService),
		ChatbotHandler: handler.NewChatbotHandler(chatbotService),
		ReportHandler:  handler.NewReportHandler(reportService),
		MonitorHandler: handler.NewMonitorHandler(hub.NewMonitorService(h)),
		Hub:            h,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections.
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
