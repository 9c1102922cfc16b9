package bootstrap

import (
	"log"

	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/database"
	"github.com/docuhub/backend-go/internal/di"
	"github.com/docuhub/backend-go/internal/interfaces"
	"github.com/docuhub/backend-go/internal/kafka"
	"github.com/docuhub/backend-go/internal/logger"
	"github.com/docuhub/backend-go/internal/rag"
	"github.com/docuhub/backend-go/internal/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks    []func() error
	documentService interfaces.DocumentService
	questionService interfaces.QuestionService
	engine          *rag.Engine
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// GetDocumentService returns the document service instance
func (a *App) GetDocumentService() interfaces.DocumentService {
	return a.documentService
}

// GetQuestionService returns the question service instance
func (a *App) GetQuestionService() interfaces.QuestionService {
	return a.questionService
}

// GetEngine returns the RAG engine instance
func (a *App) GetEngine() *rag.Engine {
	return a.engine
}

// Init bootstraps configuration, logger, database connections and other shared
// infrastructure components required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	app := &App{}

	// Initialize database.
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, func() error {
		return database.CloseDB()
	})

	// Initialize Redis (optional). Failure shouldn't block the app.
	if _, err := database.InitRedis(); err != nil {
		logger.Warn("Failed to initialize Redis", zap.Error(err))
	} else {
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			return database.CloseRedis()
		})
	}

	// Initialize Kafka (optional). Failure shouldn't block the app.
	if config.AppConfig.Kafka.Enabled {
		if err := kafka.InitProducer(config.AppConfig.Kafka.Brokers, config.AppConfig.Kafka.Topic); err != nil {
			logger.Warn("Failed to initialize Kafka producer", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				producer := kafka.GetProducer()
				if producer != nil {
					return producer.Close()
				}
				return nil
			})
		}
	}

	// Wire the engine and services through the DI container.
	di.InitContainer()
	if err := di.RegisterProviders(); err != nil {
		return nil, err
	}

	err := di.Invoke(func(engine *rag.Engine, docSvc *services.DocumentService, qSvc *services.QuestionService) {
		app.engine = engine
		app.documentService = docSvc
		app.questionService = qSvc
	})
	if err != nil {
		return nil, err
	}

	if !app.engine.Store().Ready() {
		logger.Warn("Vector store not ready, retrieval will return empty results")
	}

	return app, nil
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
