package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"theia/theia/config"
	"theia/theia/controllers"
	"theia/theia/routes"
	"theia/theia/services/events"
	"theia/theia/services/llm"
	"theia/theia/services/session"
	"theia/theia/services/title"
	"theia/theia/sources/psql"
	"theia/theia/sources/psql/dao"
	"theia/theia/sources/storage"
	"theia/theia/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	chatDAO := dao.NewChatDAO(db.DB)
	messageDAO := dao.NewMessageDAO(db.DB)
	contextDAO := dao.NewContextItemDAO(db.DB)
	insightDAO := dao.NewInsightDAO(db.DB)

	gateway := llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.AppURL)
	bus := events.NewBus()
	titleGen := title.NewGenerator(chatDAO, gateway, cfg.TitleModel, bus)

	script := session.DefaultScript()
	if cfg.TutorialScriptFile != "" {
		loaded, err := session.LoadScript(cfg.TutorialScriptFile)
		if err != nil {
			logging.AppLogger.Warn("tutorial script load failed, using built-in",
				zap.String("file", cfg.TutorialScriptFile), zap.Error(err))
		} else {
			script = loaded
		}
	}

	sessions := session.NewManager(func(chatID string, userID int) *session.Orchestrator {
		model := cfg.ChatModel
		lookupCtx, lookupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer lookupCancel()
		if selected, err := userDAO.GetSelectedModel(lookupCtx, userID); err == nil && selected != "" {
			model = selected
		}
		return session.NewOrchestrator(session.Config{
			ChatID:                   chatID,
			UserID:                   userID,
			Model:                    model,
			TitleTriggerUserMessages: cfg.TitleTriggerUserMessages,
			Script:                   script,
		}, messageDAO, userDAO, contextDAO, gateway, titleGen)
	})

	// MinIO is optional; without it attachment uploads return an error but
	// everything else runs.
	var minioClient *storage.MinIOClient
	if cfg.MinIOEndpoint != "" {
		minioClient, err = storage.NewMinIOClient(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
	}

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	userCtrl := controllers.NewUserController(userDAO, cfg)
	chatCtrl := controllers.NewChatController(chatDAO, messageDAO, sessions, minioClient)
	contextCtrl := controllers.NewContextController(contextDAO)
	insightCtrl := controllers.NewInsightController(insightDAO, messageDAO, chatDAO)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/users", routes.UserRoutes(userCtrl, cfg))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, bus, cfg))
	r.Mount("/contexts", routes.ContextRoutes(contextCtrl, cfg))
	r.Mount("/insights", routes.InsightRoutes(insightCtrl, cfg))

	srv := &http.Server{
		Addr:    ":8000",
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
}
