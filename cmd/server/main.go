package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/flexchat/internal/api"
	"github.com/wuwenbin0122/flexchat/internal/gateway"
	"github.com/wuwenbin0122/flexchat/internal/session"
	"github.com/wuwenbin0122/flexchat/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	issuer, err := session.NewIssuer(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		sugar.Fatalf("failed to initialise session issuer: %v", err)
	}
	registry := session.NewRegistry()

	chatGateway := gateway.New(cfg.OpenAI, sugar.Named("gateway"))
	sugar.Infow("completion gateway ready", "base_url", cfg.OpenAI.ResolvedBaseURL(), "model", chatGateway.Model())

	handler := api.NewHandler(registry, issuer, chatGateway, sugar.Named("api"), api.Options{
		Title:        cfg.ChatTitle,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      setupRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go pruneSessions(ctx, registry, cfg.Session, sugar)

	go func() {
		sugar.Infof("server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("server crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("graceful shutdown failed: %v", err)
	}

	sugar.Info("server stopped cleanly")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	handler.RegisterRoutes(router)

	return router
}

// pruneSessions drops conversations whose session has been idle for a full
// token lifetime, since their cookies can no longer verify.
func pruneSessions(ctx context.Context, registry *session.Registry, cfg utils.SessionConfig, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := registry.Prune(cfg.TTL); removed > 0 {
				logger.Infof("pruned %d idle sessions (%d active)", removed, registry.Len())
			}
		}
	}
}
