package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classroom-backend/internal/api"
	"classroom-backend/internal/api/router"
	"classroom-backend/internal/classroom"
	"classroom-backend/internal/config"
	"classroom-backend/internal/env"
	"classroom-backend/internal/identity"
	"classroom-backend/internal/queue"
)

func main() {
	env.Load()

	cfg, err := config.LoadAndValidate(env.Get(env.ConfigPath))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	verifier, err := identity.New(identity.Options{
		Mode:          cfg.Identity.Mode,
		JWTSecret:     cfg.Identity.JWTSecret,
		RedisAddr:     cfg.Identity.RedisAddr,
		RedisPassword: cfg.Identity.RedisPassword,
		RedisDB:       cfg.Identity.RedisDB,
		SessionPrefix: cfg.Identity.SessionPrefix,
	})
	if err != nil {
		log.Fatalf("identity init failed: %v", err)
	}
	log.Printf("[IDENTITY]: join identities use %s mode", cfg.Identity.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := classroom.NewHub(classroom.HubOptions{
		EnforceBoardPermission: cfg.Rooms.EnforceBoardPermission,
	})
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	handler := classroom.NewHandler(hub, classroom.HandlerOptions{
		Verifier:      verifier,
		VerifyTimeout: cfg.Identity.VerifyTimeout,
		SendBuffer:    cfg.Rooms.SendBuffer,
		ReadBuffer:    cfg.Rooms.ReadBuffer,
		MaxFrameBytes: cfg.Rooms.MaxFrameBytes,
	})

	queueManager := queue.NewRequestQueueManager(cfg.Queue.Size, cfg.Queue.Workers)

	server := api.NewAPIServer(
		api.ServerOptions{
			ListenAddr:      cfg.Server.ListenAddr,
			WebsocketPath:   cfg.Server.WebsocketPath,
			CORSOrigins:     cfg.Server.CORSOrigins,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		queueManager,
		hub,
		handler,
		verifier,
		router.UtilsRoutes(cfg.Server.APIPrefix),
		router.RoomRoutes(cfg.Server.APIPrefix),
	)

	if err := server.Run(ctx); err != nil {
		log.Printf("[API]: server stopped: %v", err)
		stop()
	}

	<-hubDone
	queueManager.Shutdown()
	log.Printf("[API]: shutdown complete")
}
