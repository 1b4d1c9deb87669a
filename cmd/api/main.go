package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wtwq666/smartdata/internal/config"
	"github.com/wtwq666/smartdata/internal/handler"
	chatHandler "github.com/wtwq666/smartdata/internal/handler/chat"
	sessionHandler "github.com/wtwq666/smartdata/internal/handler/session"
	agentService "github.com/wtwq666/smartdata/internal/service/agent"
	chatService "github.com/wtwq666/smartdata/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	chatSvc, err := chatService.NewService(cfg.Store.SessionPath)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer chatSvc.Close()

	if !cfg.AI.Enabled() {
		log.Println("Ark 凭证未配置，聊天接口首次调用时会返回错误")
	}

	// Agent 是进程级单例，首次聊天请求到达时才真正构建。
	provider := func(ctx context.Context) (agentService.Invoker, error) {
		return agentService.Shared(ctx, cfg.AI, cfg.Store.BusinessPath)
	}

	router := handler.NewRouter(
		sessionHandler.New(chatSvc),
		chatHandler.New(chatSvc, provider, cfg.Chat.ContextWindow),
	)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("SmartData assistant backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
