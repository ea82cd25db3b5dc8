package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/health-assistant/backend/internal/analysis/advice"
	"github.com/zhouzirui/health-assistant/backend/internal/config"
	"github.com/zhouzirui/health-assistant/backend/internal/handler"
	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	"github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/service/translate"
	"github.com/zhouzirui/health-assistant/backend/internal/service/vision"
	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to load configuration")
	}

	records, err := record.LoadFile(cfg.Data.Path)
	if err != nil {
		var dataErr *record.DataError
		if errors.As(err, &dataErr) {
			log.Fatal(log.Fields{"path": cfg.Data.Path}, dataErr.Error())
		}
		log.Fatal(log.Fields{"path": cfg.Data.Path, "error": err.Error()}, "failed to load dataset")
	}
	if incomplete := record.Incomplete(records); incomplete > 0 {
		log.Warn(log.Fields{"path": cfg.Data.Path, "rows": incomplete}, "dataset rows with empty disease or cure")
	}
	recordStore := record.NewMemoryStore(records)
	log.Info(log.Fields{"path": cfg.Data.Path, "records": recordStore.Len()}, "dataset loaded")

	var geminiClient gemini.IGemini
	if cfg.Gemini.Enabled() {
		geminiClient, err = gemini.NewGeminiClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			TextModel:   cfg.Gemini.Model,
			VisionModel: cfg.Gemini.VisionModel,
		})
		if err != nil {
			log.Warn(log.Fields{"error": err.Error()}, "failed to initialize Gemini client, continuing without it")
			geminiClient = nil
		} else {
			defer geminiClient.Close()
		}
	}

	translator, err := translate.NewFromConfig(ctx, cfg, geminiClient)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to initialize translator")
	}
	log.Info(log.Fields{"provider": translator.ProviderName()}, "translator ready")

	classifier, err := vision.NewFromConfig(cfg, geminiClient)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to initialize image classifier")
	}

	chatStore, closeStore := newChatStore(ctx, cfg.Session)
	defer closeStore()

	chatService := chat.NewService(chatStore)
	assistantService := assistant.NewService(chatService, advice.NewMatcher(recordStore), translator, classifier)

	router := handler.NewRouter(ctx, recordStore, chatService, assistantService, handler.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	startServer(ctx, cfg.Server, router)
}

func newChatStore(ctx context.Context, cfg config.SessionConfig) (chat.Store, func()) {
	if cfg.Store != config.SessionStoreRedis {
		return chat.NewMemoryStore(), func() {}
	}

	client, err := chat.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to connect session store")
	}
	return chat.NewRedisStore(client, cfg.TTL), func() { _ = client.Close() }
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info(log.Fields{"addr": addr}, "health assistant listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "server error")
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
