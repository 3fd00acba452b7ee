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
	"github.com/redis/go-redis/v9"

	"github.com/nqu-vtuber/backend/internal/cache"
	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/handler"
	"github.com/nqu-vtuber/backend/internal/service/llm"
	"github.com/nqu-vtuber/backend/internal/service/tts"
	"github.com/nqu-vtuber/backend/internal/session"
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

	store, err := newAudioCache(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to initialize audio cache: %v", err)
	}
	defer store.Close()
	log.Printf("audio cache initialized driver=%s", cfg.Cache.Driver)

	// Initialize the reply generator
	var generator session.Generator
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Fatalf("failed to initialize chat model: %v", err)
		}
		generator, err = llm.NewGenerator(ctx, chatModel, cfg.AI, cfg.Character)
		if err != nil {
			log.Fatalf("failed to initialize reply generator: %v", err)
		}
		log.Println("AI service initialized successfully")
	} else {
		generator = llm.NewFallbackGenerator()
		log.Println("Ark 凭证未配置，使用兜底回复器运行")
	}

	// Initialize the synthesis coordinator
	synth := tts.NewCoordinator(tts.NewHTTPEngine(cfg.TTS), store, cfg.TTS, cfg.Character.Language)
	var synthesizer session.Synthesizer = synth
	if cfg.TTS.Enabled {
		log.Printf("TTS service initialized base_url=%s", cfg.TTS.BaseURL)
	} else {
		synthesizer = tts.Disabled{}
		log.Println("TTS_BASE_URL 未配置，回复将不携带语音")
	}

	registry := session.NewRegistry(generator, synthesizer, cfg.Trigger, cfg.AI.HistoryLimit)

	router := handler.NewRouter(registry, synth)

	startServer(ctx, cfg.Server, router)
}

// newAudioCache 按配置选择缓存驱动。
func newAudioCache(cfg config.CacheConfig) (cache.AudioCache, error) {
	switch cache.Driver(cfg.Driver) {
	case cache.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return cache.New(cache.DriverRedis,
			cache.WithRedisClient(client),
			cache.WithRedisTTL(cfg.RedisTTL),
		)
	default:
		return cache.New(cache.Driver(cfg.Driver), cache.WithCapacity(cfg.Capacity))
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("VTuber backend listening on %s", addr)
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
