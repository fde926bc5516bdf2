package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"agd-render/internal/config"
	"agd-render/internal/display"
	"agd-render/internal/display/glwindow"
	"agd-render/internal/glyph"
	"agd-render/internal/handler"
	"agd-render/internal/imagesrc"
	"agd-render/internal/model"
	"agd-render/internal/raster"
	"agd-render/internal/service"
	"agd-render/internal/storage"
	"agd-render/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitWithOutput(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "agd-render: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Errorf("agd-render stopped: %v", err)
		stop()
		os.Exit(1)
	}
	logger.Info("agd-render exited")
}

// run wires the components and drives the session on the calling goroutine,
// which must be the main OS thread for the GL backend.
func run(ctx context.Context, cfg *config.Config) error {
	fonts, closeFonts, err := loadFonts(cfg.Render)
	if err != nil {
		return err
	}
	defer closeFonts()

	renderer := raster.NewRenderer(fonts,
		imagesrc.NewDecoder(cfg.Render.ImageBaseDir, cfg.Render.ImageCacheSize, cfg.Render.MaxDimension),
		raster.Options{
			TextSize:     float64(cfg.Render.FontSize),
			MaxDimension: cfg.Render.MaxDimension,
		})

	cm, err := model.NewChatModel(ctx, cfg)
	if err != nil {
		return err
	}
	models := service.NewChatModelService(cm, service.ModelServiceOptions{
		SystemPrompt:   service.LoadSystemPrompt(cfg.Agent),
		CritiquePrompt: service.LoadCritiquePrompt(cfg.Agent),
		Attempts:       cfg.Retry.Attempts,
		Delay:          cfg.Retry.Delay,
		Limiter:        service.NewLimiter(cfg.RateLimit),
	})
	orchestrator := service.NewOrchestrator(models, renderer, service.OrchestratorOptions{
		MaxRounds:       cfg.Agent.MaxRounds,
		CritiqueEnabled: cfg.Agent.CritiqueEnabled,
		SnapshotScale:   cfg.Agent.SnapshotScale,
		SnapshotQuality: cfg.Agent.SnapshotQuality,
	})

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()
	go storage.RunBackups(ctx, store, cfg.Storage.BackupInterval)

	hub := service.NewFrameHub()
	queue := service.NewStimulusQueue()
	service.StartLineListener(os.Stdin, queue)

	if cfg.Server.Enabled {
		server := &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:        setupRouter(cfg, handler.NewFrameHandler(store, hub, queue)),
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		}
		go func() {
			logger.Infof("Control API listening on port %d", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Control API failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Control API shutdown: %v", err)
			}
		}()
	}

	session := service.NewSession(orchestrator, opener(cfg.Display), queue, service.SessionOptions{
		Tick:          cfg.Display.Tick,
		PressDuration: cfg.Display.PressDuration,
		Store:         store,
		Hub:           hub,
	})
	defer session.Close()

	if err := session.Boot(ctx); err != nil {
		return err
	}
	return session.Run(ctx)
}

func opener(cfg config.DisplayConfig) display.Opener {
	if cfg.Backend == "headless" {
		return display.HeadlessOpener(cfg.SnapshotDir)
	}
	return glwindow.Opener
}

// loadFonts returns the configured primary font (embedded Go Regular when
// unset) and the optional emoji fallback.
func loadFonts(cfg config.RenderConfig) (glyph.Fonts, func(), error) {
	primary := glyph.Default()
	if cfg.FontPath != "" {
		f, err := glyph.LoadFile(cfg.FontPath)
		if err != nil {
			return glyph.Fonts{}, nil, err
		}
		primary = f
	}
	fonts := glyph.Fonts{Primary: primary}
	closers := []func() error{primary.Close}

	if cfg.EmojiFontPath != "" {
		emoji, err := glyph.LoadFile(cfg.EmojiFontPath)
		if err != nil {
			logger.Warnf("Emoji font unavailable, continuing without it: %v", err)
		} else {
			fonts.Fallback = emoji
			closers = append(closers, emoji.Close)
		}
	}

	return fonts, func() {
		for _, c := range closers {
			_ = c()
		}
	}, nil
}

func setupRouter(cfg *config.Config, frames *handler.FrameHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logger.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	frames.Register(router)
	return router
}
