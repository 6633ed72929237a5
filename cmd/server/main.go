// Package main is the entry point for the FileOrganizer scan service.
package main

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/CageChen/fileorganizer/internal/config"
	"github.com/CageChen/fileorganizer/internal/handler"
	"github.com/CageChen/fileorganizer/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed web/*
var webFS embed.FS

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)

	logger.Info().Str("config", cfg.GetConfigFilePath()).Msg("FileOrganizer scan service")
	for i, root := range cfg.RecentRoots() {
		logger.Info().Int("index", i).Str("root", root).Msg("recent root")
	}

	// Create command registry and transports
	registry := handler.NewRegistry()
	invokeHandler := handler.NewInvokeHandler(registry, logger)
	wsHandler := handler.NewWSHandler(registry, logger)

	// Setup root watcher if enabled
	var rootWatcher handler.RootWatcher
	if cfg.Watch {
		w, err := watcher.New(logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create file watcher")
		} else {
			w.OnChange(wsHandler.OnFileChange)
			w.Start()
			defer func() { _ = w.Stop() }()
			for _, root := range cfg.RecentRoots() {
				if err := w.AddRoot(root); err != nil {
					logger.Debug().Str("root", root).Err(err).Msg("recent root not watched")
				}
			}
			rootWatcher = w
			logger.Info().Msg("file watcher enabled")
		}
	}

	handler.NewCommands(cfg, rootWatcher, logger).Register(registry)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(handler.OriginGuard(cfg.Host == "" || handler.IsLoopbackHost(cfg.Host)))

	api := r.Group("/api")
	{
		api.GET("/commands", invokeHandler.ListCommands)
		api.POST("/invoke/:command", invokeHandler.Invoke)
		api.GET("/scan", invokeHandler.Scan)
		api.GET("/ws", wsHandler.HandleWS)
	}

	// Serve embedded static files
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load web assets")
	}
	r.NoRoute(gin.WrapH(http.FileServer(http.FS(webContent))))

	addr := cfg.Addr()
	if cfg.Open {
		go openBrowser("http://" + addr)
	}

	logger.Info().Str("addr", "http://"+addr).Msg("server starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
