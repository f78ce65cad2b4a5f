package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/vk/strata/internal/config"
	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/event"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	model      *config.Model
	registry   *registry.Registry
	layout     model.Layout
	sink       event.Sink
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration errors are fatal and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "spaces", len(cfgModel.Spaces))

	// Configured tools win over built-in ones, which win over the host.
	reg := registry.New()
	for _, t := range cfgModel.Tools {
		reg.Register(t.Name, "config", &registry.Native{Path: t.Path, Options: t.Options})
	}
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	javaHome := appConfig.JavaHome
	if javaHome == "" {
		javaHome = os.Getenv("JAVA_HOME")
	}
	reg.RegisterDiscovered(javaHome, hostTools...)
	logger.Debug("Tool providers registered.", "tools", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   appConfig,
		model:    cfgModel,
		registry: reg,
		layout:   model.Layout{Root: appConfig.OutDir, Cache: appConfig.CacheDir},
		sink:     event.NewLogSink(logger),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration.
func (a *App) Model() *config.Model {
	return a.model
}
