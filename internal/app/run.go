package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/event"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/pipeline"
	"github.com/vk/strata/internal/runner"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	closeEvents := a.connectEvents(ctx)
	defer closeEvents()

	switch a.config.Command {
	case CommandInfo:
		return a.info(ctx)
	case CommandClean:
		return a.clean(ctx)
	case CommandResolve:
		return a.resolve(ctx)
	}

	a.healthCheckServer()
	defer func() { _ = a.closeHealthCheckServer() }()
	return a.build(ctx)
}

func (a *App) build(ctx context.Context) error {
	project, err := a.project(ctx)
	if err != nil {
		return err
	}
	if err := a.registry.Validate(ctx, "javac", "jar"); err != nil {
		return err
	}

	a.logger.Info("🚀 Starting build...", "project", project.Name, "spaces", len(project.Spaces), "workers", a.config.WorkerCount)
	r := runner.New(a.registry, a.sink, a.config.WorkerCount)
	p := pipeline.New(project, a.layout, r,
		pipeline.WithResolver(a.resolver(project)),
		pipeline.WithSink(a.sink),
		pipeline.WithCompileOptions(a.model.Project.CompileOptions...),
		pipeline.WithTests(!a.config.SkipTests),
	)
	outcome, err := p.Run(ctx)
	if outcome != nil {
		a.printSummary(outcome)
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	a.logger.Info("🏁 Build finished.")
	return nil
}

func (a *App) resolve(ctx context.Context) error {
	project, err := a.project(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := a.resolver(project).Resolve(ctx)
	if err != nil {
		return err
	}
	a.printResolution(res, time.Since(start))
	return nil
}

func (a *App) info(ctx context.Context) error {
	project, err := a.project(ctx)
	if err != nil {
		return err
	}
	d := model.NewDescriber(a.outW)
	project.Describe(d)
	a.model.Describe(d)
	d.Line("locators %v", a.locators().Names())
	d.Line("tools")
	d.Nest(func() {
		for _, name := range a.registry.Names() {
			d.Line("%s (%s)", name, a.registry.Source(name))
		}
	})
	return nil
}

func (a *App) clean(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	dirs := []string{a.layout.Root}
	if a.config.CleanCache {
		dirs = append(dirs, a.layout.Cache)
	}
	for _, dir := range dirs {
		logger.Info("🧹 Removing directory.", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	return nil
}

// connectEvents adds the remote event stream to the sink, if configured.
// A stream that cannot connect is logged and ignored.
func (a *App) connectEvents(ctx context.Context) func() {
	if a.config.EventsURL == "" {
		return func() {}
	}
	socket, err := event.DialSocket(ctx, a.config.EventsURL, event.SocketOptions{ConnectTimeout: 5 * time.Second})
	if err != nil {
		a.logger.Warn("Event stream unavailable, continuing without it.", "url", a.config.EventsURL, "error", err)
		return func() {}
	}
	a.sink = event.Multi{a.sink, socket}
	return func() { _ = socket.Close() }
}
