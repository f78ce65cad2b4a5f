package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/strata/internal/config"
	"github.com/vk/strata/internal/hcl"
	"github.com/vk/strata/internal/registry"
	"github.com/vk/strata/internal/testutil"
	"github.com/vk/strata/internal/toolcall"
)

type moduleFunc func(r *registry.Registry)

func (f moduleFunc) Register(r *registry.Registry) { f(r) }

type failingLoader struct{}

func (failingLoader) Load(context.Context, ...string) (*config.Model, error) {
	return nil, errors.New("boom")
}

// setupAppTest writes files into a fresh project directory and creates an
// app for it with a fake compiler and the in-process archiver.
func setupAppTest(t *testing.T, command string, files map[string]string) (*App, *testutil.SafeBuffer, *Config) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)

	cfg, err := NewConfig(Config{
		Command:    command,
		ConfigPath: dir,
		OutDir:     filepath.Join(dir, ".strata", "out"),
		CacheDir:   filepath.Join(dir, ".strata", "cache"),
		JavaHome:   filepath.Join(dir, "no-jdk"),
		SkipTests:  true,
		LogLevel:   "debug",
	})
	require.NoError(t, err)

	fake := &testutil.FakeCompiler{}
	modules := append([]registry.Module{moduleFunc(func(r *registry.Registry) {
		r.Register("javac", "test", fake)
	})}, coreModules...)

	logs := &testutil.SafeBuffer{}
	app := NewApp(logs, cfg, &hcl.Loader{Env: map[string]string{}}, modules...)
	t.Cleanup(func() {
		if os.Getenv("STRATA_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return app, logs, cfg
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigPath: ".", OutDir: "out", CacheDir: "cache"})
	require.NoError(t, err)
	assert.Equal(t, CommandBuild, cfg.Command)

	_, err = NewConfig(Config{OutDir: "out", CacheDir: "cache"})
	assert.ErrorContains(t, err, "ConfigPath is a required")

	_, err = NewConfig(Config{ConfigPath: ".", OutDir: "out", CacheDir: "cache", Command: "deploy"})
	assert.ErrorContains(t, err, `unknown command "deploy"`)
}

func TestNewApp_PanicsOnConfigError(t *testing.T) {
	cfg := &Config{ConfigPath: "."}
	assert.PanicsWithError(t, "failed to load configuration: boom", func() {
		NewApp(&testutil.SafeBuffer{}, cfg, failingLoader{})
	})
}

func TestNewApp_ToolPrecedence(t *testing.T) {
	app, _, _ := setupAppTest(t, CommandInfo, map[string]string{
		"build.hcl": `tool "jar" { path = "/opt/jdk/bin/jar" }`,
	})
	assert.Equal(t, "config", app.Registry().Source("jar"))
	assert.Equal(t, "test", app.Registry().Source("javac"))
}

var greetings = map[string]string{
	"build.hcl": `
project "greetings" {
  version = "1.0"
}
`,
	"com.greetings/main/java/module-info.java":        "module com.greetings { requires org.astro; }",
	"com.greetings/main/java/com/greetings/Main.java": "package com.greetings; public class Main {}",
	"org.astro/main/java/module-info.java":            "module org.astro { exports org.astro; }",
	"org.astro/main/java/org/astro/World.java":        "package org.astro; public class World {}",
}

func TestRun_Build(t *testing.T) {
	app, logs, cfg := setupAppTest(t, CommandBuild, greetings)

	require.NoError(t, app.Run(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.OutDir, "main", "archives", "com.greetings.jar"))
	assert.FileExists(t, filepath.Join(cfg.OutDir, "main", "archives", "org.astro.jar"))
	assert.Contains(t, logs.String(), "BUILD OK greetings")

	names, contents := testutil.ReadJar(t, filepath.Join(cfg.OutDir, "main", "archives", "com.greetings.jar"))
	assert.Contains(t, names, "com/greetings/Main.class")
	assert.Contains(t, contents["META-INF/MANIFEST.MF"], "Main-Class: com.greetings.Main")
}

func TestRun_BuildFailure(t *testing.T) {
	app, logs, _ := setupAppTest(t, CommandBuild, greetings)
	fake, _ := app.Registry().Lookup("javac")
	fake.(*testutil.FakeCompiler).Fail = func(toolcall.Call) bool { return true }

	err := app.Run(context.Background())
	assert.ErrorContains(t, err, "build failed: base compile failed")
	assert.Contains(t, logs.String(), "BUILD FAILED")
}

func TestRun_Resolve(t *testing.T) {
	files := map[string]string{}
	for k, v := range greetings {
		files[k] = v
	}
	files["com.greetings/main/java/module-info.java"] = "module com.greetings { requires org.astro; requires com.example.lib; }"

	app, logs, cfg := setupAppTest(t, CommandResolve, files)
	lib := filepath.Join(t.TempDir(), "lib.jar")
	testutil.WriteJar(t, lib, map[string][]byte{
		"module-info.class": testutil.ModuleInfoClass("com.example.lib", "2.0"),
	})
	app.Model().Externals = append(app.Model().Externals, &config.External{Module: "com.example.lib", URI: "file://" + lib})

	require.NoError(t, app.Run(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.CacheDir, "com.example.lib.jar"))
	assert.Contains(t, logs.String(), "fetched com.example.lib -> file://")
}

func TestRun_Info(t *testing.T) {
	app, logs, _ := setupAppTest(t, CommandInfo, greetings)

	require.NoError(t, app.Run(context.Background()))
	out := logs.String()
	assert.Contains(t, out, "project greetings 1.0")
	assert.Contains(t, out, "module com.greetings")
	assert.Contains(t, out, "main-class com.greetings.Main")
	assert.Contains(t, out, "locators [config coordinates guesser]")
	assert.Contains(t, out, "jar (builtin)")
}

func TestRun_Clean(t *testing.T) {
	app, _, cfg := setupAppTest(t, CommandClean, greetings)
	testutil.WriteFiles(t, cfg.OutDir, map[string]string{"main/archives/x.jar": "x"})
	testutil.WriteFiles(t, cfg.CacheDir, map[string]string{"y.jar": "y"})

	require.NoError(t, app.Run(context.Background()))
	assert.NoDirExists(t, cfg.OutDir)
	assert.DirExists(t, cfg.CacheDir)

	app.config.CleanCache = true
	require.NoError(t, app.Run(context.Background()))
	assert.NoDirExists(t, cfg.CacheDir)
}

func TestHealthHandler(t *testing.T) {
	app, _, _ := setupAppTest(t, CommandInfo, greetings)
	app.ctx = context.Background()

	rec := httptest.NewRecorder()
	app.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}
