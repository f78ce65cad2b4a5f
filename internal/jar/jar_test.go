package jar

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/strata/internal/registry"
	"github.com/vk/strata/internal/testutil"
	"github.com/vk/strata/internal/toolcall"
)

func run(t *testing.T, call toolcall.Call) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code, err := Tool{}.Run(context.Background(), call, &stdout, &stderr)
	require.NoError(t, err)
	return code, stderr.String()
}

func TestTool_MultiReleaseArchive(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"classes/0/b/module-info.class":   "mi",
		"classes/0/b/b/B.class":           "base",
		"resources/b/config.properties":   "k=v",
		"classes/11/b/b/B.class":          "java11",
		"resources-17/b/feature.txt":      "seventeen",
		"carried/b/b/internal/Test.class": "carried",
	})
	out := filepath.Join(root, "archives", "b.jar")

	call := toolcall.New(ToolName, "--create", "--file", out, "--main-class", "b.Main").
		With("-C", filepath.Join(root, "classes/0/b"), ".").
		With("-C", filepath.Join(root, "resources/b"), ".").
		With("-C", filepath.Join(root, "carried/b"), ".").
		With("--release", "11", "-C", filepath.Join(root, "classes/11/b"), ".").
		With("--release", "17", "-C", filepath.Join(root, "resources-17/b"), ".")

	code, stderr := run(t, call)
	require.Equal(t, 0, code, stderr)

	names, contents := testutil.ReadJar(t, out)
	assert.Equal(t, []string{
		"META-INF/MANIFEST.MF",
		"b/B.class",
		"module-info.class",
		"config.properties",
		"b/internal/Test.class",
		"META-INF/versions/11/b/B.class",
		"META-INF/versions/17/feature.txt",
	}, names)
	assert.Equal(t, "java11", contents["META-INF/versions/11/b/B.class"])
	assert.Contains(t, contents["META-INF/MANIFEST.MF"], "Multi-Release: true\r\n")
	assert.Contains(t, contents["META-INF/MANIFEST.MF"], "Main-Class: b.Main\r\n")
}

func TestTool_Deterministic(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"c/a/A.class": "a", "c/a/B.class": "b"})

	build := func(name string) []byte {
		out := filepath.Join(root, name)
		code, stderr := run(t, toolcall.New(ToolName, "--create", "--file="+out, "-C", filepath.Join(root, "c"), "."))
		require.Equal(t, 0, code, stderr)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, build("one.jar"), build("two.jar"))
}

func TestTool_DuplicatesKeepFirst(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"first/x/X.class":  "first",
		"second/x/X.class": "second",
	})
	out := filepath.Join(root, "x.jar")

	code, stderr := run(t, toolcall.New(ToolName, "-c", "-f", out,
		"-C", filepath.Join(root, "first"), ".",
		"-C", filepath.Join(root, "second"), "."))
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "duplicate entry x/X.class")

	names, contents := testutil.ReadJar(t, out)
	assert.Equal(t, []string{"META-INF/MANIFEST.MF", "x/X.class"}, names)
	assert.Equal(t, "first", contents["x/X.class"])
	assert.NotContains(t, contents["META-INF/MANIFEST.MF"], "Multi-Release")
}

func TestTool_Failures(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "bad.jar")

	testCases := []struct {
		name   string
		call   toolcall.Call
		code   int
		stderr string
	}{
		{"unknown option", toolcall.New(ToolName, "--create", "--file", out, "--verbose"), 2, `unsupported option "--verbose"`},
		{"missing file", toolcall.New(ToolName, "--create"), 2, "--file is required"},
		{"not create", toolcall.New(ToolName, "--file", out), 2, "only --create"},
		{"bad release", toolcall.New(ToolName, "--create", "--file", out, "--release", "8"), 2, `invalid release "8"`},
		{"missing directory", toolcall.New(ToolName, "--create", "--file", out, "-C", filepath.Join(root, "nope"), "."), 1, "no such file or directory"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, stderr := run(t, tc.call)
			assert.Equal(t, tc.code, code)
			assert.Contains(t, stderr, tc.stderr)
			assert.NoFileExists(t, out)
		})
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed runs leave no temporary files")
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	Module{}.Register(r)

	_, ok := r.Lookup(ToolName)
	assert.True(t, ok)
	assert.Equal(t, "builtin", r.Source(ToolName))
}

func TestModule_RegisterKeepsExistingProvider(t *testing.T) {
	r := registry.New()
	r.Register(ToolName, "config", &registry.Native{Path: "/opt/jdk/bin/jar"})
	Module{}.Register(r)

	assert.Equal(t, "config", r.Source(ToolName))
}
