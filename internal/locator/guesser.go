package locator

import (
	"context"
	"runtime"
	"sort"
	"strings"

	"github.com/vk/strata/internal/model"
)

// Family describes how a well-known group of modules maps onto repository
// coordinates. A module matches when its name equals Prefix or starts with
// Prefix followed by a dot; the remainder, with dots turned into dashes, is
// appended to ArtifactPrefix.
type Family struct {
	Prefix         string
	Group          string
	ArtifactPrefix string
	Version        string
	// NativeSuffix marks module names (e.g. ".natives") whose artifact is
	// the platform-specific classifier variant of the base artifact.
	NativeSuffix string
	// AlwaysNative selects a platform classifier for every module.
	AlwaysNative bool
	// Classifiers maps a platform key (linux, linux-arm64, macos,
	// macos-arm64, windows) to the classifier used on that platform.
	Classifiers map[string]string
}

// DefaultFamilies are the module families guessed without configuration.
func DefaultFamilies() []Family {
	return []Family{
		{Prefix: "org.junit.jupiter", Group: "org.junit.jupiter", ArtifactPrefix: "junit-jupiter", Version: "5.10.2"},
		{Prefix: "org.junit.platform", Group: "org.junit.platform", ArtifactPrefix: "junit-platform", Version: "1.10.2"},
		{Prefix: "org.junit.vintage", Group: "org.junit.vintage", ArtifactPrefix: "junit-vintage", Version: "5.10.2"},
		{Prefix: "junit", Group: "junit", ArtifactPrefix: "junit", Version: "4.13.2"},
		{Prefix: "org.opentest4j", Group: "org.opentest4j", ArtifactPrefix: "opentest4j", Version: "1.3.0"},
		{Prefix: "org.apiguardian.api", Group: "org.apiguardian", ArtifactPrefix: "apiguardian-api", Version: "1.1.2"},
		{Prefix: "org.hamcrest", Group: "org.hamcrest", ArtifactPrefix: "hamcrest", Version: "2.2"},
		{
			Prefix: "org.lwjgl", Group: "org.lwjgl", ArtifactPrefix: "lwjgl", Version: "3.3.3",
			NativeSuffix: ".natives",
			Classifiers: map[string]string{
				"linux":       "natives-linux",
				"linux-arm64": "natives-linux-arm64",
				"macos":       "natives-macos",
				"macos-arm64": "natives-macos-arm64",
				"windows":     "natives-windows",
			},
		},
		{
			Prefix: "javafx", Group: "org.openjfx", ArtifactPrefix: "javafx", Version: "21.0.2",
			AlwaysNative: true,
			Classifiers: map[string]string{
				"linux":       "linux",
				"linux-arm64": "linux-aarch64",
				"macos":       "mac",
				"macos-arm64": "mac-aarch64",
				"windows":     "win",
			},
		},
	}
}

// Guesser derives coordinates from module names of well-known families.
type Guesser struct {
	repository string
	families   []Family
	versions   map[string]string
	platform   string
}

// GuesserOption customizes a Guesser.
type GuesserOption func(*Guesser)

// WithFamilies replaces the default families.
func WithFamilies(families ...Family) GuesserOption {
	return func(g *Guesser) { g.families = families }
}

// WithPlatform overrides the host platform used to pick classifiers.
func WithPlatform(goos, goarch string) GuesserOption {
	return func(g *Guesser) { g.platform = PlatformKey(goos, goarch) }
}

// NewGuesser creates a guesser. versions overrides family versions, keyed
// either by a module name or by a family prefix.
func NewGuesser(repository string, versions map[string]string, opts ...GuesserOption) *Guesser {
	if repository == "" {
		repository = MavenCentral
	}
	g := &Guesser{
		repository: repository,
		families:   DefaultFamilies(),
		versions:   versions,
		platform:   PlatformKey(runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(g)
	}
	// Longest prefix first so that nested families win.
	sort.SliceStable(g.families, func(i, j int) bool {
		return len(g.families[i].Prefix) > len(g.families[j].Prefix)
	})
	return g
}

// PlatformKey names a platform the way Family.Classifiers is keyed.
func PlatformKey(goos, goarch string) string {
	var key string
	switch goos {
	case "linux":
		key = "linux"
	case "darwin":
		key = "macos"
	case "windows":
		key = "windows"
	default:
		return goos
	}
	if goarch == "arm64" {
		key += "-arm64"
	}
	return key
}

func (g *Guesser) Name() string {
	return "guesser"
}

func (g *Guesser) Locate(_ context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	coord, ok := g.Guess(module)
	if !ok {
		return model.ExternalModuleLocation{}, false, nil
	}
	return coord.Location(module, g.repository), true, nil
}

// Guess returns the coordinate for module, if its family is known.
func (g *Guesser) Guess(module string) (Coordinate, bool) {
	for _, f := range g.families {
		base := module
		native := f.AlwaysNative
		if f.NativeSuffix != "" && strings.HasSuffix(module, f.NativeSuffix) {
			base = strings.TrimSuffix(module, f.NativeSuffix)
			native = true
		}
		var artifact string
		switch {
		case base == f.Prefix:
			artifact = f.ArtifactPrefix
		case strings.HasPrefix(base, f.Prefix+"."):
			rest := strings.TrimPrefix(base, f.Prefix+".")
			artifact = f.ArtifactPrefix + "-" + strings.ReplaceAll(rest, ".", "-")
		default:
			continue
		}

		coord := Coordinate{Group: f.Group, Artifact: artifact, Version: g.version(module, f)}
		if native {
			classifier, ok := g.classifier(f)
			if !ok {
				return Coordinate{}, false
			}
			coord.Classifier = classifier
		}
		return coord, true
	}
	return Coordinate{}, false
}

func (g *Guesser) version(module string, f Family) string {
	if v, ok := g.versions[module]; ok {
		return v
	}
	if v, ok := g.versions[f.Prefix]; ok {
		return v
	}
	return f.Version
}

func (g *Guesser) classifier(f Family) (string, bool) {
	if c, ok := f.Classifiers[g.platform]; ok {
		return c, true
	}
	os, _, _ := strings.Cut(g.platform, "-")
	c, ok := f.Classifiers[os]
	return c, ok
}
