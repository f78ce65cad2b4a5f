package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Projects     []*projectBlock    `hcl:"project,block"`
	Spaces       []*spaceBlock      `hcl:"space,block"`
	Externals    []*externalBlock   `hcl:"external,block"`
	Coordinates  []*coordinateBlock `hcl:"coordinate,block"`
	Registries   []*registryBlock   `hcl:"registry,block"`
	ReleaseProbe []*probeBlock      `hcl:"release_probe,block"`
	Tools        []*toolBlock       `hcl:"tool,block"`
	Versions     hcl.Expression     `hcl:"versions,optional"`
}

type projectBlock struct {
	Name           string   `hcl:"name,label"`
	Version        string   `hcl:"version,optional"`
	SourceRoot     string   `hcl:"source_root,optional"`
	Repository     string   `hcl:"repository,optional"`
	SystemModules  []string `hcl:"system_modules,optional"`
	Requires       []string `hcl:"requires,optional"`
	CompileOptions []string `hcl:"compile_options,optional"`
}

type spaceBlock struct {
	Name      string   `hcl:"name,label"`
	Requires  []string `hcl:"requires,optional"`
	Release   int      `hcl:"release,optional"`
	Launcher  string   `hcl:"launcher,optional"`
	Tests     bool     `hcl:"tests,optional"`
	SourceSet string   `hcl:"source_set,optional"`
}

type externalBlock struct {
	Module  string `hcl:"module,label"`
	URI     string `hcl:"uri"`
	Version string `hcl:"version,optional"`
}

type coordinateBlock struct {
	Module     string `hcl:"module,label"`
	Group      string `hcl:"group"`
	Artifact   string `hcl:"artifact"`
	Version    string `hcl:"version"`
	Classifier string `hcl:"classifier,optional"`
}

type registryBlock struct {
	URL      string `hcl:"url"`
	CacheDir string `hcl:"cache_dir,optional"`
}

type probeBlock struct {
	APIURL       string   `hcl:"api_url,optional"`
	FallbackTags []string `hcl:"fallback_tags,optional"`
}

type toolBlock struct {
	Name    string `hcl:"name,label"`
	Path    string `hcl:"path"`
	Options string `hcl:"options,optional"`
}
