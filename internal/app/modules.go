package app

import (
	"github.com/vk/strata/internal/jar"
	"github.com/vk/strata/internal/registry"
)

// coreModules is the definitive list of in-process tools compiled into the
// strata binary.
var coreModules = []registry.Module{
	jar.Module{},
}

// hostTools are looked up on the host when nothing else provides them.
var hostTools = []string{"javac", "jar", "junit"}
