package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/strata/internal/model"
)

// MavenCentral is the default repository for coordinate-based locators.
const MavenCentral = "https://repo.maven.apache.org/maven2"

// Coordinate identifies an artifact in a Maven-layout repository.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
}

// ParseCoordinate reads "group:artifact:version[:classifier]".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want group:artifact:version[:classifier]", s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: empty part", s)
		}
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

func (c Coordinate) String() string {
	s := c.Group + ":" + c.Artifact + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	return s
}

// Path is the repository-relative path of the artifact's jar.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version + "/" + file + ".jar"
}

// URI joins the artifact path onto repository.
func (c Coordinate) URI(repository string) string {
	return strings.TrimSuffix(repository, "/") + "/" + c.Path()
}

// Location turns the coordinate into a location for module.
func (c Coordinate) Location(module, repository string) model.ExternalModuleLocation {
	return model.ExternalModuleLocation{Module: module, URI: c.URI(repository), Version: c.Version}
}

// Coordinates locates modules through a table of repository coordinates.
type Coordinates struct {
	repository string
	table      map[string]Coordinate
}

func NewCoordinates(repository string, table map[string]Coordinate) *Coordinates {
	if repository == "" {
		repository = MavenCentral
	}
	copied := make(map[string]Coordinate, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &Coordinates{repository: repository, table: copied}
}

func (c *Coordinates) Name() string {
	return "coordinates"
}

func (c *Coordinates) Locate(_ context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	coord, ok := c.table[module]
	if !ok {
		return model.ExternalModuleLocation{}, false, nil
	}
	return coord.Location(module, c.repository), true, nil
}
