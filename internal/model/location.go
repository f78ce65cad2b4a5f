package model

// ExternalModuleLocation says where the artifact of an external module can
// be fetched from. Version is informational.
type ExternalModuleLocation struct {
	Module  string
	URI     string
	Version string
}

func (l ExternalModuleLocation) String() string {
	if l.Version == "" {
		return l.Module + " -> " + l.URI
	}
	return l.Module + "@" + l.Version + " -> " + l.URI
}
