package model

import (
	"path/filepath"
	"strconv"
)

// ArchiveExtension is appended to every module archive file name.
const ArchiveExtension = ".jar"

// Layout maps build outputs to paths under an output root:
//
//	{root}/{space}/classes/{release}/{module}
//	{root}/{space}/archives/{module}.jar
type Layout struct {
	Root  string
	Cache string
}

// ClassesRoot holds the compiled output of a space for every release.
func (l Layout) ClassesRoot(space string) string {
	return filepath.Join(l.Root, space, "classes")
}

// ClassesDir is the output directory shared by all modules of a space for
// one release.
func (l Layout) ClassesDir(space string, release int) string {
	return filepath.Join(l.ClassesRoot(space), strconv.Itoa(release))
}

// ModuleClasses is the compiled output of one module for one release.
func (l Layout) ModuleClasses(space string, release int, module string) string {
	return filepath.Join(l.ClassesDir(space, release), module)
}

// ArchivesDir holds the final archives of a space.
func (l Layout) ArchivesDir(space string) string {
	return filepath.Join(l.Root, space, "archives")
}

// Archive is the final archive path of one module.
func (l Layout) Archive(space, module string) string {
	return filepath.Join(l.ArchivesDir(space), module+ArchiveExtension)
}

// ExternalArchive is where a fetched external module is stored.
func (l Layout) ExternalArchive(module string) string {
	return filepath.Join(l.Cache, module+ArchiveExtension)
}

// ReportsDir holds test reports of a space.
func (l Layout) ReportsDir(space string) string {
	return filepath.Join(l.Root, space, "reports")
}
