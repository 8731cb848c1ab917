package generator

import (
	"sort"
	"strconv"

	"github.com/toyz/anchor/internal/scanner"
)

// importSpec is one line of the generated import block
type importSpec struct {
	Alias string
	Path  string
}

// ImportManager assigns a unique alias to every package the generated file
// refers to. The output package itself is never imported.
type ImportManager struct {
	self    string
	aliases map[string]string // path -> alias
	taken   map[string]bool
}

// NewImportManager creates an import manager for code written into the
// package with import path self
func NewImportManager(self string) *ImportManager {
	return &ImportManager{
		self:    self,
		aliases: make(map[string]string),
		taken:   make(map[string]bool),
	}
}

// Reserve marks names that package aliases must not use
func (im *ImportManager) Reserve(names ...string) {
	for _, name := range names {
		im.taken[name] = true
	}
}

// Add registers importPath and returns its alias. The alias is empty for the
// output package.
func (im *ImportManager) Add(importPath string) string {
	if importPath == im.self {
		return ""
	}
	if alias, ok := im.aliases[importPath]; ok {
		return alias
	}

	base := scanner.PackageName(importPath)
	alias := base
	for i := 2; im.taken[alias]; i++ {
		alias = base + strconv.Itoa(i)
	}
	im.taken[alias] = true
	im.aliases[importPath] = alias
	return alias
}

// Qualify returns name as referenced from the output package
func (im *ImportManager) Qualify(importPath, name string) string {
	if alias := im.Add(importPath); alias != "" {
		return alias + "." + name
	}
	return name
}

// Imports returns the registered imports sorted by path
func (im *ImportManager) Imports() []importSpec {
	specs := make([]importSpec, 0, len(im.aliases))
	for path, alias := range im.aliases {
		specs = append(specs, importSpec{Alias: alias, Path: path})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Path < specs[j].Path })
	return specs
}
