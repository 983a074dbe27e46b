package funcgen

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Module describes the main module of a loaded program.
type Module struct {
	Path      string
	Dir       string
	GoVersion string
}

type packageEntry struct {
	types *types.Package
	fset  *token.FileSet
	dir   string
}

// Snapshot is the immutable set of files a pipeline run scans.
type Snapshot struct {
	Units  []*Unit
	Module *Module

	packages map[string]packageEntry
	// loaded holds the directories of loaded packages, including packages
	// that did not type-check.
	loaded []string
}

// NewSnapshot creates a snapshot over units. module may be nil.
func NewSnapshot(units []*Unit, module *Module) *Snapshot {
	s := &Snapshot{
		Units:    units,
		Module:   module,
		packages: make(map[string]packageEntry, len(units)),
	}

	for _, unit := range units {
		if unit.Package == nil {
			continue
		}
		if _, ok := s.packages[unit.Package.Path()]; ok {
			continue
		}

		s.packages[unit.Package.Path()] = packageEntry{
			types: unit.Package,
			fset:  unit.Fset,
			dir:   filepath.Dir(unit.Filename),
		}
	}

	return s
}

// PackageName returns the declared name of a loaded package.
func (s *Snapshot) PackageName(pkgPath string) (string, bool) {
	entry, ok := s.packages[pkgPath]
	if !ok {
		return "", false
	}

	return entry.types.Name(), true
}

// PackageDir returns the directory generated files of pkgPath are written to.
// Packages that are not loaded resolve relative to the main module.
func (s *Snapshot) PackageDir(pkgPath string) (string, bool) {
	if entry, ok := s.packages[pkgPath]; ok {
		return entry.dir, true
	}

	if s.Module == nil || s.Module.Dir == "" {
		return "", false
	}

	switch {
	case pkgPath == s.Module.Path:
		return s.Module.Dir, true
	case strings.HasPrefix(pkgPath, s.Module.Path+"/"):
		rel := strings.TrimPrefix(pkgPath, s.Module.Path+"/")
		return filepath.Join(s.Module.Dir, filepath.FromSlash(rel)), true
	default:
		return "", false
	}
}

// Dirs returns the sorted directories of the loaded packages that lie in the
// main module. Without a known module every loaded directory is returned.
func (s *Snapshot) Dirs() []string {
	dirs := slices.Clone(s.loaded)
	for _, entry := range s.packages {
		dirs = append(dirs, entry.dir)
	}

	if s.Module != nil && s.Module.Dir != "" {
		root := filepath.Clean(s.Module.Dir)
		dirs = slices.DeleteFunc(dirs, func(dir string) bool {
			rel, err := filepath.Rel(root, dir)
			return err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
		})
	}

	slices.Sort(dirs)
	return slices.Compact(dirs)
}

// Declares reports the file declaring pkgPath.typeName, if any loaded
// package declares it.
func (s *Snapshot) Declares(pkgPath, typeName string) (string, bool) {
	entry, ok := s.packages[pkgPath]
	if !ok {
		return "", false
	}

	obj, ok := entry.types.Scope().Lookup(typeName).(*types.TypeName)
	if !ok || entry.fset == nil {
		return "", false
	}

	return entry.fset.Position(obj.Pos()).Filename, true
}

// LoadConfig configures LoadSnapshot.
type LoadConfig struct {
	Dir      string
	Patterns []string
	// Tests also loads test files. The same file is then observed once per
	// package variant.
	Tests bool
}

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes |
	packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedModule

// LoadSnapshot loads the packages matching cfg.Patterns.
// Packages with errors are kept as far as they type-check.
func LoadSnapshot(ctx context.Context, cfg LoadConfig) (*Snapshot, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     cfg.Dir,
		Tests:   cfg.Tests,
		Fset:    fset,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var (
		units  []*Unit
		module *Module
		dirs   []string
	)
	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			slog.Warn("package error", "package", pkg.PkgPath, "error", pkgErr)
		}

		for _, file := range pkg.GoFiles {
			dirs = append(dirs, filepath.Dir(file))
		}

		if module == nil && pkg.Module != nil && pkg.Module.Main {
			module = &Module{
				Path:      pkg.Module.Path,
				Dir:       pkg.Module.Dir,
				GoVersion: pkg.Module.GoVersion,
			}
		}

		if pkg.Types == nil || pkg.TypesInfo == nil {
			slog.Debug("package has no type information", "package", pkg.PkgPath)
			continue
		}

		for _, file := range pkg.Syntax {
			if file == nil {
				continue
			}

			units = append(units, &Unit{
				Fset:     fset,
				File:     file,
				Filename: fset.Position(file.Pos()).Filename,
				Package:  pkg.Types,
				Info:     pkg.TypesInfo,
			})
		}
	}

	slog.Debug("packages loaded", "packages", len(pkgs), "files", len(units))

	snapshot := NewSnapshot(units, module)
	snapshot.loaded = dirs

	return snapshot, nil
}
