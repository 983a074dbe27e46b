package funcgen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testModule     = "example.com/app"
	testMarkerPath = "example.com/app/funcgen"
	testFunctions  = "example.com/app/functions"
)

func testMarker(t *testing.T) MarkerDefinition {
	t.Helper()

	marker, err := NewMarkerDefinition(testMarkerPath, "Function")
	require.NoError(t, err)

	return marker
}

type testPackage struct {
	path  string
	files map[string]string
}

type mapImporter map[string]*types.Package

func (m mapImporter) Import(path string) (*types.Package, error) {
	if pkg, ok := m[path]; ok {
		return pkg, nil
	}

	return nil, fmt.Errorf("package %q not found", path)
}

// buildSnapshot type-checks pkgs in order under root. Type errors are
// tolerated the way package loading tolerates them.
func buildSnapshot(t *testing.T, root string, module *Module, pkgs ...testPackage) *Snapshot {
	t.Helper()

	fset := token.NewFileSet()
	imp := mapImporter{}

	var units []*Unit
	for _, pkg := range pkgs {
		names := make([]string, 0, len(pkg.files))
		for name := range pkg.files {
			names = append(names, name)
		}
		slices.Sort(names)

		rel := relPath(pkg.path)

		files := make([]*ast.File, 0, len(names))
		filenames := make([]string, 0, len(names))
		for _, name := range names {
			filename := filepath.Join(root, filepath.FromSlash(rel), name)
			file, err := parser.ParseFile(fset, filename, pkg.files[name], parser.ParseComments)
			require.NoError(t, err)

			files = append(files, file)
			filenames = append(filenames, filename)
		}

		info := &types.Info{
			Types: make(map[ast.Expr]types.TypeAndValue),
			Defs:  make(map[*ast.Ident]types.Object),
			Uses:  make(map[*ast.Ident]types.Object),
		}
		conf := types.Config{
			Importer: imp,
			Error:    func(error) {},
		}
		typesPkg, _ := conf.Check(pkg.path, fset, files, info)
		imp[pkg.path] = typesPkg

		for i, file := range files {
			units = append(units, &Unit{
				Fset:     fset,
				File:     file,
				Filename: filenames[i],
				Package:  typesPkg,
				Info:     info,
			})
		}
	}

	return NewSnapshot(units, module)
}

func relPath(pkgPath string) string {
	if pkgPath == testModule {
		return "."
	}
	if rel, ok := strings.CutPrefix(pkgPath, testModule+"/"); ok {
		return rel
	}

	return path.Join("ext", pkgPath)
}

func markerPackage(t *testing.T) testPackage {
	t.Helper()

	marker := testMarker(t)
	return testPackage{
		path:  marker.PackagePath,
		files: map[string]string{marker.Filename(): string(marker.Source)},
	}
}

func functionsPackage(files map[string]string) testPackage {
	return testPackage{path: testFunctions, files: files}
}

func findArtifact(t *testing.T, result *Result, pkg, key string) Artifact {
	t.Helper()

	for _, a := range result.Artifacts {
		if a.Package == pkg && a.Key == key {
			return a
		}
	}

	require.Failf(t, "artifact not found", "%s/%s in %v", pkg, key, artifactIDs(result.Artifacts))
	return Artifact{}
}

func artifactIDs(artifacts []Artifact) []string {
	ids := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		ids = append(ids, a.Package+"/"+a.Key)
	}

	return ids
}

func parseArtifact(t *testing.T, a Artifact) *ast.File {
	t.Helper()

	file, err := parser.ParseFile(token.NewFileSet(), a.Filename(), a.Source, parser.ParseComments)
	require.NoError(t, err, string(a.Source))
	require.Equal(t, a.PackageName, file.Name.Name)

	return file
}
