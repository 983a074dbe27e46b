// Package funcgen scans Go packages for marked struct types and generates
// queue function wrappers, service contracts and dependency registration.
package funcgen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	strs "github.com/mazrean/funcgen/internal/pkg/strings"
)

var (
	// ErrSymbolUnresolved reports a matched declaration without a usable type symbol.
	ErrSymbolUnresolved = errors.New("symbol not resolved")
	// ErrNamingConvention reports a declared name that does not follow the naming convention.
	ErrNamingConvention = errors.New("naming convention violated")
	// ErrDuplicateArtifact reports two artifacts of one run targeting the same
	// package and key or the same file.
	ErrDuplicateArtifact = errors.New("duplicate artifact")
	// ErrInvalidRegistration reports registration settings that cannot be rendered.
	ErrInvalidRegistration = errors.New("invalid registration settings")
	// ErrGoVersion reports a main module whose go directive is too old for the generated code.
	ErrGoVersion = errors.New("go version too old")
)

// Unit is one parsed file together with the semantic model of its package.
type Unit struct {
	Fset     *token.FileSet
	File     *ast.File
	Filename string
	Package  *types.Package
	Info     *types.Info
}

// RawDeclaration references a type declaration inside a Unit.
type RawDeclaration struct {
	Spec *ast.TypeSpec
	Unit *Unit
}

// DeclKey identifies a declaration independently of how it was reached.
type DeclKey struct {
	Filename string
	Offset   int
	Name     string
}

func (d RawDeclaration) Key() DeclKey {
	return DeclKey{
		Filename: d.Unit.Filename,
		Offset:   d.Unit.Fset.Position(d.Spec.Pos()).Offset,
		Name:     d.Spec.Name.Name,
	}
}

func (d RawDeclaration) Position() token.Position {
	return d.Unit.Fset.Position(d.Spec.Pos())
}

// Match is a declaration carrying the marker.
type Match struct {
	Decl RawDeclaration
	// Field is the index in the semantic struct type of the first embedded
	// field resolving to the marker.
	Field int
}

func (m Match) Key() DeclKey {
	return m.Decl.Key()
}

// Record is the resolved naming metadata of one marked declaration.
type Record struct {
	Key DeclKey

	// Name is the declared type name, e.g. EmployeeFunction.
	Name        string
	Package     string
	PackageName string

	// Companion is the derived service name, e.g. EmployeeService.
	Companion string
	// Contract is the generated interface name, e.g. IEmployeeService.
	Contract string

	ServicePackage     string
	ServicePackageName string

	Queue string
}

// ArtifactKind names a kind of generated file.
type ArtifactKind string

const (
	KindMarker       ArtifactKind = "marker"
	KindWrapper      ArtifactKind = "wrapper"
	KindContract     ArtifactKind = "contract"
	KindRegistration ArtifactKind = "registration"
)

// Artifact is one generated source file.
type Artifact struct {
	Kind        ArtifactKind
	Package     string
	PackageName string
	// Key is the output identifier, e.g. EmployeeFunction.g.
	Key    string
	Source []byte
}

// Filename is the file the artifact is persisted as, e.g. employee_function.g.go.
func (a Artifact) Filename() string {
	return strs.ToSnake(strings.TrimSuffix(a.Key, artifactKeySuffix)) + generatedFileSuffix
}

// Diagnostic describes a declaration skipped by the pipeline.
type Diagnostic struct {
	Position token.Position
	Decl     string
	Err      error
}

func (d Diagnostic) Error() string {
	if d.Decl == "" {
		return d.Err.Error()
	}

	return fmt.Sprintf("%s: %s: %v", d.Position, d.Decl, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Result is the output of one pipeline run.
type Result struct {
	// Artifacts are sorted by package and key.
	Artifacts []Artifact
	// Records are sorted in registration order.
	Records     []Record
	Diagnostics []Diagnostic
}
