package funcgen

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"

	"github.com/mazrean/funcgen/internal/pkg/collection"
)

// Scanner finds struct types embedding a marker.
type Scanner struct {
	marker MarkerDefinition
}

func NewScanner(marker MarkerDefinition) *Scanner {
	return &Scanner{marker: marker}
}

// Scan returns every match in snapshot, in file then declaration order.
// The same declaration is returned once per unit it was observed in.
func (s *Scanner) Scan(ctx context.Context, snapshot *Snapshot) ([]Match, error) {
	var (
		matches []Match
		err     error
	)

	units := collection.NewQueue(snapshot.Units...)
	units.Drain(func(unit *Unit) bool {
		for _, decl := range candidates(unit) {
			if err = ctx.Err(); err != nil {
				return false
			}

			field, ok := s.markerField(decl)
			if !ok {
				continue
			}

			slog.Debug("marked declaration found", "decl", decl.Spec.Name.Name, "position", decl.Position())
			matches = append(matches, Match{Decl: decl, Field: field})
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// candidates returns the non-generic struct type declarations of unit that
// have at least one embedded field.
func candidates(unit *Unit) []RawDeclaration {
	var decls []RawDeclaration
	for _, decl := range unit.File.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}

		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || typeSpec.Assign.IsValid() || typeSpec.TypeParams != nil {
				continue
			}

			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok || !hasEmbedded(structType) {
				continue
			}

			decls = append(decls, RawDeclaration{Spec: typeSpec, Unit: unit})
		}
	}

	return decls
}

func hasEmbedded(st *ast.StructType) bool {
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return true
		}
	}

	return false
}

// markerField returns the index of the first embedded field resolving to the
// marker type.
func (s *Scanner) markerField(decl RawDeclaration) (int, bool) {
	structType := decl.Spec.Type.(*ast.StructType)
	fullName := s.marker.FullName()

	index := 0
	for _, field := range structType.Fields.List {
		if len(field.Names) > 0 {
			index += len(field.Names)
			continue
		}

		if named := namedType(decl.Unit.Info.TypeOf(field.Type)); named != nil {
			obj := named.Obj()
			if obj.Pkg() != nil && obj.Pkg().Path()+"."+obj.Name() == fullName {
				return index, true
			}
		}

		index++
	}

	return 0, false
}

func namedType(t types.Type) *types.Named {
	if t == nil {
		return nil
	}

	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		t = types.Unalias(ptr.Elem())
	}

	named, _ := t.(*types.Named)
	return named
}
