package funcgen

import (
	"errors"
	"fmt"
	"go/token"

	strs "github.com/mazrean/funcgen/internal/pkg/strings"
)

// MarkerDefinition describes the marker type a pipeline matches.
// It is created once and passed by value; it is never mutated.
type MarkerDefinition struct {
	PackagePath string
	PackageName string
	TypeName    string
	// TagKey is the struct tag key holding the named arguments.
	TagKey string
	// NamespaceArg is the named argument overriding the service package.
	NamespaceArg string
	// QueueArg is the named argument overriding the trigger queue.
	QueueArg string
	// Source is the canonical source text of the marker definition.
	Source []byte
}

// MarkerOption customizes a MarkerDefinition.
type MarkerOption func(*MarkerDefinition)

func WithPackageName(name string) MarkerOption {
	return func(m *MarkerDefinition) {
		m.PackageName = name
	}
}

func WithTagKey(key string) MarkerOption {
	return func(m *MarkerDefinition) {
		m.TagKey = key
	}
}

func WithNamespaceArg(name string) MarkerOption {
	return func(m *MarkerDefinition) {
		m.NamespaceArg = name
	}
}

func WithQueueArg(name string) MarkerOption {
	return func(m *MarkerDefinition) {
		m.QueueArg = name
	}
}

// NewMarkerDefinition creates the definition of the marker pkgPath.typeName
// and renders its source text.
func NewMarkerDefinition(pkgPath, typeName string, opts ...MarkerOption) (MarkerDefinition, error) {
	m := MarkerDefinition{
		PackagePath:  pkgPath,
		PackageName:  strs.PackageName(pkgPath),
		TypeName:     typeName,
		TagKey:       defaultTagKey,
		NamespaceArg: defaultNamespaceArg,
		QueueArg:     defaultQueueArg,
	}
	for _, opt := range opts {
		opt(&m)
	}

	if m.PackagePath == "" {
		return MarkerDefinition{}, errors.New("marker package path is empty")
	}
	if !token.IsIdentifier(m.TypeName) || !token.IsExported(m.TypeName) {
		return MarkerDefinition{}, fmt.Errorf("marker type name %q is not an exported identifier", m.TypeName)
	}
	if !token.IsIdentifier(m.PackageName) {
		return MarkerDefinition{}, fmt.Errorf("marker package name %q is not an identifier", m.PackageName)
	}
	if m.TagKey == "" || m.NamespaceArg == "" {
		return MarkerDefinition{}, errors.New("marker tag key and namespace argument must not be empty")
	}

	source, err := executeTemplate("marker.go.tmpl", m.Filename(), m)
	if err != nil {
		return MarkerDefinition{}, fmt.Errorf("render marker definition: %w", err)
	}
	m.Source = source

	return m, nil
}

// DefaultMarker returns the definition of funcgen.Function.
func DefaultMarker() MarkerDefinition {
	m, err := NewMarkerDefinition(funcgenPkgPath, defaultMarkerType)
	if err != nil {
		panic(err)
	}

	return m
}

// FullName is the fully-qualified name declarations are matched against.
func (m MarkerDefinition) FullName() string {
	return m.PackagePath + "." + m.TypeName
}

// Key is the output identifier of the marker definition artifact.
func (m MarkerDefinition) Key() string {
	return m.TypeName + artifactKeySuffix
}

// Filename is the file the marker definition is persisted as.
func (m MarkerDefinition) Filename() string {
	return strs.ToSnake(m.TypeName) + generatedFileSuffix
}

// Artifact returns the marker definition as an artifact. It is emitted on
// every run, before any declaration is scanned.
func (m MarkerDefinition) Artifact() Artifact {
	return Artifact{
		Kind:        KindMarker,
		Package:     m.PackagePath,
		PackageName: m.PackageName,
		Key:         m.Key(),
		Source:      m.Source,
	}
}
