package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/mazrean/funcgen/internal/funcgen"
)

const defaultConfigFile = "funcgen.yaml"

// File is the content of funcgen.yaml.
type File struct {
	Marker       MarkerConfig         `yaml:"marker"`
	Naming       funcgen.Naming       `yaml:"naming"`
	Behavior     string               `yaml:"behavior"`
	Registration funcgen.Registration `yaml:"registration"`
	Tests        bool                 `yaml:"tests"`
	Concurrency  int                  `yaml:"concurrency"`
}

// MarkerConfig selects the marker type declarations are matched against.
type MarkerConfig struct {
	Package      string `yaml:"package"`
	Type         string `yaml:"type"`
	PackageName  string `yaml:"packageName"`
	TagKey       string `yaml:"tagKey"`
	NamespaceArg string `yaml:"namespaceArg"`
	QueueArg     string `yaml:"queueArg"`
}

// LoadFile reads a config file. A missing file yields an empty config when
// optional is set.
func LoadFile(path string, optional bool) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			slog.Debug("config file not found, using defaults", "path", path)
			return defaultFile(), nil
		}

		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	f := defaultFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	slog.Debug("config loaded", "path", path)

	return f, nil
}

// defaultFile is decoded onto, so keys absent from the file keep their defaults.
func defaultFile() *File {
	return &File{
		Naming:       funcgen.DefaultNaming(),
		Registration: funcgen.DefaultRegistration(),
	}
}

// MarkerDefinition builds the marker the file describes.
func (f *File) MarkerDefinition() (funcgen.MarkerDefinition, error) {
	m := f.Marker
	if m.Package == "" && m.Type == "" {
		return funcgen.DefaultMarker(), nil
	}

	typeName := m.Type
	if typeName == "" {
		typeName = "Function"
	}

	var opts []funcgen.MarkerOption
	if m.PackageName != "" {
		opts = append(opts, funcgen.WithPackageName(m.PackageName))
	}
	if m.TagKey != "" {
		opts = append(opts, funcgen.WithTagKey(m.TagKey))
	}
	if m.NamespaceArg != "" {
		opts = append(opts, funcgen.WithNamespaceArg(m.NamespaceArg))
	}
	if m.QueueArg != "" {
		opts = append(opts, funcgen.WithQueueArg(m.QueueArg))
	}

	marker, err := funcgen.NewMarkerDefinition(m.Package, typeName, opts...)
	if err != nil {
		return funcgen.MarkerDefinition{}, fmt.Errorf("marker: %w", err)
	}

	return marker, nil
}

func configPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
