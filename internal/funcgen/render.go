package funcgen

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"text/template"

	"golang.org/x/tools/imports"

	strs "github.com/mazrean/funcgen/internal/pkg/strings"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{
			"header": func() string { return generatedHeader },
			"quote":  strconv.Quote,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// executeTemplate executes a template by name and returns the formatted source.
func executeTemplate(name, filename string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}

	formatted, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		slog.Debug("generated source does not parse", "file", filename, "source", buf.String())
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}

	return formatted, nil
}

// RecordRenderer renders one artifact per record.
type RecordRenderer interface {
	Kind() ArtifactKind
	RenderRecord(record Record) (Artifact, error)
}

// CollectionRenderer renders at most one artifact over every record of a run.
type CollectionRenderer interface {
	Kind() ArtifactKind
	// RenderCollection receives records in registration order. ok is false
	// when nothing is emitted.
	RenderCollection(records []Record) (artifact Artifact, ok bool, err error)
}

type importSpec struct {
	Name string
	Path string
}

// WrapperRenderer renders the handler wrapper in the declaring package.
type WrapperRenderer struct{}

func (WrapperRenderer) Kind() ArtifactKind { return KindWrapper }

type wrapperData struct {
	Record
	Contract string
	// ServiceField names the handler field and constructor parameter
	// holding the service.
	ServiceField  string
	ServiceImport *importSpec
}

func (WrapperRenderer) RenderRecord(record Record) (Artifact, error) {
	pool := NewAliasPool()
	for _, name := range []string{"context", "slog", "h", "ctx", "item", "logger"} {
		pool.Register(name)
	}

	data := wrapperData{
		Record:       record,
		Contract:     record.Contract,
		ServiceField: pool.Get(strs.ToLowerCamel(record.Companion)),
	}

	if record.ServicePackage != record.Package {
		alias := pool.Get(record.ServicePackageName)
		data.ServiceImport = &importSpec{Name: alias, Path: record.ServicePackage}
		data.Contract = alias + "." + record.Contract
	}

	artifact := Artifact{
		Kind:        KindWrapper,
		Package:     record.Package,
		PackageName: record.PackageName,
		Key:         record.Name + artifactKeySuffix,
	}

	source, err := executeTemplate("wrapper.go.tmpl", artifact.Filename(), data)
	if err != nil {
		return Artifact{}, fmt.Errorf("render wrapper for %s: %w", record.Name, err)
	}
	artifact.Source = source

	return artifact, nil
}

// ContractRenderer renders the service contract in the effective package.
type ContractRenderer struct{}

func (ContractRenderer) Kind() ArtifactKind { return KindContract }

func (ContractRenderer) RenderRecord(record Record) (Artifact, error) {
	artifact := Artifact{
		Kind:        KindContract,
		Package:     record.ServicePackage,
		PackageName: record.ServicePackageName,
		Key:         record.Companion + artifactKeySuffix,
	}

	source, err := executeTemplate("contract.go.tmpl", artifact.Filename(), record)
	if err != nil {
		return Artifact{}, fmt.Errorf("render contract for %s: %w", record.Name, err)
	}
	artifact.Source = source

	return artifact, nil
}

// RegistrationRenderer renders the aggregate registration function.
type RegistrationRenderer struct {
	Package     string
	PackageName string
	Func        string
	// ContainerPath is the import path of the DI container package.
	ContainerPath string
}

func (*RegistrationRenderer) Kind() ArtifactKind { return KindRegistration }

type binding struct {
	Contract       string
	Implementation string
}

type registrationData struct {
	PackageName string
	Func        string
	Container   string
	Imports     []importSpec
	Bindings    []binding
}

func (r *RegistrationRenderer) RenderCollection(records []Record) (Artifact, bool, error) {
	if len(records) == 0 {
		return Artifact{}, false, nil
	}

	pool := NewAliasPool()
	pool.Register("services")
	pool.Register(r.Func)

	container := pool.Get(strs.PackageName(r.ContainerPath))
	data := registrationData{
		PackageName: r.PackageName,
		Func:        r.Func,
		Container:   container,
		Imports:     []importSpec{{Name: container, Path: r.ContainerPath}},
		Bindings:    make([]binding, 0, len(records)),
	}

	paths := make([]string, 0, len(records))
	names := make(map[string]string, len(records))
	for _, record := range records {
		if record.ServicePackage == r.Package {
			continue
		}
		if _, ok := names[record.ServicePackage]; !ok {
			names[record.ServicePackage] = record.ServicePackageName
			paths = append(paths, record.ServicePackage)
		}
	}
	slices.Sort(paths)

	aliases := make(map[string]string, len(paths))
	for _, path := range paths {
		alias := pool.Get(names[path])
		aliases[path] = alias
		data.Imports = append(data.Imports, importSpec{Name: alias, Path: path})
	}

	for _, record := range records {
		qualifier := ""
		if alias, ok := aliases[record.ServicePackage]; ok {
			qualifier = alias + "."
		}

		data.Bindings = append(data.Bindings, binding{
			Contract:       qualifier + record.Contract,
			Implementation: qualifier + record.Companion,
		})
	}

	artifact := Artifact{
		Kind:        KindRegistration,
		Package:     r.Package,
		PackageName: r.PackageName,
		Key:         registrationName + artifactKeySuffix,
	}

	source, err := executeTemplate("registration.go.tmpl", artifact.Filename(), data)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("render registration: %w", err)
	}
	artifact.Source = source

	return artifact, true, nil
}
