package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mazrean/funcgen/internal/funcgen"
)

type packagesInput struct {
	Dir      string   `json:"dir,omitempty"      jsonschema:"Directory of the Go module to scan (default: the server's directory)"`
	Patterns []string `json:"patterns,omitempty" jsonschema:"Go package patterns (default: ./...)"`
	Tests    bool     `json:"tests,omitempty"    jsonschema:"Also scan test files"`
}

type recordInfo struct {
	Name           string `json:"name"`
	Package        string `json:"package"`
	Companion      string `json:"companion"`
	Contract       string `json:"contract"`
	ServicePackage string `json:"service_package"`
	Queue          string `json:"queue"`
}

type artifactInfo struct {
	Kind    string `json:"kind"`
	Package string `json:"package"`
	File    string `json:"file"`
	Size    int    `json:"size"`
}

type diagnosticInfo struct {
	Position string `json:"position,omitempty"`
	Decl     string `json:"decl,omitempty"`
	Error    string `json:"error"`
}

type scanOutput struct {
	Records     []recordInfo     `json:"records"`
	Artifacts   []artifactInfo   `json:"artifacts"`
	Diagnostics []diagnosticInfo `json:"diagnostics,omitempty"`
}

func (s *server) process(ctx context.Context, input packagesInput, dryRun bool) (*funcgen.Report, error) {
	dir := input.Dir
	if dir == "" {
		dir = s.opts.Dir
	}

	processor := funcgen.NewProcessor(s.pipeline, funcgen.WithDryRun(dryRun))
	return processor.Process(ctx, funcgen.LoadConfig{
		Dir:      dir,
		Patterns: input.Patterns,
		Tests:    input.Tests || s.opts.Tests,
	})
}

func (s *server) handleScan(ctx context.Context, _ *mcp.CallToolRequest, input packagesInput) (*mcp.CallToolResult, scanOutput, error) {
	report, err := s.process(ctx, input, true)
	if err != nil {
		return errResult(err), scanOutput{}, nil
	}

	output := scanOutput{
		Records:     make([]recordInfo, 0, len(report.Records)),
		Artifacts:   make([]artifactInfo, 0, len(report.Artifacts)),
		Diagnostics: diagnostics(report.Diagnostics),
	}
	for _, r := range report.Records {
		output.Records = append(output.Records, recordInfo{
			Name:           r.Name,
			Package:        r.Package,
			Companion:      r.Companion,
			Contract:       r.Contract,
			ServicePackage: r.ServicePackage,
			Queue:          r.Queue,
		})
	}
	for _, a := range report.Artifacts {
		output.Artifacts = append(output.Artifacts, artifactInfo{
			Kind:    string(a.Kind),
			Package: a.Package,
			File:    a.Filename(),
			Size:    len(a.Source),
		})
	}

	return nil, output, nil
}

type generateInput struct {
	Dir      string   `json:"dir,omitempty"      jsonschema:"Directory of the Go module to generate for (default: the server's directory)"`
	Patterns []string `json:"patterns,omitempty" jsonschema:"Go package patterns (default: ./...)"`
	Tests    bool     `json:"tests,omitempty"    jsonschema:"Also scan test files"`
	DryRun   bool     `json:"dry_run,omitempty"  jsonschema:"Preview without writing files"`
}

type writtenFileInfo struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Changed bool   `json:"changed"`
}

type generateOutput struct {
	RecordCount int               `json:"record_count"`
	Files       []writtenFileInfo `json:"files"`
	Removed     []string          `json:"removed,omitempty"`
	Diagnostics []diagnosticInfo  `json:"diagnostics,omitempty"`
}

func (s *server) handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, generateOutput, error) {
	report, err := s.process(ctx, packagesInput{
		Dir:      input.Dir,
		Patterns: input.Patterns,
		Tests:    input.Tests,
	}, input.DryRun)
	if err != nil {
		return errResult(fmt.Errorf("generate: %w", err)), generateOutput{}, nil
	}

	output := generateOutput{
		RecordCount: len(report.Records),
		Files:       make([]writtenFileInfo, 0, len(report.Written)),
		Removed:     report.Removed,
		Diagnostics: diagnostics(report.Diagnostics),
	}
	for _, f := range report.Written {
		output.Files = append(output.Files, writtenFileInfo{
			Path:    f.Path,
			Kind:    string(f.Artifact.Kind),
			Changed: f.Changed,
		})
	}

	return nil, output, nil
}

type markerInput struct{}

type markerOutput struct {
	Package string `json:"package"`
	Type    string `json:"type"`
	TagKey  string `json:"tag_key"`
	Source  string `json:"source"`
}

func (s *server) handleMarker(_ context.Context, _ *mcp.CallToolRequest, _ markerInput) (*mcp.CallToolResult, markerOutput, error) {
	m := s.pipeline.Marker()
	return nil, markerOutput{
		Package: m.PackagePath,
		Type:    m.TypeName,
		TagKey:  m.TagKey,
		Source:  string(m.Source),
	}, nil
}

func diagnostics(ds []funcgen.Diagnostic) []diagnosticInfo {
	if len(ds) == 0 {
		return nil
	}

	out := make([]diagnosticInfo, 0, len(ds))
	for _, d := range ds {
		info := diagnosticInfo{
			Decl:  d.Decl,
			Error: d.Err.Error(),
		}
		if d.Position.IsValid() {
			info.Position = d.Position.String()
		}
		out = append(out, info)
	}

	return out
}
