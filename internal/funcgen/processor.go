package funcgen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Processor loads packages, runs the pipeline and writes the result.
type Processor struct {
	pipeline *Pipeline
	workers  int
	dryRun   bool
}

type ProcessorOption func(*Processor)

// WithDryRun runs the pipeline without writing any file.
func WithDryRun(dryRun bool) ProcessorOption {
	return func(p *Processor) {
		p.dryRun = dryRun
	}
}

// WithWriteConcurrency limits the number of files written in parallel.
func WithWriteConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

func NewProcessor(pipeline *Pipeline, opts ...ProcessorOption) *Processor {
	p := &Processor{
		pipeline: pipeline,
		workers:  defaultRenderWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Report is the outcome of one Process call.
type Report struct {
	*Result
	Module  *Module
	Written []WrittenFile
	// Removed lists generated files the run no longer produces.
	Removed []string
}

// Process generates code for the packages matching cfg. Unless running dry,
// generated files left in the loaded package directories that the run no
// longer produces are removed.
func (p *Processor) Process(ctx context.Context, cfg LoadConfig) (*Report, error) {
	slog.Debug("processing packages", "dir", cfg.Dir, "patterns", cfg.Patterns)

	snapshot, err := LoadSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result, err := p.pipeline.Run(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	report := &Report{
		Result: result,
		Module: snapshot.Module,
	}

	if err := CheckGoVersion(snapshot.Module); err != nil {
		slog.Warn("go version check failed", "error", err)
		report.Diagnostics = append(report.Diagnostics, Diagnostic{Err: err})
	}

	if p.dryRun {
		return report, nil
	}

	artifacts := make([]Artifact, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		if artifact.Kind == KindMarker && !p.persistMarker(snapshot) {
			continue
		}
		artifacts = append(artifacts, artifact)
	}

	report.Written, err = NewWriter(snapshot, p.workers).Write(ctx, artifacts)
	if err != nil {
		return nil, err
	}

	report.Removed, err = Prune(snapshot.Dirs(), report.Written)
	if err != nil {
		return nil, fmt.Errorf("prune generated files: %w", err)
	}

	return report, nil
}

// persistMarker reports whether the marker definition belongs in the main
// module and is not already declared by hand.
func (p *Processor) persistMarker(snapshot *Snapshot) bool {
	marker := p.pipeline.Marker()

	if filename, ok := snapshot.Declares(marker.PackagePath, marker.TypeName); ok && filepath.Base(filename) != marker.Filename() {
		slog.Debug("marker declared in source", "marker", marker.FullName(), "file", filename)
		return false
	}

	module := snapshot.Module
	if module == nil || (marker.PackagePath != module.Path && !strings.HasPrefix(marker.PackagePath, module.Path+"/")) {
		slog.Debug("marker package outside main module", "marker", marker.FullName())
		return false
	}

	return true
}
