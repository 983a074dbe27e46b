package funcgen

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/sync/errgroup"

	strs "github.com/mazrean/funcgen/internal/pkg/strings"
)

// Behavior is the set of artifact kinds a pipeline renders.
type Behavior uint8

const (
	RenderWrapper Behavior = 1 << iota
	RenderContract
	RenderRegistration

	// BehaviorFunctions renders wrappers, contracts and the registration.
	BehaviorFunctions = RenderWrapper | RenderContract | RenderRegistration
	// BehaviorServices renders contracts and the registration only.
	BehaviorServices = RenderContract | RenderRegistration
)

func (b Behavior) Has(kind Behavior) bool {
	return b&kind == kind
}

func (b Behavior) String() string {
	switch b {
	case BehaviorFunctions:
		return "functions"
	case BehaviorServices:
		return "services"
	}

	var kinds []string
	for _, k := range []struct {
		b    Behavior
		name string
	}{
		{RenderWrapper, "wrapper"},
		{RenderContract, "contract"},
		{RenderRegistration, "registration"},
	} {
		if b.Has(k.b) {
			kinds = append(kinds, k.name)
		}
	}

	return strings.Join(kinds, "+")
}

// ParseBehavior parses "functions", "services" or a "+" separated list of
// artifact kinds such as "wrapper+registration".
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "functions":
		return BehaviorFunctions, nil
	case "services":
		return BehaviorServices, nil
	}

	var b Behavior
	for _, kind := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case string(KindWrapper):
			b |= RenderWrapper
		case string(KindContract):
			b |= RenderContract
		case string(KindRegistration):
			b |= RenderRegistration
		default:
			return 0, fmt.Errorf("unknown behavior %q", s)
		}
	}

	return b, nil
}

// Registration configures the aggregate registration artifact.
type Registration struct {
	// Package is the import path the registration is generated in.
	// Empty means <module>/registration, or the package of the first
	// record when no module is known.
	Package     string `yaml:"package"`
	PackageName string `yaml:"packageName"`
	Func        string `yaml:"func"`
	// Container is the import path of the DI container package.
	Container string `yaml:"container"`
}

// Validate reports settings that would produce a registration file that
// does not compile. Empty fields take their defaults and are valid.
func (r Registration) Validate() error {
	for _, path := range []string{r.Package, r.Container} {
		if path == "" {
			continue
		}
		if err := module.CheckImportPath(path); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
		}
	}

	for _, name := range []string{r.PackageName, r.Func} {
		if name != "" && !token.IsIdentifier(name) {
			return fmt.Errorf("%w: %q is not an identifier", ErrInvalidRegistration, name)
		}
	}

	return nil
}

func DefaultRegistration() Registration {
	return Registration{
		Func:      defaultRegisterFunc,
		Container: diPkgPath,
	}
}

// Pipeline turns a snapshot into generated artifacts.
type Pipeline struct {
	marker       MarkerDefinition
	naming       Naming
	behavior     Behavior
	registration Registration
	workers      int
	memo         *Memo
}

type PipelineOption func(*Pipeline)

func WithNaming(naming Naming) PipelineOption {
	return func(p *Pipeline) {
		p.naming = naming
	}
}

func WithBehavior(behavior Behavior) PipelineOption {
	return func(p *Pipeline) {
		p.behavior = behavior
	}
}

func WithRegistration(registration Registration) PipelineOption {
	return func(p *Pipeline) {
		p.registration = registration
	}
}

// WithConcurrency limits the number of records rendered in parallel.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMemo reuses records and artifacts of unchanged declarations across runs.
func WithMemo(memo *Memo) PipelineOption {
	return func(p *Pipeline) {
		p.memo = memo
	}
}

func NewPipeline(marker MarkerDefinition, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		marker:       marker,
		naming:       DefaultNaming(),
		behavior:     BehaviorFunctions,
		registration: DefaultRegistration(),
		workers:      defaultRenderWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.registration.Func == "" {
		p.registration.Func = defaultRegisterFunc
	}
	if p.registration.Container == "" {
		p.registration.Container = diPkgPath
	}

	return p
}

func (p *Pipeline) Marker() MarkerDefinition {
	return p.marker
}

func (p *Pipeline) recordRenderers() []RecordRenderer {
	var renderers []RecordRenderer
	if p.behavior.Has(RenderWrapper) {
		renderers = append(renderers, WrapperRenderer{})
	}
	if p.behavior.Has(RenderContract) {
		renderers = append(renderers, ContractRenderer{})
	}

	return renderers
}

type slot struct {
	match     Match
	key       memoKey
	cached    bool
	record    Record
	artifacts []Artifact
	err       error
}

// Run scans snapshot and renders the artifacts of every marked declaration.
// Declarations that cannot be resolved are reported as diagnostics. A
// cancelled ctx yields ctx.Err() and no result.
func (p *Pipeline) Run(ctx context.Context, snapshot *Snapshot) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.registration.Validate(); err != nil {
		return nil, err
	}

	out := NewOutput()
	if err := out.Add(p.marker.Artifact()); err != nil {
		return nil, err
	}

	matches, err := NewScanner(p.marker).Scan(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	matches = Deduplicate(matches)

	slots, err := p.resolve(ctx, snapshot, matches)
	if err != nil {
		return nil, err
	}

	if err := p.render(ctx, slots); err != nil {
		return nil, err
	}

	result := &Result{}
	var records []Record
	byKey := make(map[DeclKey]*slot, len(slots))
	for i := range slots {
		s := &slots[i]
		if s.err != nil {
			result.Diagnostics = append(result.Diagnostics, p.diagnose(s.match, s.err))
			continue
		}

		records = append(records, s.record)
		byKey[s.record.Key] = s
	}

	SortRecords(records)
	for _, record := range records {
		s := byKey[record.Key]
		if err := addAll(out, s.artifacts); err != nil {
			result.Diagnostics = append(result.Diagnostics, p.diagnose(s.match, err))
			continue
		}

		result.Records = append(result.Records, record)
	}

	if p.behavior.Has(RenderRegistration) {
		renderer := p.registrationRenderer(snapshot, result.Records)
		artifact, ok, err := renderer.RenderCollection(result.Records)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := out.Add(artifact); err != nil {
				return nil, err
			}
		}
	}

	if p.memo != nil {
		p.memo.sweep()
	}

	result.Artifacts = out.Artifacts()

	slog.Debug("pipeline finished",
		"records", len(result.Records),
		"artifacts", len(result.Artifacts),
		"diagnostics", len(result.Diagnostics),
	)

	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, snapshot *Snapshot, matches []Match) ([]slot, error) {
	resolver := NewResolver(p.marker, p.naming, snapshot)

	slots := make([]slot, len(matches))
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slots[i].match = m

		if p.memo != nil {
			key, err := p.memoKey(m, snapshot)
			if err != nil {
				return nil, fmt.Errorf("fingerprint %s: %w", m.Decl.Spec.Name.Name, err)
			}
			slots[i].key = key

			if entry, ok := p.memo.get(key); ok {
				slots[i].cached = true
				slots[i].record = entry.record
				slots[i].artifacts = entry.artifacts
				slots[i].err = entry.err
				continue
			}
		}

		slots[i].record, slots[i].err = resolver.Resolve(m)
	}

	return slots, nil
}

func (p *Pipeline) render(ctx context.Context, slots []slot) error {
	renderers := p.recordRenderers()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i := range slots {
		s := &slots[i]
		if s.cached || s.err != nil {
			continue
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			artifacts := make([]Artifact, 0, len(renderers))
			for _, renderer := range renderers {
				artifact, err := renderer.RenderRecord(s.record)
				if err != nil {
					s.err = err
					return nil
				}
				artifacts = append(artifacts, artifact)
			}
			s.artifacts = artifacts

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.memo != nil {
		for _, s := range slots {
			if !s.cached {
				p.memo.put(s.key, memoEntry{record: s.record, artifacts: s.artifacts, err: s.err})
			}
		}
	}

	return nil
}

func (p *Pipeline) registrationRenderer(snapshot *Snapshot, records []Record) *RegistrationRenderer {
	reg := p.registration
	renderer := &RegistrationRenderer{
		Package:       reg.Package,
		PackageName:   reg.PackageName,
		Func:          reg.Func,
		ContainerPath: reg.Container,
	}

	switch {
	case renderer.Package != "":
	case snapshot.Module != nil && snapshot.Module.Path != "":
		renderer.Package = snapshot.Module.Path + "/" + defaultRegistration
	case len(records) > 0:
		renderer.Package = records[0].Package
		renderer.PackageName = records[0].PackageName
	}

	if renderer.PackageName == "" {
		if name, ok := snapshot.PackageName(renderer.Package); ok {
			renderer.PackageName = name
		} else {
			renderer.PackageName = strs.PackageName(renderer.Package)
		}
	}

	return renderer
}

func (p *Pipeline) diagnose(m Match, err error) Diagnostic {
	d := Diagnostic{
		Position: m.Decl.Position(),
		Decl:     m.Decl.Spec.Name.Name,
		Err:      err,
	}

	slog.Warn("declaration skipped", "decl", d.Decl, "position", d.Position, "error", err)

	return d
}

// addAll adds every artifact or none of them.
func addAll(out *Output, artifacts []Artifact) error {
	var errs []error
	for i, a := range artifacts {
		if err := out.Conflict(a); err != nil {
			errs = append(errs, err)
		}
		for _, prev := range artifacts[:i] {
			if prev.Package == a.Package && (prev.Key == a.Key || prev.Filename() == a.Filename()) {
				errs = append(errs, fmt.Errorf("%w: %s and %s are both persisted to %s/%s", ErrDuplicateArtifact, prev.Key, a.Key, a.Package, a.Filename()))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, a := range artifacts {
		if err := out.Add(a); err != nil {
			return err
		}
	}

	return nil
}
