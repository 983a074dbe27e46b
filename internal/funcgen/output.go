package funcgen

import (
	"cmp"
	"fmt"
	"slices"
)

type outputKey struct {
	pkg string
	key string
}

// Output collects the artifacts of one run.
type Output struct {
	artifacts map[outputKey]Artifact
	// files maps (package, file name) to the key persisted there.
	files map[outputKey]string
}

func NewOutput() *Output {
	return &Output{
		artifacts: make(map[outputKey]Artifact),
		files:     make(map[outputKey]string),
	}
}

// Add stores a. Two artifacts with the same package and key, or persisted to
// the same file of a package, are an error.
func (o *Output) Add(a Artifact) error {
	if err := o.Conflict(a); err != nil {
		return err
	}

	o.artifacts[outputKey{pkg: a.Package, key: a.Key}] = a
	o.files[outputKey{pkg: a.Package, key: a.Filename()}] = a.Key
	return nil
}

// Conflict returns the error Add would return for a without storing it.
func (o *Output) Conflict(a Artifact) error {
	if prev, ok := o.artifacts[outputKey{pkg: a.Package, key: a.Key}]; ok {
		return fmt.Errorf("%w: %s/%s (%s and %s)", ErrDuplicateArtifact, a.Package, a.Key, prev.Kind, a.Kind)
	}
	if prev, ok := o.files[outputKey{pkg: a.Package, key: a.Filename()}]; ok {
		return fmt.Errorf("%w: %s and %s are both persisted to %s/%s", ErrDuplicateArtifact, prev, a.Key, a.Package, a.Filename())
	}

	return nil
}

func (o *Output) Has(pkg, key string) bool {
	_, ok := o.artifacts[outputKey{pkg: pkg, key: key}]
	return ok
}

func (o *Output) Len() int {
	return len(o.artifacts)
}

// Artifacts returns the stored artifacts sorted by package and key.
func (o *Output) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(o.artifacts))
	for _, a := range o.artifacts {
		out = append(out, a)
	}

	slices.SortFunc(out, func(a, b Artifact) int {
		return cmp.Or(
			cmp.Compare(a.Package, b.Package),
			cmp.Compare(a.Key, b.Key),
		)
	})

	return out
}
