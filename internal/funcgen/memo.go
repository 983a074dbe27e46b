package funcgen

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"go/printer"
	"go/types"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

type fingerprint struct {
	Key         DeclKey  `msgpack:"key"`
	Source      string   `msgpack:"source"`
	Tag         string   `msgpack:"tag"`
	Package     string   `msgpack:"package"`
	PackageName string   `msgpack:"packageName"`
	Marker      string   `msgpack:"marker"`
	Naming      Naming   `msgpack:"naming"`
	Behavior    Behavior `msgpack:"behavior"`
	// Names are the resolved package names the record depends on.
	Names map[string]string `msgpack:"names"`
}

type memoKey [sha256.Size]byte

type memoEntry struct {
	record    Record
	artifacts []Artifact
	err       error
}

// Memo caches resolved records and their artifacts across runs of one
// process, keyed by a fingerprint of everything resolution reads.
type Memo struct {
	mu      sync.Mutex
	entries map[memoKey]memoEntry
	seen    map[memoKey]struct{}
	hits    int
	misses  int
}

func NewMemo() *Memo {
	return &Memo{
		entries: make(map[memoKey]memoEntry),
		seen:    make(map[memoKey]struct{}),
	}
}

func (m *Memo) get(key memoKey) (memoEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen[key] = struct{}{}
	entry, ok := m.entries[key]
	if ok {
		m.hits++
	} else {
		m.misses++
	}

	return entry, ok
}

func (m *Memo) put(key memoKey, entry memoEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen[key] = struct{}{}
	m.entries[key] = entry
}

// sweep evicts entries not observed since the previous sweep.
func (m *Memo) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if _, ok := m.seen[key]; !ok {
			delete(m.entries, key)
		}
	}
	clear(m.seen)
}

// Stats returns the number of cached entries and the hit and miss counters.
func (m *Memo) Stats() (entries, hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries), m.hits, m.misses
}

func (p *Pipeline) memoKey(match Match, lookup PackageLookup) (memoKey, error) {
	decl := match.Decl

	var src bytes.Buffer
	if err := printer.Fprint(&src, decl.Unit.Fset, decl.Spec); err != nil {
		return memoKey{}, fmt.Errorf("print declaration: %w", err)
	}

	fp := fingerprint{
		Key:         match.Key(),
		Source:      src.String(),
		Package:     decl.Unit.Package.Path(),
		PackageName: decl.Unit.Package.Name(),
		Marker:      p.marker.FullName(),
		Naming:      p.naming,
		Behavior:    p.behavior,
	}

	if obj, ok := decl.Unit.Info.Defs[decl.Spec.Name].(*types.TypeName); ok {
		if st, ok := obj.Type().Underlying().(*types.Struct); ok && match.Field < st.NumFields() {
			fp.Tag = st.Tag(match.Field)
		}
	}

	if ns := p.marker.Args(fp.Tag)[p.marker.NamespaceArg]; ns != "" && lookup != nil {
		if name, ok := lookup.PackageName(ns); ok {
			fp.Names = map[string]string{ns: name}
		}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(&fp); err != nil {
		return memoKey{}, fmt.Errorf("encode fingerprint: %w", err)
	}

	return sha256.Sum256(buf.Bytes()), nil
}
