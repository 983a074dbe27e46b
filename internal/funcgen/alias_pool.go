package funcgen

import (
	"fmt"
)

// AliasPool hands out import aliases and identifiers that do not collide
// within one generated file.
type AliasPool struct {
	names map[string]int
}

func NewAliasPool() *AliasPool {
	return &AliasPool{
		names: make(map[string]int),
	}
}

// Register reserves an existing name so Get never returns it unsuffixed.
func (p *AliasPool) Register(name string) {
	if name == "" || name == "_" {
		return
	}
	if count, ok := p.names[name]; !ok || count == 0 {
		p.names[name] = 1
	}
}

// Get returns name if it is still free, otherwise name0, name1 and so on.
func (p *AliasPool) Get(name string) string {
	if name == "" {
		name = "pkg"
	}
	if goReservedKeywords[name] {
		name += "Pkg"
	}

	for {
		count := p.names[name]
		p.names[name] = count + 1

		var alias string
		if count == 0 {
			alias = name
		} else {
			alias = fmt.Sprintf("%s%d", name, count-1)
		}

		// a suffixed alias can itself have been registered
		if _, taken := p.names[alias]; taken && alias != name {
			continue
		}
		if alias != name {
			p.names[alias] = 1
		}

		return alias
	}
}
