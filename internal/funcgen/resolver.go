package funcgen

import (
	"fmt"
	"go/token"
	"go/types"
	"log/slog"
	"reflect"
	"strings"

	"golang.org/x/mod/module"

	strs "github.com/mazrean/funcgen/internal/pkg/strings"
)

// Naming is the convention companion and contract names are derived with.
type Naming struct {
	// Token is searched in the declared name; the prefix before its first
	// occurrence names the companion.
	Token string `yaml:"token" msgpack:"token"`
	// Suffix is appended to the prefix to form the companion name.
	Suffix string `yaml:"suffix" msgpack:"suffix"`
	// ContractPrefix is prepended to the companion to form the contract name.
	ContractPrefix string `yaml:"contractPrefix" msgpack:"contractPrefix"`
	// Queue is the trigger queue used when the marker names none.
	Queue string `yaml:"queue" msgpack:"queue"`
	// Strict rejects names where Token is not a single suffix.
	Strict bool `yaml:"strict" msgpack:"strict"`
}

func DefaultNaming() Naming {
	return Naming{
		Token:          defaultToken,
		Suffix:         defaultSuffix,
		ContractPrefix: defaultContractPrefix,
		Queue:          defaultQueue,
	}
}

// ServiceNaming keeps the declared name as the companion, so a declared
// EmployeeService is bound to IEmployeeService. It is the convention of the
// services behavior.
func ServiceNaming() Naming {
	n := DefaultNaming()
	n.Token = defaultSuffix
	return n
}

// Companion derives the companion name of a declared name.
func (n Naming) Companion(name string) (string, error) {
	i := strings.Index(name, n.Token)
	if n.Token == "" || i < 0 {
		return "", fmt.Errorf("%w: %q does not contain %q", ErrNamingConvention, name, n.Token)
	}
	if i == 0 {
		return "", fmt.Errorf("%w: %q has nothing before %q", ErrNamingConvention, name, n.Token)
	}

	if strings.Count(name, n.Token) > 1 || !strings.HasSuffix(name, n.Token) {
		if n.Strict {
			return "", fmt.Errorf("%w: %q must end with a single %q", ErrNamingConvention, name, n.Token)
		}
		slog.Warn("naming token is not a single suffix, using its first occurrence", "name", name, "token", n.Token)
	}

	return name[:i] + n.Suffix, nil
}

// PackageLookup resolves the declared name of an import path.
type PackageLookup interface {
	PackageName(pkgPath string) (string, bool)
}

// Resolver turns matches into records.
type Resolver struct {
	marker MarkerDefinition
	naming Naming
	lookup PackageLookup
}

func NewResolver(marker MarkerDefinition, naming Naming, lookup PackageLookup) *Resolver {
	return &Resolver{
		marker: marker,
		naming: naming,
		lookup: lookup,
	}
}

// Resolve derives the record of m.
func (r *Resolver) Resolve(m Match) (Record, error) {
	obj, ok := m.Decl.Unit.Info.Defs[m.Decl.Spec.Name].(*types.TypeName)
	if !ok || obj.Pkg() == nil {
		return Record{}, fmt.Errorf("%w: %s", ErrSymbolUnresolved, m.Decl.Spec.Name.Name)
	}

	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok || m.Field >= st.NumFields() {
		return Record{}, fmt.Errorf("%w: %s is not a struct", ErrSymbolUnresolved, obj.Name())
	}

	companion, err := r.naming.Companion(obj.Name())
	if err != nil {
		return Record{}, err
	}

	contract := r.naming.ContractPrefix + companion
	for _, name := range []string{companion, contract} {
		if !token.IsIdentifier(name) {
			return Record{}, fmt.Errorf("%w: %q derived from %q is not an identifier", ErrNamingConvention, name, obj.Name())
		}
	}

	record := Record{
		Key:                m.Key(),
		Name:               obj.Name(),
		Package:            obj.Pkg().Path(),
		PackageName:        obj.Pkg().Name(),
		Companion:          companion,
		Contract:           contract,
		ServicePackage:     obj.Pkg().Path(),
		ServicePackageName: obj.Pkg().Name(),
		Queue:              r.naming.Queue,
	}

	args := r.marker.Args(st.Tag(m.Field))

	if ns := args[r.marker.NamespaceArg]; ns != "" && ns != record.Package {
		if err := module.CheckImportPath(ns); err != nil {
			return Record{}, fmt.Errorf("%w: %s=%q: %w", ErrNamingConvention, r.marker.NamespaceArg, ns, err)
		}

		record.ServicePackage = ns
		record.ServicePackageName = r.packageName(ns)
	}

	if r.marker.QueueArg != "" {
		if queue := args[r.marker.QueueArg]; queue != "" {
			record.Queue = queue
		}
	}

	return record, nil
}

func (r *Resolver) packageName(pkgPath string) string {
	if r.lookup != nil {
		if name, ok := r.lookup.PackageName(pkgPath); ok {
			return name
		}
	}

	return strs.PackageName(pkgPath)
}

// Args parses the named arguments of a marker field tag,
// e.g. `funcgen:"servicePackage=example.com/app/services,queue=employees"`.
// The first value of a repeated key wins.
func (m MarkerDefinition) Args(tag string) map[string]string {
	value, ok := reflect.StructTag(tag).Lookup(m.TagKey)
	if !ok {
		return nil
	}

	args := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		key, val, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := args[key]; !ok {
			args[key] = strings.TrimSpace(val)
		}
	}

	return args
}
