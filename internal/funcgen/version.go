package funcgen

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

var minimumGo = version.Must(version.NewVersion(minGoVersion))

// CheckGoVersion reports ErrGoVersion when the go directive of module is
// older than the language version generated code needs.
func CheckGoVersion(module *Module) error {
	if module == nil || module.GoVersion == "" {
		return nil
	}

	v, err := version.NewVersion(module.GoVersion)
	if err != nil {
		return fmt.Errorf("parse go directive %q of %s: %w", module.GoVersion, module.Path, err)
	}

	if v.Core().LessThan(minimumGo) {
		return fmt.Errorf("%w: %s declares go %s, generated code needs go %s", ErrGoVersion, module.Path, module.GoVersion, minGoVersion)
	}

	return nil
}
