package funcgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, goVersion string, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	files["go.mod"] = "module " + testModule + "\n\ngo " + goVersion + "\n"

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), DirMode))
		require.NoError(t, os.WriteFile(path, []byte(content), FileMode))
	}

	return dir
}

// shortPaths keeps the last directory and the file name of each path.
func shortPaths(paths []string) []string {
	short := make([]string, 0, len(paths))
	for _, p := range paths {
		short = append(short, filepath.Base(filepath.Dir(p))+"/"+filepath.Base(p))
	}

	return short
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	marker := testMarker(t)
	dir := writeModule(t, "1.21", map[string]string{
		"funcgen/" + marker.Filename(): string(marker.Source),
		"functions/employee.go":        employeeSource,
		"functions/order.go":           orderSource,
	})

	processor := NewProcessor(NewPipeline(marker), WithWriteConcurrency(2))

	report, err := processor.Process(t.Context(), LoadConfig{Dir: dir, Patterns: []string{"./..."}})
	require.NoError(t, err)

	assert.Empty(t, report.Diagnostics)
	require.NotNil(t, report.Module)
	assert.Equal(t, testModule, report.Module.Path)
	assert.Len(t, report.Records, 2)

	written := make(map[string]bool, len(report.Written))
	for _, f := range report.Written {
		rel, err := filepath.Rel(dir, f.Path)
		require.NoError(t, err)
		written[filepath.ToSlash(rel)] = f.Changed
	}
	assert.Equal(t, map[string]bool{
		"funcgen/function.g.go":                  false,
		"functions/employee_function.g.go":       true,
		"functions/employee_service.g.go":        true,
		"functions/order_function.g.go":          true,
		"functions/order_service.g.go":           true,
		"registration/dependency_injection.g.go": true,
	}, written)

	registration, err := os.ReadFile(filepath.Join(dir, "registration", "dependency_injection.g.go"))
	require.NoError(t, err)
	assert.Contains(t, string(registration), "package registration")
	assert.Contains(t, string(registration), "di.AddScoped[functions.IEmployeeService, functions.EmployeeService](services)")
	assert.Contains(t, string(registration), "di.AddScoped[functions.IOrderService, functions.OrderService](services)")

	wrapper, err := os.ReadFile(filepath.Join(dir, "functions", "order_function.g.go"))
	require.NoError(t, err)
	assert.Contains(t, string(wrapper), `const OrderFunctionQueue = "orders"`)

	again, err := processor.Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	assert.Len(t, again.Records, 2)
	for _, f := range again.Written {
		assert.False(t, f.Changed, f.Path)
	}
}

func TestProcessor_Process_RemovesStaleFiles(t *testing.T) {
	t.Parallel()

	marker := testMarker(t)
	dir := writeModule(t, "1.21", map[string]string{
		"funcgen/" + marker.Filename(): string(marker.Source),
		"functions/employee.go":        employeeSource,
		"functions/order.go":           orderSource,
		"functions/notes.g.go":         "package functions\n",
	})

	processor := NewProcessor(NewPipeline(marker))

	first, err := processor.Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	require.Len(t, first.Records, 2)
	assert.Empty(t, first.Removed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "functions", "order.go"), []byte("package functions\n\ntype OrderFunction struct{}\n"), FileMode))

	second, err := processor.Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	require.Len(t, second.Records, 1)
	assert.ElementsMatch(t, []string{
		"functions/order_function.g.go",
		"functions/order_service.g.go",
	}, shortPaths(second.Removed))

	registration, err := os.ReadFile(filepath.Join(dir, "registration", "dependency_injection.g.go"))
	require.NoError(t, err)
	assert.NotContains(t, string(registration), "OrderService")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "functions", "employee.go"), []byte("package functions\n\ntype EmployeeFunction struct{}\n"), FileMode))

	dryRun, err := NewProcessor(NewPipeline(marker), WithDryRun(true)).Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	assert.Empty(t, dryRun.Records)
	assert.Empty(t, dryRun.Removed)
	_, err = os.Stat(filepath.Join(dir, "registration", "dependency_injection.g.go"))
	require.NoError(t, err)

	third, err := processor.Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	assert.Empty(t, third.Records)
	assert.ElementsMatch(t, []string{
		"registration/dependency_injection.g.go",
		"functions/employee_function.g.go",
		"functions/employee_service.g.go",
	}, shortPaths(third.Removed))

	for _, name := range []string{
		"registration/dependency_injection.g.go",
		"functions/employee_function.g.go",
		"functions/employee_service.g.go",
	} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.ErrorIs(t, err, os.ErrNotExist, name)
	}

	for _, name := range []string{
		"funcgen/" + marker.Filename(),
		"functions/notes.g.go",
	} {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		assert.NoError(t, err, name)
	}
}

func TestProcessor_Process_HandWrittenMarker(t *testing.T) {
	t.Parallel()

	dir := writeModule(t, "1.21", map[string]string{
		"funcgen/marker.go":     "package funcgen\n\ntype Function struct{}\n",
		"functions/employee.go": employeeSource,
	})

	report, err := NewProcessor(NewPipeline(testMarker(t))).Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)
	assert.Len(t, report.Records, 1)

	_, err = os.Stat(filepath.Join(dir, "funcgen", "function.g.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	for _, f := range report.Written {
		assert.NotEqual(t, KindMarker, f.Artifact.Kind)
	}
}

func TestProcessor_Process_DryRun(t *testing.T) {
	t.Parallel()

	marker := testMarker(t)
	dir := writeModule(t, "1.20", map[string]string{
		"funcgen/" + marker.Filename(): string(marker.Source),
		"functions/employee.go":        employeeSource,
	})

	report, err := NewProcessor(NewPipeline(marker), WithDryRun(true)).Process(t.Context(), LoadConfig{Dir: dir})
	require.NoError(t, err)

	assert.Empty(t, report.Written)
	assert.Len(t, report.Records, 1)
	assert.Len(t, report.Artifacts, 4)

	require.Len(t, report.Diagnostics, 1)
	assert.ErrorIs(t, report.Diagnostics[0], ErrGoVersion)

	_, err = os.Stat(filepath.Join(dir, "functions", "employee_function.g.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSnapshot_Tests(t *testing.T) {
	t.Parallel()

	marker := testMarker(t)
	dir := writeModule(t, "1.21", map[string]string{
		"funcgen/" + marker.Filename(): string(marker.Source),
		"functions/employee.go":        employeeSource,
		"functions/employee_test.go":   "package functions\n",
	})

	snapshot, err := LoadSnapshot(t.Context(), LoadConfig{Dir: dir, Patterns: []string{"./functions"}, Tests: true})
	require.NoError(t, err)

	var observed int
	for _, unit := range snapshot.Units {
		if filepath.Base(unit.Filename) == "employee.go" {
			observed++
		}
	}
	assert.Equal(t, 2, observed)

	result, err := NewPipeline(marker).Run(t.Context(), snapshot)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
}
