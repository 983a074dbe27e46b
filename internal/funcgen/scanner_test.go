package funcgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	snapshot := buildSnapshot(t, "/src", nil,
		markerPackage(t),
		functionsPackage(map[string]string{
			"a.go": `package functions

import "example.com/app/funcgen"

type Plain struct{ Name string }

type Options interface{ funcgen.Function }

type First struct {
	funcgen.Function
}
`,
			"b.go": `package functions

import "example.com/app/funcgen"

type (
	Second struct {
		*funcgen.Function
	}
	Third struct {
		Plain
		funcgen.Function
	}
)
`,
		}),
	)

	matches, err := NewScanner(testMarker(t)).Scan(t.Context(), snapshot)
	require.NoError(t, err)

	names := make([]string, 0, len(matches))
	fields := make([]int, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Decl.Spec.Name.Name)
		fields = append(fields, m.Field)
	}

	assert.Equal(t, []string{"First", "Second", "Third"}, names)
	assert.Equal(t, []int{0, 0, 1}, fields)
}

func TestScanner_Scan_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	matches, err := NewScanner(testMarker(t)).Scan(ctx, employeeSnapshot(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, matches)
}

func TestScanner_Scan_CancelledMidway(t *testing.T) {
	t.Parallel()

	snapshot := buildSnapshot(t, "/src", &Module{Path: testModule, Dir: "/src"},
		markerPackage(t),
		functionsPackage(map[string]string{
			"employee.go": employeeSource,
			"order.go":    orderSource,
		}),
	)

	ctx := &cancelAfter{Context: t.Context(), n: 1}

	matches, err := NewScanner(testMarker(t)).Scan(ctx, snapshot)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, matches)
	assert.Equal(t, int32(2), ctx.calls.Load())
}

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	snapshot := employeeSnapshot(t)
	matches, err := NewScanner(testMarker(t)).Scan(t.Context(), snapshot)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	deduped := Deduplicate(append(matches, matches[0], matches[0]))
	assert.Len(t, deduped, 1)
	assert.Same(t, matches[0].Decl.Spec, deduped[0].Decl.Spec)

	assert.Empty(t, Deduplicate(nil))
}

func TestSortRecords(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Name: "OrderFunction", Companion: "OrderService", ServicePackage: "b"},
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "b"},
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "a", Package: "y"},
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "a", Package: "x"},
	}

	SortRecords(records)

	assert.Equal(t, []Record{
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "a", Package: "x"},
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "a", Package: "y"},
		{Name: "EmployeeFunction", Companion: "EmployeeService", ServicePackage: "b"},
		{Name: "OrderFunction", Companion: "OrderService", ServicePackage: "b"},
	}, records)
}

func TestOutput(t *testing.T) {
	t.Parallel()

	out := NewOutput()
	require.NoError(t, out.Add(Artifact{Kind: KindContract, Package: "b", Key: "EmployeeService.g"}))
	require.NoError(t, out.Add(Artifact{Kind: KindContract, Package: "a", Key: "EmployeeService.g"}))
	require.NoError(t, out.Add(Artifact{Kind: KindWrapper, Package: "a", Key: "EmployeeFunction.g"}))

	err := out.Add(Artifact{Kind: KindWrapper, Package: "a", Key: "EmployeeService.g"})
	assert.ErrorIs(t, err, ErrDuplicateArtifact)

	err = out.Add(Artifact{Kind: KindWrapper, Package: "a", Key: "EmployeeFUNCTION.g"})
	require.ErrorIs(t, err, ErrDuplicateArtifact)
	assert.Contains(t, err.Error(), "employee_function.g.go")

	assert.True(t, out.Has("a", "EmployeeFunction.g"))
	assert.False(t, out.Has("b", "EmployeeFunction.g"))
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"a/EmployeeFunction.g", "a/EmployeeService.g", "b/EmployeeService.g"}, artifactIDs(out.Artifacts()))
}
