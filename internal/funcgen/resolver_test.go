package funcgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaming_Companion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		naming   func(*Naming)
		decl     string
		expected string
		wantErr  bool
	}{
		{name: "suffix", decl: "EmployeeFunction", expected: "EmployeeService"},
		{name: "first occurrence", decl: "EmployeeFunctionFunction", expected: "EmployeeService"},
		{name: "infix", decl: "EmployeeFunctionHandler", expected: "EmployeeService"},
		{name: "token absent", decl: "Employee", wantErr: true},
		{name: "empty prefix", decl: "Function", wantErr: true},
		{name: "case sensitive", decl: "Employeefunction", wantErr: true},
		{
			name:    "strict repeated token",
			naming:  func(n *Naming) { n.Strict = true },
			decl:    "EmployeeFunctionFunction",
			wantErr: true,
		},
		{
			name:    "strict infix",
			naming:  func(n *Naming) { n.Strict = true },
			decl:    "EmployeeFunctionHandler",
			wantErr: true,
		},
		{
			name:     "strict suffix",
			naming:   func(n *Naming) { n.Strict = true },
			decl:     "EmployeeFunction",
			expected: "EmployeeService",
		},
		{
			name: "custom convention",
			naming: func(n *Naming) {
				n.Token = "Job"
				n.Suffix = "Worker"
			},
			decl:     "PayrollJob",
			expected: "PayrollWorker",
		},
		{
			name:    "empty token",
			naming:  func(n *Naming) { n.Token = "" },
			decl:    "EmployeeFunction",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			naming := DefaultNaming()
			if tt.naming != nil {
				tt.naming(&naming)
			}

			companion, err := naming.Companion(tt.decl)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNamingConvention)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, companion)
		})
	}
}

func TestMarkerDefinition_Args(t *testing.T) {
	t.Parallel()

	marker := testMarker(t)

	tests := []struct {
		name     string
		tag      string
		expected map[string]string
	}{
		{name: "no tag", tag: "", expected: nil},
		{name: "other key", tag: `json:"x"`, expected: nil},
		{
			name:     "namespace",
			tag:      `funcgen:"servicePackage=example.com/app/services"`,
			expected: map[string]string{"servicePackage": "example.com/app/services"},
		},
		{
			name:     "several arguments",
			tag:      `json:"-" funcgen:"servicePackage = example.com/svc , queue=orders"`,
			expected: map[string]string{"servicePackage": "example.com/svc", "queue": "orders"},
		},
		{
			name:     "first value wins",
			tag:      `funcgen:"queue=a,queue=b"`,
			expected: map[string]string{"queue": "a"},
		},
		{
			name:     "flag without value",
			tag:      `funcgen:"queue,,=x"`,
			expected: map[string]string{"queue": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, marker.Args(tt.tag))
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	snapshot := buildSnapshot(t, "/src", nil,
		markerPackage(t),
		functionsPackage(map[string]string{"functions.go": `package functions

import "example.com/app/funcgen"

type EmployeeFunction struct {
	ID   int
	Name string
	funcgen.Function ` + "`" + `funcgen:"servicePackage=Custom.Ns,queue=employees"` + "`" + `
}

type InvalidFunction struct {
	funcgen.Function ` + "`" + `funcgen:"servicePackage=/abs/path"` + "`" + `
}
`}),
	)

	matches, err := NewScanner(testMarker(t)).Scan(t.Context(), snapshot)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].Field)
	assert.Equal(t, 0, matches[1].Field)

	resolver := NewResolver(testMarker(t), DefaultNaming(), snapshot)

	record, err := resolver.Resolve(matches[0])
	require.NoError(t, err)
	assert.Equal(t, Record{
		Key:                matches[0].Key(),
		Name:               "EmployeeFunction",
		Package:            testFunctions,
		PackageName:        "functions",
		Companion:          "EmployeeService",
		Contract:           "IEmployeeService",
		ServicePackage:     "Custom.Ns",
		ServicePackageName: "custom_ns",
		Queue:              "employees",
	}, record)

	_, err = resolver.Resolve(matches[1])
	assert.ErrorIs(t, err, ErrNamingConvention)

	broken := matches[0]
	delete(broken.Decl.Unit.Info.Defs, broken.Decl.Spec.Name)
	_, err = resolver.Resolve(broken)
	assert.ErrorIs(t, err, ErrSymbolUnresolved)
}
