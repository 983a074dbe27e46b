package funcgen_test

import (
	"fmt"

	"github.com/mazrean/funcgen"
)

// EmployeeFunction is handled by the generated EmployeeFunctionHandler.
type EmployeeFunction struct {
	funcgen.Function `funcgen:"queue=employees"`
}

// ExampleFunction demonstrates how a queue function is declared.
func ExampleFunction() {
	var fn EmployeeFunction
	_ = fn.Function

	// This generates:
	//   EmployeeFunctionHandler with Run and PoisonQueue entry points,
	//   IEmployeeService with HandleAsync(ctx context.Context) error,
	//   AddSourceGenDI binding IEmployeeService to EmployeeService.
	fmt.Println("Generated EmployeeFunctionHandler")
	// Output: Generated EmployeeFunctionHandler
}
