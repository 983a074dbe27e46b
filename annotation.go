// Package funcgen provides annotation-based queue function code generation for Go.
package funcgen

// Function marks a struct type as a queue-triggered function.
//
// Embed it in a struct whose name contains the naming token ("Function" by
// default). The generator derives a companion service name from the
// declared name ("EmployeeFunction" becomes "EmployeeService") and emits:
//
//   - a handler wrapper with the queue-triggered entry points,
//   - the service contract the handler delegates to ("IEmployeeService"),
//   - one registration function binding every contract to its implementation.
//
// Named arguments are read from the tag of the embedded field:
//
//	type EmployeeFunction struct {
//		funcgen.Function `funcgen:"servicePackage=example.com/app/services,queue=employees"`
//	}
//
// servicePackage moves the generated contract (and the expected
// implementation) to another package. queue names the trigger queue.
//
// Use go:generate to trigger code generation:
//
//	//go:generate go tool funcgen ./...
type Function struct{}
