// Package di is the small scoped container the generated registration code
// binds service contracts into.
//
// Registration is emitted as plain code by funcgen, there is no runtime
// scanning:
//
//	func AddSourceGenDI(services *di.Collection) {
//		di.AddScoped[functions.IEmployeeService, functions.EmployeeService](services)
//	}
//
// Each scope lazily creates one instance per contract:
//
//	services := di.NewCollection()
//	registration.AddSourceGenDI(services)
//	scope := services.NewScope()
//	svc, err := di.Resolve[functions.IEmployeeService](scope)
package di
