package di

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	// ErrNotRegistered is returned by Resolve when no binding exists for a contract.
	ErrNotRegistered = errors.New("di: contract not registered")

	// ErrNilScope is returned by Resolve when called with a nil scope.
	ErrNilScope = errors.New("di: nil scope")
)

// BindingError is returned when an implementation does not satisfy the contract
// it was bound to.
type BindingError struct {
	Contract       string
	Implementation string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	// Example: di: "*functions.EmployeeService" does not implement "functions.IEmployeeService"
	return "di: " + strconv.Quote(e.Implementation) + " does not implement " + strconv.Quote(e.Contract)
}

// key identifies a contract without reflection: distinct instantiations are
// distinct map keys.
type key[I any] struct{}

type factory func() (any, error)

// Collection holds contract bindings. It is safe for concurrent use.
type Collection struct {
	mu        sync.RWMutex
	factories map[any]factory
	names     map[any]string
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		factories: make(map[any]factory),
		names:     make(map[any]string),
	}
}

// AddScoped binds contract I to implementation *T. Every scope creates its own
// *T on first resolution. A later binding for the same contract replaces the
// earlier one.
func AddScoped[I any, T any](c *Collection) {
	contract := typeName[I]()
	implementation := fmt.Sprintf("%T", new(T))

	c.add(key[I]{}, contract, func() (any, error) {
		svc, ok := any(new(T)).(I)
		if !ok {
			return nil, &BindingError{Contract: contract, Implementation: implementation}
		}

		return svc, nil
	})
}

func (c *Collection) add(k any, name string, f factory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.factories[k] = f
	c.names[k] = name
}

// Contracts returns the names of every bound contract.
func (c *Collection) Contracts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.names))
	for _, name := range c.names {
		names = append(names, name)
	}

	return names
}

// NewScope starts a new resolution scope.
func (c *Collection) NewScope() *Scope {
	return &Scope{
		collection: c,
		instances:  make(map[any]any),
	}
}

// Scope caches one instance per contract.
type Scope struct {
	collection *Collection
	mu         sync.Mutex
	instances  map[any]any
}

// Resolve returns the scope's instance of contract I, creating it on first use.
func Resolve[I any](s *Scope) (I, error) {
	var zero I
	if s == nil || s.collection == nil {
		return zero, ErrNilScope
	}

	k := key[I]{}

	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.instances[k]; ok {
		return inst.(I), nil
	}

	s.collection.mu.RLock()
	f, ok := s.collection.factories[k]
	s.collection.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, typeName[I]())
	}

	inst, err := f()
	if err != nil {
		return zero, err
	}

	s.instances[k] = inst
	return inst.(I), nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[I any](s *Scope) I {
	svc, err := Resolve[I](s)
	if err != nil {
		panic(err)
	}

	return svc
}

func typeName[I any]() string {
	// (*I)(nil) keeps interface contracts printable.
	name := fmt.Sprintf("%T", (*I)(nil))
	return name[1:]
}
