package unit

import "fmt"

// ResolutionError signals that no implementation is registered under
// the name derived from a unit identifier. It is fatal: the engine
// never retries resolution.
type ResolutionError struct {
	ID   string
	Name string
}

func (e *ResolutionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("could not derive a unit name from identifier [%s]", e.ID)
	}

	return fmt.Sprintf("no unit registered under name [%s] derived from identifier [%s]", e.Name, e.ID)
}

// Registry maps derived unit names to factories. It is built once at
// startup, usually through init functions in the migrations package.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Add registers a factory under a derived name. A repeated Add for the
// same name overwrites the previous factory, which keeps file reloads
// idempotent.
func (r *Registry) Add(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Resolve derives the implementation name from id and constructs the
// registered unit. A missing implementation is a *ResolutionError.
func (r *Registry) Resolve(id string) (Unit, error) {
	name := DeriveName(id)
	if name == "" {
		return nil, &ResolutionError{ID: id}
	}

	f, ok := r.factories[name]
	if !ok {
		return nil, &ResolutionError{ID: id, Name: name}
	}

	return f(), nil
}

var global = NewRegistry()

// Register adds a factory to the package level registry that
// NewMigrator falls back to when no custom registry is supplied.
func Register(name string, f Factory) {
	global.Add(name, f)
}

// Default returns the package level registry.
func Default() *Registry {
	return global
}
