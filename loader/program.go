package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/meigma/warexec/archive"
)

// Program is a runnable code unit.
type Program interface {
	// Main runs the program with the residual process arguments.
	Main(ctx context.Context, args []string) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, args []string) error

// Main calls f(ctx, args).
func (f ProgramFunc) Main(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// Unit is a code unit resolved from an archive root.
type Unit struct {
	// Name is the fully qualified name the unit was resolved for.
	Name string

	// Location is where the unit was found. It is the zero Location for
	// units supplied by a host environment.
	Location archive.Location

	// Code is the unit's content as stored in the archive.
	Code []byte
}

// Definer turns a resolved code unit into a Program.
type Definer interface {
	Define(u *Unit) (Program, error)
}

// DefinerFunc adapts a function to Definer.
type DefinerFunc func(u *Unit) (Program, error)

// Define calls f(u).
func (f DefinerFunc) Define(u *Unit) (Program, error) {
	return f(u)
}

// Factory builds a Program from a code unit.
type Factory func(u *Unit) (Program, error)

// Registry is a name-to-factory table. It serves as a Definer for bundled
// units and, through NewHost, as the set of programs linked into the host.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates name with f. Registering a name twice is an error.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("loader: invalid registration for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("loader: %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// RegisterFunc registers a Program that does not depend on the unit's code.
func (r *Registry) RegisterFunc(name string, fn ProgramFunc) error {
	if fn == nil {
		return fmt.Errorf("loader: invalid registration for %q", name)
	}
	return r.Register(name, func(*Unit) (Program, error) { return fn, nil })
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Define implements Definer.
func (r *Registry) Define(u *Unit) (Program, error) {
	f, ok := r.Lookup(u.Name)
	if !ok {
		return nil, fmt.Errorf("define %s from %s: %w", u.Name, u.Location, ErrUnlinked)
	}
	return f(u)
}
