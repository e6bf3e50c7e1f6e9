package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wirerpc/wirerpc/wire"
)

// ReservedPrefix is the method namespace reserved for protocol extensions.
// Registration under it fails.
const ReservedPrefix = "rpc."

// Handler is the raw procedure form: bound arguments in, wire result out.
// Errors returned by a Handler are classified by the dispatcher: a
// *wire.ErrorObject passes through, a BindingError answers invalid params,
// anything else answers a server error carrying the error text.
type Handler func(ctx context.Context, args []wire.Value) (wire.Value, error)

// Registration failures, wrapped with the offending method name.
var (
	ErrReservedName    = errors.New("method name is reserved")
	ErrDuplicateMethod = errors.New("method already registered")
	ErrDuplicateParam  = errors.New("duplicate parameter name")
	ErrNilHandler      = errors.New("nil handler")
)

// Procedure is a registered method: its name, declared parameter names in
// order, and its handler.
type Procedure struct {
	name   string
	params []string
	fn     Handler
}

func (p *Procedure) Name() string { return p.name }

// Params returns the declared parameter names in declaration order. The
// slice is shared; treat it as read only.
func (p *Procedure) Params() []string { return p.params }

// Registry maps method names to procedures. Registration normally happens
// during startup, but the registry is safe for registration concurrent
// with dispatch.
type Registry struct {
	mu    sync.RWMutex
	procs map[string]*Procedure
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]*Procedure)}
}

// Register adds a procedure under name with the given parameter names.
// Names under ReservedPrefix, duplicate registrations, duplicate parameter
// names and nil handlers all fail.
func (r *Registry) Register(name string, params []string, fn Handler) error {
	if fn == nil {
		return fmt.Errorf("dispatch: register %q: %w", name, ErrNilHandler)
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return fmt.Errorf("dispatch: register %q: %w", name, ErrReservedName)
	}
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("dispatch: register %q: %w: %s", name, ErrDuplicateParam, p)
		}
		seen[p] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.procs[name]; exists {
		return fmt.Errorf("dispatch: register %q: %w", name, ErrDuplicateMethod)
	}
	r.procs[name] = &Procedure{
		name:   name,
		params: append([]string(nil), params...),
		fn:     fn,
	}
	return nil
}

// MustRegister is Register for wiring done at startup. It panics on error.
func (r *Registry) MustRegister(name string, params []string, fn Handler) {
	if err := r.Register(name, params, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (*Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	return p, ok
}

// Names returns the registered method names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.procs))
	for name := range r.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
