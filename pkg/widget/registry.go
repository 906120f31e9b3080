package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-widgets/pkg/request"
	"github.com/goliatone/go-widgets/pkg/sanitize"
	"github.com/goliatone/go-widgets/pkg/schema"
)

var (
	// ErrUnknownClass is returned when no constructor is registered for a class.
	ErrUnknownClass = errors.New("widget: class not registered")
	// ErrIncompatible is returned when a constructor builds a value that is
	// not a Component.
	ErrIncompatible = errors.New("widget: class does not implement Component")
)

// Component is the capability a registered class must satisfy before it can
// be embedded, rendered as a sub-widget or delegated to by the sanitizer.
type Component interface {
	IDBase() string
	Class() string
	FormSchema() schema.Schema
	Widget(ctx context.Context, scope *request.Scope, w io.Writer, args Args, inst schema.Instance) error
	Form(ctx context.Context, scope *request.Scope, w io.Writer, number string, inst schema.Instance) error
	Update(ctx context.Context, newInstance, oldInstance schema.Instance) (schema.Instance, error)
}

var _ Component = (*Widget)(nil)

// Constructor builds a widget for env. The result is checked against
// Component on first resolution and reused afterwards.
type Constructor func(env *Environment) (any, error)

// Registry maps class identifiers to constructors.
type Registry struct {
	env          *Environment
	mu           sync.RWMutex
	constructors map[string]Constructor
	built        map[string]Component
}

func newRegistry(env *Environment) *Registry {
	return &Registry{
		env:          env,
		constructors: make(map[string]Constructor),
		built:        make(map[string]Component),
	}
}

// Register adds a constructor under class. Duplicate classes return an error.
func (r *Registry) Register(class string, ctor Constructor) error {
	class = strings.TrimSpace(class)
	if class == "" {
		return fmt.Errorf("widget: class name is required")
	}
	if ctor == nil {
		return fmt.Errorf("widget: constructor for %q is required", class)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[class]; exists {
		return fmt.Errorf("widget: class %q already registered", class)
	}
	r.constructors[class] = ctor
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(class string, ctor Constructor) {
	if err := r.Register(class, ctor); err != nil {
		panic(err)
	}
}

// Has reports whether class is registered.
func (r *Registry) Has(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[class]
	return ok
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the widget for class, constructing and validating it on
// first use. Failed constructions are not remembered.
func (r *Registry) Resolve(class string) (Component, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[class]
	cached := r.built[class]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	if cached != nil {
		return cached, nil
	}

	built, err := ctor(r.env)
	if err != nil {
		return nil, fmt.Errorf("widget: construct %q: %w", class, err)
	}
	component, ok := built.(Component)
	if !ok || component == nil {
		return nil, fmt.Errorf("%w: %q built %T", ErrIncompatible, class, built)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.built[class]; existing != nil {
		return existing, nil
	}
	r.built[class] = component
	return component, nil
}

// Lookup resolves the component rendered for a placed widget by id base.
func (r *Registry) Lookup(idBase string) (Component, error) {
	for _, class := range r.Classes() {
		component, err := r.Resolve(class)
		if err != nil {
			continue
		}
		if component.IDBase() == idBase {
			return component, nil
		}
	}
	return nil, fmt.Errorf("%w: id base %q", ErrUnknownClass, idBase)
}

// Updater implements sanitize.SubWidgets.
func (r *Registry) Updater(class string) (sanitize.Updater, bool) {
	component, err := r.Resolve(class)
	if err != nil {
		r.env.logger.Debugw("embedded widget not resolved", "class", class, "error", err)
		return nil, false
	}
	return component, true
}

// FormSchema implements render.SubWidgetForms.
func (r *Registry) FormSchema(class string) (schema.Schema, bool) {
	component, err := r.Resolve(class)
	if err != nil {
		r.env.logger.Debugw("embedded widget form not resolved", "class", class, "error", err)
		return nil, false
	}
	return component.FormSchema(), true
}
