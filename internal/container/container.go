package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotBound is returned by Resolve when no factory is registered for the requested type.
var ErrNotBound = errors.New("no binding registered")

// Container maps types to factories. Each Resolve calls the factory again, so bound values are
// never shared between resolutions.
type Container struct {
	mu        sync.RWMutex
	factories map[reflect.Type]func() (any, error)
}

// New returns an empty Container.
func New() *Container {
	return &Container{factories: make(map[reflect.Type]func() (any, error))}
}

// Bind registers factory for T, replacing any previous binding.
func Bind[T any](c *Container, factory func() (T, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[reflect.TypeOf((*T)(nil)).Elem()] = func() (any, error) { return factory() }
}

// Bound reports whether T has a binding.
func Bound[T any](c *Container) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[reflect.TypeOf((*T)(nil)).Elem()]
	return ok
}

// Resolve builds a new T from its binding.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	typ := reflect.TypeOf((*T)(nil)).Elem()

	c.mu.RLock()
	factory, ok := c.factories[typ]
	c.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("resolve %s: %w", typ, ErrNotBound)
	}

	v, err := factory()
	if err != nil {
		return zero, fmt.Errorf("resolve %s: %w", typ, err)
	}
	return v.(T), nil
}

// MustResolve is Resolve for bindings registered at startup; it panics on failure.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}
