// Package resolver maps "module/function" pairs from the ad-hoc helper route
// to registered endpoints. Only modules below the allowed prefix are
// reachable; nothing is looked up by reflection.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/balazsgrill/actiongate"
	"github.com/balazsgrill/actiongate/internal/validate"
)

var (
	ErrNotAllowed = errors.New("this is not helper endpoint")
	ErrNotFound   = errors.New("helper endpoint not found")
)

// Endpoint is a helper function the orchestrator may call while editing a
// configuration, for example to list the boards of an account.
type Endpoint func(ctx context.Context, body actiongate.Document) (interface{}, error)

// NoArg adapts a function that takes no body.
func NoArg(fn func(ctx context.Context) (interface{}, error)) Endpoint {
	return func(ctx context.Context, _ actiongate.Document) (interface{}, error) {
		return fn(ctx)
	}
}

// WithBody adapts a function taking a typed request. The body is decoded and
// validated first, so schema violations surface as *validate.Error.
func WithBody[T any](fn func(ctx context.Context, req T) (interface{}, error)) Endpoint {
	return func(ctx context.Context, body actiongate.Document) (interface{}, error) {
		var req T
		if err := validate.Decode(body, &req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// Module is one registration unit, e.g. "services.trello".
type Module struct {
	Path      string
	Endpoints map[string]Endpoint
}

type Resolver struct {
	prefix  string
	modules map[string]map[string]Endpoint
}

// New builds a resolver that accepts module paths equal to prefix or below
// it ("prefix.something").
func New(prefix string, modules ...Module) (*Resolver, error) {
	r := &Resolver{prefix: prefix, modules: make(map[string]map[string]Endpoint, len(modules))}
	for _, m := range modules {
		if !r.allowed(m.Path) {
			return nil, fmt.Errorf("module %s is outside %s", m.Path, prefix)
		}
		if _, dup := r.modules[m.Path]; dup {
			return nil, fmt.Errorf("duplicate module %s", m.Path)
		}
		r.modules[m.Path] = m.Endpoints
	}
	return r, nil
}

func (r *Resolver) allowed(module string) bool {
	return module == r.prefix || strings.HasPrefix(module, r.prefix+".")
}

// Lookup finds the endpoint for module and fn.
func (r *Resolver) Lookup(module, fn string) (Endpoint, error) {
	if !r.allowed(module) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, module)
	}
	fns, ok := r.modules[module]
	if !ok {
		return nil, fmt.Errorf("%w: no module named %s", ErrNotFound, module)
	}
	ep, ok := fns[fn]
	if !ok {
		return nil, fmt.Errorf("%w: module %s has no attribute %s", ErrNotFound, module, fn)
	}
	return ep, nil
}

// Call runs the endpoint with the raw request body. A body that is not a JSON
// object is passed as an empty document.
func (r *Resolver) Call(ctx context.Context, module, fn string, raw []byte) (interface{}, error) {
	ep, err := r.Lookup(module, fn)
	if err != nil {
		return nil, err
	}
	body := actiongate.Document{}
	if len(raw) > 0 {
		var doc actiongate.Document
		if json.Unmarshal(raw, &doc) == nil && doc != nil {
			body = doc
		}
	}
	return ep(ctx, body)
}
