// Package latebind is the embedding API of the late-binding dispatch
// engine. An Engine owns the shared binder and registry; call sites
// created from it cache bindings per expression location.
//
//	eng, _ := latebind.New()
//	op, _ := dyn.GetMember("Name")
//	site := eng.NewSite(op)
//	v, err := site.Execute(user)
package latebind

import (
	"fmt"

	"github.com/funvibe/latebind/internal/binder"
	"github.com/funvibe/latebind/internal/callsite"
	"github.com/funvibe/latebind/internal/config"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/internal/reflectbind"
	"github.com/funvibe/latebind/pkg/dyn"
)

// Engine wires the registry, the reflection fallback, and the two-tier
// binder behind a small embedding surface. One engine is safe for
// concurrent use from any number of goroutines.
type Engine struct {
	cfg      config.Config
	registry *reflectbind.Registry
	binder   *binder.Binder
}

// Option configures an Engine.
type Option func(*Engine) error

// WithInlineCapacity overrides the per-site inline cache capacity.
func WithInlineCapacity(n int) Option {
	return func(e *Engine) error {
		if n < 1 || n > config.MaxInlineCapacity {
			return fmt.Errorf("inline capacity must be between 1 and %d", config.MaxInlineCapacity)
		}
		e.cfg.Cache.InlineCapacity = n
		return nil
	}
}

// WithPromotionThreshold overrides the miss count after which a full
// site promotes to the unbounded polymorphic table.
func WithPromotionThreshold(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("promotion threshold must be positive")
		}
		e.cfg.Cache.PromotionThreshold = n
		return nil
	}
}

// WithPolymorphicTable toggles promotion entirely.
func WithPolymorphicTable(enabled bool) Option {
	return func(e *Engine) error {
		e.cfg.Cache.Polymorphic = &enabled
		return nil
	}
}

// WithConfigFile loads tuning from a latebind.yaml file.
func WithConfigFile(path string) Option {
	return func(e *Engine) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		e.cfg = *cfg
		return nil
	}
}

// WithConfigSearch walks up from dir looking for latebind.yaml and
// loads it when found; without one the defaults stay in place.
func WithConfigSearch(dir string) Option {
	return func(e *Engine) error {
		path, err := config.FindConfig(dir)
		if err != nil || path == "" {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		e.cfg = *cfg
		return nil
	}
}

// New creates an engine with default tuning, then applies options.
func New(opts ...Option) (*Engine, error) {
	reg := reflectbind.NewRegistry()
	e := &Engine{
		cfg:      config.Default(),
		registry: reg,
		binder:   binder.New(reflectbind.New(reg)),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// NewSite creates the call site for one static call location performing
// op. Reuse the site across executions of that location; binding cost
// is amortized per site, not per program.
func (e *Engine) NewSite(op dyn.Op) *Site {
	return &Site{inner: callsite.New(e.binder, op, e.cfg.Cache)}
}

// RegisterMember attaches a member function to the shape of receiver,
// callable through invoke-member and readable through get-member.
// Registering several functions under one name builds an overload set.
func (e *Engine) RegisterMember(receiver interface{}, name string, fn interface{}) error {
	return e.registry.RegisterMember(receiver, name, fn)
}

// RegisterOperator attaches a binary operator implementation, entered
// into the operator table of its first parameter's shape.
func (e *Engine) RegisterOperator(operator string, fn interface{}) error {
	return e.registry.RegisterOperator(operator, fn)
}

// RegisterConversion registers a user-defined implicit conversion used
// by overload ranking and by explicit convert operations.
func (e *Engine) RegisterConversion(fn interface{}) error {
	return e.registry.RegisterConversion(fn)
}

// Bind resolves op against the operands without caching, for callers
// that want the raw binder rather than a site.
func (e *Engine) Bind(op dyn.Op, values ...interface{}) error {
	_, f := e.binder.Bind(op, envelope.WrapAll(values))
	if f != nil {
		return &dyn.DispatchError{Failure: f}
	}
	return nil
}
