// Package resolve walks an ordered chain of credential sources and returns
// the first hit. Priority is fixed by construction order; the conventional
// chain is store, environment, file, then external managers.
package resolve

import (
	"context"

	"github.com/credstore/credstore/internal/loaders"
	"github.com/credstore/credstore/internal/logging"
)

// Resolution is a resolved credential together with the source that
// supplied it.
type Resolution struct {
	Key    string
	Value  string
	Source string
}

// Resolver holds the ordered source chain.
type Resolver struct {
	sources []loaders.Source
	logger  *logging.Logger
}

// New creates a resolver over the given sources, highest priority first.
func New(logger *logging.Logger, sources ...loaders.Source) *Resolver {
	return &Resolver{sources: sources, logger: logger}
}

// Resolve returns the first source's value for key. Sources that report
// absent are skipped; a source error stops the walk, since silently
// falling past a failing store would mask real configuration.
func (r *Resolver) Resolve(ctx context.Context, key string) (Resolution, bool, error) {
	for _, src := range r.sources {
		value, found, err := src.Lookup(ctx, key)
		if err != nil {
			return Resolution{}, false, err
		}
		if found {
			r.logger.Debug("resolved '%s' from source '%s' (value=%s)", key, src.Name(), logging.Secret(value))
			return Resolution{Key: key, Value: value, Source: src.Name()}, true, nil
		}
	}
	return Resolution{}, false, nil
}

// ResolveAll resolves each key independently. Missing keys are simply
// omitted from the result; the caller decides whether absence is an error.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string) ([]Resolution, error) {
	out := make([]Resolution, 0, len(keys))
	for _, key := range keys {
		res, found, err := r.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, res)
		}
	}
	return out, nil
}
