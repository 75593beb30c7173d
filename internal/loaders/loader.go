// Package loaders provides read-only credential lookup from multiple
// sources: the encrypted store, the process environment, YAML credential
// files, and external secret managers. Sources are composed into an
// ordered chain by the resolve package; none of them mutates anything.
package loaders

import "context"

// Loader is the synchronous capability: sources that can answer without
// I/O (environment variables, an already-parsed file).
type Loader interface {
	Name() string
	Contains(key string) bool
	Get(key string) (string, bool)
}

// Source is the suspending capability: sources whose lookup performs I/O
// (the secrets store, external secret managers). The store-backed source
// deliberately implements only this interface, so a synchronous call path
// cannot exist for it.
type Source interface {
	Name() string
	Lookup(ctx context.Context, key string) (value string, found bool, err error)
}

type staticSource struct {
	l Loader
}

// Static adapts a synchronous Loader into a Source so it can take a slot in
// a resolution chain.
func Static(l Loader) Source {
	return staticSource{l: l}
}

func (s staticSource) Name() string {
	return s.l.Name()
}

func (s staticSource) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := s.l.Get(key)
	return v, ok, nil
}
