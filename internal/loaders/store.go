package loaders

import (
	"context"

	"github.com/credstore/credstore/internal/db"
	"github.com/credstore/credstore/internal/secrets"
)

// StoreLoader resolves credentials from the encrypted secrets store,
// scoped to one principal and profile. Lookup decrypts, so this source
// implements only the suspending interface; store and decryption failures
// propagate rather than degrade to absent.
type StoreLoader struct {
	svc         *secrets.Service
	q           db.Querier
	principalID string
	profile     secrets.Profile
}

// NewStoreLoader creates a store-backed source.
func NewStoreLoader(svc *secrets.Service, q db.Querier, principalID string, profile secrets.Profile) *StoreLoader {
	return &StoreLoader{svc: svc, q: q, principalID: principalID, profile: profile}
}

// Name returns the loader name.
func (l *StoreLoader) Name() string {
	return "store"
}

// Lookup decrypts the stored value for key, if any.
func (l *StoreLoader) Lookup(ctx context.Context, key string) (string, bool, error) {
	return l.svc.LookupKey(ctx, l.q, l.principalID, key, l.profile)
}
