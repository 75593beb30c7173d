// Package secrets implements the credential storage service: CRUD on
// encrypted secret rows, uniqueness enforcement, masked projections, gated
// plaintext disclosure and bulk YAML import. Every method takes the
// persistence boundary explicitly; the caller owns transaction commit.
package secrets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/credstore/credstore/internal/audit"
	"github.com/credstore/credstore/internal/crypto"
	"github.com/credstore/credstore/internal/db"
	"github.com/credstore/credstore/internal/logging"
	"github.com/credstore/credstore/internal/metrics"
	"github.com/credstore/credstore/internal/ratelimit"
)

// Service orchestrates the encryption engine, store, audit recorder and
// rate limiter. Construct one per process (or per test); the rate limiter
// state lives inside the instance.
type Service struct {
	engine   *crypto.Engine
	store    *Store
	recorder *audit.Recorder
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRateLimit overrides the decrypt rate limit defaults.
func WithRateLimit(max int, window time.Duration) Option {
	return func(s *Service) {
		s.limiter = ratelimit.New(max, window)
	}
}

// WithLimiter injects a pre-built limiter, used by tests that need a
// deterministic clock.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock injects a clock, used by tests asserting timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a secrets service for the given dialect.
func NewService(engine *crypto.Engine, dialect db.Dialect, opts ...Option) *Service {
	s := &Service{
		engine: engine,
		store:  NewStore(dialect),
		logger: logging.New(false, false),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.New(ratelimit.DefaultMaxRequests, ratelimit.DefaultWindow)
	}
	if s.recorder == nil {
		s.recorder = audit.NewRecorder(dialect, s.logger)
	}
	return s
}

// Create encrypts and persists a new secret, writes a CREATE audit entry on
// the same Querier and returns the masked projection.
func (s *Service) Create(ctx context.Context, q db.Querier, principalID string, in CreateInput, origin string) (Masked, error) {
	if in.Category == "" {
		in.Category = CategoryCustom
	}
	if in.Profile == "" {
		in.Profile = ProfileDefault
	}

	taken, err := s.store.NameInUse(ctx, q, principalID, in.Name, in.Profile, "")
	if err != nil {
		return Masked{}, err
	}
	if taken {
		metrics.RecordOperation("create", "duplicate")
		return Masked{}, DuplicateError{Name: in.Name, Profile: in.Profile}
	}

	ciphertext, err := s.engine.Encrypt(in.Value)
	if err != nil {
		return Masked{}, err
	}

	now := s.now().UTC()
	sec := &Secret{
		ID:             uuid.NewString(),
		PrincipalID:    principalID,
		Name:           in.Name,
		Key:            in.Key,
		EncryptedValue: ciphertext,
		Category:       in.Category,
		Profile:        in.Profile,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Insert(ctx, q, sec); err != nil {
		return Masked{}, err
	}
	if err := s.recorder.Record(ctx, q, principalID, audit.ActionCreate, sec.ID, origin); err != nil {
		return Masked{}, err
	}

	metrics.RecordOperation("create", "ok")
	s.logger.Debug("created secret '%s' (id=%s) for principal %s", sec.Name, sec.ID, principalID)
	return maskedFrom(sec), nil
}

// Get returns the masked projection for (principal, id). Pure reads are not
// audited and not rate limited.
func (s *Service) Get(ctx context.Context, q db.Querier, principalID, id string) (Masked, error) {
	sec, err := s.store.GetByID(ctx, q, principalID, id)
	if err != nil {
		return Masked{}, err
	}
	if sec == nil {
		return Masked{}, NotFoundError{ID: id}
	}
	return maskedFrom(sec), nil
}

// List returns masked projections for the principal's secrets, newest
// created first, narrowed by the filter.
func (s *Service) List(ctx context.Context, q db.Querier, principalID string, f Filter) ([]Masked, error) {
	rows, err := s.store.List(ctx, q, principalID, f)
	if err != nil {
		return nil, err
	}

	out := make([]Masked, 0, len(rows))
	for i := range rows {
		out = append(out, maskedFrom(&rows[i]))
	}
	s.logger.Debug("listed %d secrets for principal %s", len(out), principalID)
	return out, nil
}

// Update applies a partial patch. The value is re-encrypted only when the
// patch carries one; updated_at is always refreshed. Writes an UPDATE audit
// entry.
func (s *Service) Update(ctx context.Context, q db.Querier, principalID, id string, patch Patch, origin string) (Masked, error) {
	sec, err := s.store.GetByID(ctx, q, principalID, id)
	if err != nil {
		return Masked{}, err
	}
	if sec == nil {
		return Masked{}, NotFoundError{ID: id}
	}

	// Renames re-check uniqueness against the target profile, excluding
	// the row being updated.
	if patch.Name != nil && *patch.Name != sec.Name {
		targetProfile := sec.Profile
		if patch.Profile != nil {
			targetProfile = *patch.Profile
		}
		taken, err := s.store.NameInUse(ctx, q, principalID, *patch.Name, targetProfile, sec.ID)
		if err != nil {
			return Masked{}, err
		}
		if taken {
			metrics.RecordOperation("update", "duplicate")
			return Masked{}, DuplicateError{Name: *patch.Name, Profile: targetProfile}
		}
	}

	if patch.Name != nil {
		sec.Name = *patch.Name
	}
	if patch.Key != nil {
		sec.Key = *patch.Key
	}
	if patch.Category != nil {
		sec.Category = *patch.Category
	}
	if patch.Profile != nil {
		sec.Profile = *patch.Profile
	}
	if patch.Value != nil {
		ciphertext, err := s.engine.Encrypt(*patch.Value)
		if err != nil {
			return Masked{}, err
		}
		sec.EncryptedValue = ciphertext
	}
	sec.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, q, sec); err != nil {
		return Masked{}, err
	}
	if err := s.recorder.Record(ctx, q, principalID, audit.ActionUpdate, sec.ID, origin); err != nil {
		return Masked{}, err
	}

	metrics.RecordOperation("update", "ok")
	s.logger.Debug("updated secret '%s' (id=%s) for principal %s", sec.Name, sec.ID, principalID)
	return maskedFrom(sec), nil
}

// Delete removes the secret. The DELETE audit entry is written before the
// row is removed so both land in the same transaction or neither does.
func (s *Service) Delete(ctx context.Context, q db.Querier, principalID, id string, origin string) error {
	sec, err := s.store.GetByID(ctx, q, principalID, id)
	if err != nil {
		return err
	}
	if sec == nil {
		return NotFoundError{ID: id}
	}

	if err := s.recorder.Record(ctx, q, principalID, audit.ActionDelete, sec.ID, origin); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, q, principalID, id); err != nil {
		return err
	}

	metrics.RecordOperation("delete", "ok")
	s.logger.Debug("deleted secret '%s' (id=%s) for principal %s", sec.Name, sec.ID, principalID)
	return nil
}

// Decrypt returns the plaintext projection. The elevation check runs before
// any I/O, then the rate limiter, then the row lookup. A DECRYPT audit
// entry is written on success.
func (s *Service) Decrypt(ctx context.Context, q db.Querier, principalID, id string, elevated bool, origin string) (Decrypted, error) {
	if !elevated {
		metrics.RecordDecrypt("denied")
		return Decrypted{}, ElevationRequiredError{Operation: "decrypting secrets"}
	}

	if err := s.limiter.Allow(principalID); err != nil {
		metrics.RecordDecrypt("rate_limited")
		metrics.RecordRateLimited()
		return Decrypted{}, err
	}

	sec, err := s.store.GetByID(ctx, q, principalID, id)
	if err != nil {
		return Decrypted{}, err
	}
	if sec == nil {
		metrics.RecordDecrypt("not_found")
		return Decrypted{}, NotFoundError{ID: id}
	}

	value, err := s.engine.Decrypt(sec.EncryptedValue)
	if err != nil {
		metrics.RecordDecrypt("error")
		return Decrypted{}, err
	}

	if err := s.recorder.Record(ctx, q, principalID, audit.ActionDecrypt, sec.ID, origin); err != nil {
		return Decrypted{}, err
	}

	metrics.RecordDecrypt("ok")
	s.logger.Debug("decrypted secret '%s' (id=%s) for principal %s", sec.Name, sec.ID, principalID)
	return Decrypted{Masked: maskedFrom(sec), Value: value}, nil
}

// LookupKey decrypts the stored value for a credential key scoped to
// (principal, profile). This is the store-backed loader's suspending
// lookup; it bypasses masking but goes nowhere near the audit trail since
// it serves machine resolution, not operator disclosure.
func (s *Service) LookupKey(ctx context.Context, q db.Querier, principalID, key string, profile Profile) (string, bool, error) {
	sec, err := s.store.FindByKeyProfile(ctx, q, principalID, key, profile)
	if err != nil {
		return "", false, err
	}
	if sec == nil {
		return "", false, nil
	}

	value, err := s.engine.Decrypt(sec.EncryptedValue)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
