// Package audit appends immutable records of every mutating or disclosing
// secret operation. Entries are written on the caller's transaction and
// never updated or deleted; the caller owns the commit, so an audit row is
// durable exactly when the operation that triggered it is.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/credstore/credstore/internal/db"
	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
	"github.com/credstore/credstore/internal/metrics"
)

// Action is the kind of operation being recorded.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionDecrypt Action = "DECRYPT"
)

// OriginUnknown is recorded when the caller cannot determine the request
// origin.
const OriginUnknown = "unknown"

// Entry is one appended audit record.
type Entry struct {
	ID          string
	PrincipalID string
	Action      Action
	SecretID    string
	Timestamp   time.Time
	Origin      string
}

// Recorder appends entries to the audit_log table.
type Recorder struct {
	dialect db.Dialect
	logger  *logging.Logger
	now     func() time.Time
}

// NewRecorder creates a recorder for the given dialect.
func NewRecorder(dialect db.Dialect, logger *logging.Logger) *Recorder {
	return &Recorder{dialect: dialect, logger: logger, now: time.Now}
}

// Record appends one entry. It never commits q; the enclosing operation's
// transaction decides durability.
func (r *Recorder) Record(ctx context.Context, q db.Querier, principalID string, action Action, secretID, origin string) error {
	if origin == "" {
		origin = OriginUnknown
	}

	entry := Entry{
		ID:          uuid.NewString(),
		PrincipalID: principalID,
		Action:      action,
		SecretID:    secretID,
		Timestamp:   r.now().UTC(),
		Origin:      origin,
	}

	query := db.Rebind(r.dialect, `INSERT INTO audit_log (id, principal_id, action, secret_id, created_at, origin) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		entry.ID, entry.PrincipalID, entry.Action, entry.SecretID, entry.Timestamp, entry.Origin,
	)
	if err != nil {
		return cserrors.StoreError{Op: "append audit entry", Err: err}
	}

	metrics.RecordAuditEntry(string(action))
	r.logger.Debug("audit: principal=%s action=%s secret=%s origin=%s",
		principalID, action, secretID, origin)
	return nil
}
