package repository

import (
	"context"

	"github.com/karibuapp/payout/internal/repository/postgres"
)

const insertAuditQuery = `
						INSERT INTO audit_log (admin_id, action, entity, entity_id, before_state, after_state)
						VALUES ($1, $2, $3, $4, $5, $6)
`

// AuditRepository is append-only store of admin actions
type AuditRepository struct {
	db *postgres.DB
}

// NewAuditRepository creates new audit repository instance
func NewAuditRepository(db *postgres.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// RecordAction appends admin action with before/after entity state
func (ar *AuditRepository) RecordAction(ctx context.Context, adminID uint64, action, entity string, entityID uint64, before, after any) error {
	_, err := ar.db.Exec(ctx, insertAuditQuery, adminID, action, entity, entityID, before, after)
	return err
}
