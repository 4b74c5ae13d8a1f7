package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobgenie/internal/models"
)

var approvalTables = map[models.EntityType]string{
	models.EntityCandidate: "candidates",
	models.EntityCompany:   "companies",
}

// ApplyStatusChange updates the approval status of a candidate or company and
// records the transition, in one transaction. The update only applies while the
// record still has change.From; otherwise ErrConflict is returned and nothing is written.
func (s *Store) ApplyStatusChange(ctx context.Context, change *models.StatusChange) (*models.ApprovalEvent, error) {
	table, ok := approvalTables[change.EntityType]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", change.EntityType)
	}

	set := "approval_status = $1, rejection_reason = $2, updated_at = $3," +
		" reviewed_by = COALESCE($6::uuid, reviewed_by)," +
		" reviewed_at = CASE WHEN $6::uuid IS NULL THEN reviewed_at ELSE $3 END"
	if change.MarkSubmitted {
		set += ", submitted_at = $3"
	}
	query := "UPDATE " + table + " SET " + set + " WHERE id = $4 AND approval_status = $5"

	var reviewer *uuid.UUID
	if change.Review {
		reviewer = change.ActorID
	}

	var event models.ApprovalEvent
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := mustAffect(tx.ExecContext(ctx, query,
			change.To, change.StoredRejectionReason(), change.At, change.EntityID, change.From, reviewer,
		)); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO approval_events (entity_type, entity_id, action, from_status, to_status, reason, actor_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *`,
			change.EntityType, change.EntityID, change.Action, change.From, change.To,
			change.Reason, change.ActorID, change.At,
		).StructScan(&event)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListApprovalEvents returns the transitions of one record, newest first.
func (s *Store) ListApprovalEvents(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.ApprovalEvent, error) {
	events := []models.ApprovalEvent{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM approval_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}
	return events, nil
}

// GetApprovalStats counts candidates and companies per approval status.
func (s *Store) GetApprovalStats(ctx context.Context) (*models.ApprovalStats, error) {
	var stats models.ApprovalStats

	if err := s.db.GetContext(ctx, &stats.Candidates, `
		SELECT
			COUNT(*) FILTER (WHERE approval_status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE approval_status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE approval_status = 'rejected') AS rejected
		FROM candidates WHERE submitted_at IS NOT NULL`,
	); err != nil {
		return nil, fmt.Errorf("failed to count candidates: %w", err)
	}

	if err := s.db.GetContext(ctx, &stats.Companies, `
		SELECT
			COUNT(*) FILTER (WHERE approval_status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE approval_status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE approval_status = 'rejected') AS rejected
		FROM companies`,
	); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	if err := s.db.GetContext(ctx, &stats.Unsubmitted,
		"SELECT COUNT(*) FROM candidates WHERE submitted_at IS NULL",
	); err != nil {
		return nil, fmt.Errorf("failed to count unsubmitted candidates: %w", err)
	}
	return &stats, nil
}
