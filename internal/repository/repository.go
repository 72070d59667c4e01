// internal/repository/repository.go
package repository

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/meridianhq/meridian/internal/model"
	"gorm.io/gorm"
)

// Transaction groups the writes that turn pending invitations into
// memberships so they land atomically or not at all.
type Transaction interface {
	CreateMembership(membership *model.Membership) error
	DeleteInvite(id uuid.UUID) error
	Commit() error
	Rollback() error
}

// gormTransaction runs the grouped writes on a single GORM transaction.
type gormTransaction struct {
	tx *gorm.DB
}

func (t *gormTransaction) CreateMembership(membership *model.Membership) error {
	if err := t.tx.Create(membership).Error; err != nil {
		return fmt.Errorf("creating membership: %w", err)
	}
	return nil
}

func (t *gormTransaction) DeleteInvite(id uuid.UUID) error {
	if err := t.tx.Delete(&model.Invite{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

// Commit finalizes the transaction.
func (t *gormTransaction) Commit() error {
	return t.tx.Commit().Error
}

// Rollback reverts the transaction.
func (t *gormTransaction) Rollback() error {
	slog.Warn("Rolling back transaction")
	return t.tx.Rollback().Error
}
