package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

// CreateParent inserts a parent, returning ErrDuplicate when the mobile number is taken
func (r *SQLRepository) CreateParent(ctx context.Context, parent *models.Parent) error {
	query := `
		INSERT INTO parents (id, mobile_number, national_id, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	// Generate a new UUID if not provided
	if parent.ID == "" {
		parent.ID = uuid.New().String()
	}

	now := time.Now().UnixMilli()
	parent.CreatedAt = now
	parent.UpdatedAt = now

	_, err := r.exec(ctx, query,
		parent.ID, parent.MobileNumber, parent.NationalID, parent.FirstName, parent.LastName,
		parent.CreatedAt, parent.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert parent")
	}

	return nil
}

func (r *SQLRepository) GetParentByMobile(ctx context.Context, mobileNumber string) (*models.Parent, error) {
	var parent models.Parent
	found, err := r.get(ctx, &parent, `SELECT * FROM parents WHERE mobile_number = ?`, mobileNumber)
	if err != nil {
		return nil, errors.Wrap(err, "select parent by mobile")
	}
	if !found {
		return nil, nil // Parent not found
	}

	return &parent, nil
}

func (r *SQLRepository) GetParentByID(ctx context.Context, id string) (*models.Parent, error) {
	var parent models.Parent
	found, err := r.get(ctx, &parent, `SELECT * FROM parents WHERE id = ?`, id)
	if err != nil {
		return nil, errors.Wrap(err, "select parent by id")
	}
	if !found {
		return nil, nil // Parent not found
	}

	return &parent, nil
}

// UpdateParent rewrites the editable profile fields
func (r *SQLRepository) UpdateParent(ctx context.Context, parent *models.Parent) error {
	query := `
		UPDATE parents SET national_id = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?
	`

	parent.UpdatedAt = time.Now().UnixMilli()
	_, err := r.exec(ctx, query,
		parent.NationalID, parent.FirstName, parent.LastName, parent.UpdatedAt, parent.ID)

	return errors.Wrap(err, "update parent")
}
