package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

// UpsertOTP stores a freshly issued code, replacing any earlier one for the number
func (r *SQLRepository) UpsertOTP(ctx context.Context, code *models.OTPCode) error {
	query := `
		INSERT INTO otp_codes (mobile_number, code_hash, attempts, expires_at, created_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT (mobile_number) DO UPDATE SET
			code_hash = excluded.code_hash,
			attempts = 0,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`

	_, err := r.exec(ctx, query, code.MobileNumber, code.CodeHash, code.ExpiresAt, code.CreatedAt)
	return errors.Wrap(err, "upsert otp")
}

func (r *SQLRepository) GetOTP(ctx context.Context, mobileNumber string) (*models.OTPCode, error) {
	var code models.OTPCode
	found, err := r.get(ctx, &code, `SELECT * FROM otp_codes WHERE mobile_number = ?`, mobileNumber)
	if err != nil {
		return nil, errors.Wrap(err, "select otp")
	}
	if !found {
		return nil, nil
	}
	return &code, nil
}

// ReserveOTPAttempt counts one verification attempt against the number's
// code. It reports false, changing nothing, once maxAttempts were used.
func (r *SQLRepository) ReserveOTPAttempt(ctx context.Context, mobileNumber string, maxAttempts int) (bool, error) {
	res, err := r.exec(ctx, `
		UPDATE otp_codes SET attempts = attempts + 1
		WHERE mobile_number = ? AND attempts < ?
	`, mobileNumber, maxAttempts)
	if err != nil {
		return false, errors.Wrap(err, "reserve otp attempt")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n == 1, nil
}

func (r *SQLRepository) DeleteOTP(ctx context.Context, mobileNumber string) error {
	_, err := r.exec(ctx, `DELETE FROM otp_codes WHERE mobile_number = ?`, mobileNumber)
	return errors.Wrap(err, "delete otp")
}

func (r *SQLRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token_hash, parent_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.exec(ctx, query, token.TokenHash, token.ParentID, token.ExpiresAt, token.CreatedAt)
	return errors.Wrap(err, "insert refresh token")
}

func (r *SQLRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	found, err := r.get(ctx, &token, `SELECT * FROM refresh_tokens WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return nil, errors.Wrap(err, "select refresh token")
	}
	if !found {
		return nil, nil
	}
	return &token, nil
}

// RotateRefreshToken deletes oldHash and inserts next in one transaction. It
// reports false, inserting nothing, when oldHash was already gone.
func (r *SQLRepository) RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken) (bool, error) {
	rotated := false
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM refresh_tokens WHERE token_hash = ?`), oldHash)
		if err != nil {
			return errors.Wrap(err, "delete refresh token")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "rows affected")
		}
		if n == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO refresh_tokens (token_hash, parent_id, expires_at, created_at)
			VALUES (?, ?, ?, ?)
		`), next.TokenHash, next.ParentID, next.ExpiresAt, next.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert refresh token")
		}
		rotated = true
		return nil
	})
	return rotated, err
}

// DeleteRefreshTokens revokes every refresh token of a parent
func (r *SQLRepository) DeleteRefreshTokens(ctx context.Context, parentID string) error {
	_, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE parent_id = ?`, parentID)
	return errors.Wrap(err, "delete refresh tokens")
}
