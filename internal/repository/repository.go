package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/digiplay/digiplay-server/internal/models"
)

// ErrDuplicate is returned when a unique column already holds the value
var ErrDuplicate = errors.New("duplicate key")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// Parent operations
	CreateParent(ctx context.Context, parent *models.Parent) error
	GetParentByMobile(ctx context.Context, mobileNumber string) (*models.Parent, error)
	GetParentByID(ctx context.Context, id string) (*models.Parent, error)
	UpdateParent(ctx context.Context, parent *models.Parent) error

	// OTP operations
	UpsertOTP(ctx context.Context, code *models.OTPCode) error
	GetOTP(ctx context.Context, mobileNumber string) (*models.OTPCode, error)
	ReserveOTPAttempt(ctx context.Context, mobileNumber string, maxAttempts int) (bool, error)
	DeleteOTP(ctx context.Context, mobileNumber string) error

	// Refresh token operations
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken) (bool, error)
	DeleteRefreshTokens(ctx context.Context, parentID string) error

	// Document operations
	GetDocument(ctx context.Context, ownerID, key string) (*models.Document, error)
	PutDocument(ctx context.Context, doc *models.Document) error
	PutDocuments(ctx context.Context, docs []*models.Document) error
	InsertDocumentIfAbsent(ctx context.Context, doc *models.Document) (bool, error)
	DeleteDocument(ctx context.Context, ownerID, key string) error
	DeleteDocuments(ctx context.Context, ownerID string, keys []string) error
	ListDocumentKeys(ctx context.Context, ownerID string) ([]string, error)
}

// SQLRepository implements the Repository interface on PostgreSQL or SQLite.
// Queries use ? placeholders and go through Rebind.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new repository on db
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
	}
}

func (r *SQLRepository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := r.db.GetContext(ctx, dest, r.db.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.db.Rebind(query), args...)
}

// inTx runs fn in a transaction, rolling back when fn fails
func (r *SQLRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

// isUniqueViolation recognises unique constraint failures from both drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
