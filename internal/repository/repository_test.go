package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/repository"
)

func newTestRepository(t *testing.T) *repository.SQLRepository {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "repo.db")

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewSQLRepository(db)
}

func TestParents(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	parent := &models.Parent{
		MobileNumber: "+989121234567",
		NationalID:   "0012345678",
		FirstName:    "Sara",
		LastName:     "Ahmadi",
	}
	require.NoError(t, repo.CreateParent(ctx, parent))
	assert.NotEmpty(t, parent.ID)

	got, err := repo.GetParentByMobile(ctx, "+989121234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, parent.ID, got.ID)

	// Duplicate mobile number
	err = repo.CreateParent(ctx, &models.Parent{MobileNumber: "+989121234567", NationalID: "1", FirstName: "a", LastName: "b"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got.FirstName = "Sarah"
	require.NoError(t, repo.UpdateParent(ctx, got))

	byID, err := repo.GetParentByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sarah", byID.FirstName)

	missing, err := repo.GetParentByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDocuments(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc, err := repo.GetDocument(ctx, "owner", "parentWallet")
	require.NoError(t, err)
	assert.Nil(t, doc)

	inserted, err := repo.InsertDocumentIfAbsent(ctx, &models.Document{OwnerID: "owner", Key: "parentWallet", Value: `{"money":1}`})
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second seed loses and leaves the first value alone
	inserted, err = repo.InsertDocumentIfAbsent(ctx, &models.Document{OwnerID: "owner", Key: "parentWallet", Value: `{"money":2}`})
	require.NoError(t, err)
	assert.False(t, inserted)

	doc, err = repo.GetDocument(ctx, "owner", "parentWallet")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, `{"money":1}`, doc.Value)
	assert.Equal(t, 1, doc.SchemaVersion)

	require.NoError(t, repo.PutDocument(ctx, &models.Document{OwnerID: "owner", Key: "parentWallet", Value: `{"money":3}`, SchemaVersion: 2}))
	doc, err = repo.GetDocument(ctx, "owner", "parentWallet")
	require.NoError(t, err)
	assert.Equal(t, `{"money":3}`, doc.Value)
	assert.Equal(t, 2, doc.SchemaVersion)

	require.NoError(t, repo.PutDocuments(ctx, []*models.Document{
		{OwnerID: "owner", Key: "childWallet_1", Value: `{}`},
		{OwnerID: "owner", Key: "childGoals_1", Value: `[]`},
		{OwnerID: "other", Key: "childWallet_1", Value: `{}`},
	}))

	keys, err := repo.ListDocumentKeys(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"childGoals_1", "childWallet_1", "parentWallet"}, keys)

	require.NoError(t, repo.DeleteDocuments(ctx, "owner", []string{"childGoals_1", "childWallet_1"}))
	keys, err = repo.ListDocumentKeys(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, []string{"parentWallet"}, keys)

	// Other owners are untouched
	doc, err = repo.GetDocument(ctx, "other", "childWallet_1")
	require.NoError(t, err)
	assert.NotNil(t, doc)

	require.NoError(t, repo.DeleteDocument(ctx, "owner", "parentWallet"))
	keys, err = repo.ListDocumentKeys(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOTPCodes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	code := &models.OTPCode{MobileNumber: "+989121234567", CodeHash: "h1", ExpiresAt: now + 1000, CreatedAt: now}
	require.NoError(t, repo.UpsertOTP(ctx, code))
	for i := 0; i < 2; i++ {
		reserved, err := repo.ReserveOTPAttempt(ctx, code.MobileNumber, 2)
		require.NoError(t, err)
		assert.True(t, reserved)
	}
	reserved, err := repo.ReserveOTPAttempt(ctx, code.MobileNumber, 2)
	require.NoError(t, err)
	assert.False(t, reserved)

	got, err := repo.GetOTP(ctx, code.MobileNumber)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)

	reserved, err = repo.ReserveOTPAttempt(ctx, "+989000000000", 5)
	require.NoError(t, err)
	assert.False(t, reserved)

	// Re-issuing resets the attempt counter
	code.CodeHash = "h2"
	require.NoError(t, repo.UpsertOTP(ctx, code))
	got, err = repo.GetOTP(ctx, code.MobileNumber)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Attempts)
	assert.Equal(t, "h2", got.CodeHash)

	require.NoError(t, repo.DeleteOTP(ctx, code.MobileNumber))
	got, err = repo.GetOTP(ctx, code.MobileNumber)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRefreshTokens(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	parent := &models.Parent{MobileNumber: "+989120000000", NationalID: "0012345678", FirstName: "a", LastName: "b"}
	require.NoError(t, repo.CreateParent(ctx, parent))

	first := &models.RefreshToken{TokenHash: "a", ParentID: parent.ID, ExpiresAt: now + 1000, CreatedAt: now}
	require.NoError(t, repo.CreateRefreshToken(ctx, first))

	second := &models.RefreshToken{TokenHash: "b", ParentID: parent.ID, ExpiresAt: now + 1000, CreatedAt: now}
	rotated, err := repo.RotateRefreshToken(ctx, "a", second)
	require.NoError(t, err)
	assert.True(t, rotated)

	// Replaying the old token does nothing
	rotated, err = repo.RotateRefreshToken(ctx, "a", &models.RefreshToken{TokenHash: "c", ParentID: parent.ID, ExpiresAt: now, CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, rotated)

	got, err := repo.GetRefreshToken(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetRefreshToken(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, parent.ID, got.ParentID)

	require.NoError(t, repo.DeleteRefreshTokens(ctx, parent.ID))
	got, err = repo.GetRefreshToken(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, got)
}
