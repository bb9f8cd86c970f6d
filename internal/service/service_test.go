package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/otp"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/store"
	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

const (
	testMobile = "09121234567"
	testOTP    = "111111"
)

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*service.DefaultService, config.AuthConfig) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "service.db")
	cfg.Auth.JWTSecret = "test-secret-key"

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)
	clock := func() time.Time { return fixedNow }
	st := store.New(repo, store.NewSeeder(nil, clock), utils.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	hub := updates.NewHub(utils.NopLogger())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	releases := updates.NewReleases("1.0.0", time.Hour, hub)
	verifier := otp.NewLocalVerifier(testOTP, 0, utils.NopLogger())

	svc := service.NewDefaultService(repo, st, verifier, releases, cfg.Auth, utils.NopLogger()).
		WithClock(clock)
	return svc, cfg.Auth
}

func register(t *testing.T, svc service.Service) *models.AuthResponse {
	t.Helper()
	resp, err := svc.RegisterParent(context.Background(), models.RegisterParentRequest{
		NationalID:   "0012345678",
		MobileNumber: testMobile,
		OTP:          testOTP,
		FirstName:    "Sara",
		LastName:     "Ahmadi",
	})
	require.NoError(t, err)
	return resp
}

func loginRequest(mobile, code string) models.LoginRequest {
	return models.LoginRequest{
		LoginType:      models.LoginTypeMobileOTP,
		OTPCredentials: &models.OTPCredentials{MobileNumber: mobile, OTP: code},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, auth := newService(t)
	ctx := context.Background()

	// Unknown mobile with a valid code must register first
	_, err := svc.Login(ctx, loginRequest(testMobile, testOTP))
	assert.ErrorIs(t, err, service.ErrRegistrationRequired)

	registered := register(t, svc)
	require.NotNil(t, registered.Data)
	assert.Equal(t, "+989121234567", registered.User.MobileNumber)
	assert.Equal(t, "Bearer", registered.Data.TokenType)
	assert.Equal(t, int(time.Hour/time.Second), registered.Data.ExpiresIn)
	assert.Equal(t, fixedNow.Format(time.RFC3339), registered.Data.IssuedAt)

	// Registering the same number again conflicts
	_, err = svc.RegisterParent(ctx, models.RegisterParentRequest{
		NationalID:   "0012345678",
		MobileNumber: "+98 912 123 4567",
		OTP:          testOTP,
		FirstName:    "Sara",
		LastName:     "Ahmadi",
	})
	assert.ErrorIs(t, err, service.ErrAlreadyRegistered)

	loggedIn, err := svc.Login(ctx, loginRequest("989121234567", testOTP))
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, loginRequest(testMobile, "123456"))
	assert.ErrorIs(t, err, service.ErrInvalidOTP)

	_, err = svc.Login(ctx, models.LoginRequest{LoginType: models.LoginTypeQR})
	assert.ErrorIs(t, err, service.ErrUnsupportedLoginType)

	_, err = svc.Login(ctx, loginRequest("12", testOTP))
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.NotEmpty(t, auth.JWTSecret)
}

func TestParseAccessToken(t *testing.T) {
	svc, auth := newService(t)
	svc.WithClock(time.Now)

	resp := register(t, svc)
	subject, err := service.ParseAccessToken(resp.Data.AccessToken, []byte(auth.JWTSecret))
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, subject)

	_, err = service.ParseAccessToken(resp.Data.AccessToken, []byte("other-secret"))
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = service.ParseAccessToken("not-a-token", []byte(auth.JWTSecret))
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first := register(t, svc)

	second, err := svc.Refresh(ctx, models.RefreshRequest{RefreshToken: first.Data.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.Data.RefreshToken, second.Data.RefreshToken)
	assert.Equal(t, first.User.ID, second.User.ID)

	// A refresh token works once
	_, err = svc.Refresh(ctx, models.RefreshRequest{RefreshToken: first.Data.RefreshToken})
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, first.User.ID))
	_, err = svc.Refresh(ctx, models.RefreshRequest{RefreshToken: second.Data.RefreshToken})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	parent := register(t, svc).User

	updated, err := svc.UpdateProfile(ctx, parent.ID, models.UpdateProfileRequest{FirstName: "  Maryam "})
	require.NoError(t, err)
	assert.Equal(t, "Maryam", updated.FirstName)
	assert.Equal(t, "Ahmadi", updated.LastName)

	got, err := svc.GetProfile(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maryam", got.FirstName)

	_, err = svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestChildLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	parentID := register(t, svc).User.ID

	child, err := svc.CreateChild(ctx, parentID, models.CreateChildRequest{
		FirstName:  "Ali",
		LastName:   "Ahmadi",
		NationalID: "0098765432",
		Password:   "secret",
		BirthDate:  "1395/05/10",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, child.Age)
	assert.NotEmpty(t, child.StatusText)

	children, err := svc.ListChildren(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, children, 1)

	detail, err := svc.GetChildDetail(ctx, parentID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, detail.Child.ID)
	assert.Equal(t, child.ID, detail.Allowance.ChildID)
	assert.NotNil(t, detail.Tasks)
	assert.Equal(t, models.TaskStats{Active: 1, Completed: 2, Pending: 2}, detail.TaskStats)

	allowance, err := svc.ToggleAllowance(ctx, parentID, child.ID)
	require.NoError(t, err)
	assert.False(t, allowance.IsActive)

	// Routes under an unknown child id do not seed anything
	_, err = svc.GetChildWallet(ctx, parentID, "404")
	assert.ErrorIs(t, err, store.ErrNotFound)
	keys, err := svc.ListKeys(ctx, parentID)
	require.NoError(t, err)
	assert.NotContains(t, keys, store.WalletKey("404"))

	_, err = svc.CreateChild(ctx, parentID, models.CreateChildRequest{
		FirstName: "Bad", LastName: "Date", NationalID: "0098765432", Password: "secret", BirthDate: "1395/13/01",
	})
	assert.ErrorIs(t, err, store.ErrValidation)

	require.NoError(t, svc.DeleteChild(ctx, parentID, child.ID))
	_, err = svc.GetAllowance(ctx, parentID, child.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransferThroughService(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	parentID := register(t, svc).User.ID

	child, err := svc.CreateChild(ctx, parentID, models.CreateChildRequest{
		FirstName: "Ali", LastName: "Ahmadi", NationalID: "0098765432", Password: "secret", BirthDate: "1390/01/01",
	})
	require.NoError(t, err)

	before, err := svc.GetChildWallet(ctx, parentID, child.ID)
	require.NoError(t, err)

	resp, err := svc.Transfer(ctx, parentID, models.TransferRequest{
		Kind: models.TransferDigit, ChildID: child.ID, Amount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(995), resp.ParentWallet.Digits)
	assert.Equal(t, before.Digits+5, resp.ChildWallet.Digits)
	assert.Equal(t, int64(50000), resp.Activity.Amount)

	_, err = svc.Transfer(ctx, parentID, models.TransferRequest{
		Kind: models.TransferMoney, ChildID: child.ID, Amount: 1 << 40,
	})
	assert.ErrorIs(t, err, store.ErrInsufficientBalance)
}

func TestApplyUpdate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	v := svc.GetVersion(ctx, "parent-1", "0.9.0")
	assert.True(t, v.NeedRefresh)
	assert.Equal(t, 3600, v.PollInterval)

	published := svc.PublishRelease(ctx, models.PublishReleaseRequest{Version: "1.1.0"})
	assert.Equal(t, "1.1.0", published.Version)

	_, err := svc.ApplyUpdate(ctx, "parent-1", models.ApplyUpdateRequest{Version: "1.0.0"})
	assert.ErrorIs(t, err, updates.ErrUnknownVersion)

	applied, err := svc.ApplyUpdate(ctx, "parent-1", models.ApplyUpdateRequest{Version: "1.1.0"})
	require.NoError(t, err)
	assert.False(t, applied.NeedRefresh)
}
