package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/api"
	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/otp"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/store"
	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

// TestOTP is the code the local verifier accepts in tests
const TestOTP = "111111"

// TestMobile is the registered test parent's number
const TestMobile = "+989120000000"

// TestAdminToken is the operator token of the test router
const TestAdminToken = "test-admin-token"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  repository.Repository
	Service     service.Service
	Hub         *updates.Hub
	JWTSecret   []byte
	DB          *sqlx.DB
	TestUserID  string
	TestUserJWT string

	cancel context.CancelFunc
}

// SetupTestContext wires the full stack on a temporary SQLite database
func SetupTestContext(t *testing.T) *TestContext {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "digiplay_test.db")
	cfg.Auth.JWTSecret = "test-secret-key"
	cfg.Auth.AdminToken = TestAdminToken
	cfg.OTP.LocalCode = TestOTP
	cfg.OTP.LocalDelay = 0

	// Set up database
	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")

	repo := repository.NewSQLRepository(db)
	st := store.New(repo, store.NewSeeder(nil, nil), utils.NopLogger())

	verifier, err := otp.New(cfg.OTP, repo, nil, utils.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := updates.NewHub(utils.NopLogger())
	go hub.Run(ctx)
	releases := updates.NewReleases(cfg.Updates.CurrentVersion, cfg.Updates.PollInterval, hub)

	svc := service.NewDefaultService(repo, st, verifier, releases, cfg.Auth, utils.NopLogger())
	handler := api.NewHandler(svc, hub, TestAdminToken, utils.NopLogger())

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.RequestIDMiddleware(), api.JWTSecretMiddleware(cfg.Auth.JWTSecret))
	handler.SetupRoutes(router)

	testUserID, token := createTestUser(t, repo, cfg.Auth.JWTSecret)

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		Hub:         hub,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		DB:          db,
		TestUserID:  testUserID,
		TestUserJWT: token,
		cancel:      cancel,
	}
}

// CleanupTestContext stops the hub and closes the database
func CleanupTestContext(t *TestContext) {
	if t.cancel != nil {
		t.cancel()
	}
	if t.DB != nil {
		t.DB.Close()
	}
}

// Helper functions
func createTestUser(t *testing.T, repo repository.Repository, jwtSecret string) (string, string) {
	now := time.Now().UTC().UnixMilli()
	parent := &models.Parent{
		ID:           uuid.New().String(),
		MobileNumber: TestMobile,
		NationalID:   "0012345678",
		FirstName:    "Test",
		LastName:     "Parent",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := repo.CreateParent(context.Background(), parent)
	require.NoError(t, err, "Failed to create test parent")

	return parent.ID, SignToken(t, parent.ID, jwtSecret, 24*time.Hour)
}

// SignToken creates an access token for parentID that expires after ttl
func SignToken(t *testing.T, parentID, jwtSecret string, ttl time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": parentID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")
	return tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case json.RawMessage:
		reqBody = bytes.NewBuffer(b)
	default:
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// AdminHeaders returns headers for an operator request
func AdminHeaders() map[string]string {
	return map[string]string{
		"X-Admin-Token": TestAdminToken,
	}
}

// DecodeJSON unmarshals the recorded body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
