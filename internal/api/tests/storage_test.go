package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/digiplay/digiplay-server/internal/api/testutils"
	"github.com/digiplay/digiplay-server/internal/models"
)

func TestStorage(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Test case 1: Missing key
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/storage/childWallet_42", nil, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 2: Put and get round trip
	value := json.RawMessage(`{"balance":1500000,"digits":12}`)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/childWallet_42", value, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/storage/childWallet_42", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(value), w.Body.String())

	// Test case 3: Invalid JSON and invalid keys
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/childWallet_42",
		json.RawMessage(`{"balance":`), headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/9lives", value, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 4: Keys are per parent
	other := testutils.SignToken(t, "another-parent", string(testCtx.JWTSecret), time.Hour)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/storage/childWallet_42", nil,
		testutils.AuthHeaders(other))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Test case 5: Delete
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/storage/childWallet_42", nil, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/storage", nil, headers)
	assert.JSONEq(t, `{"keys":[]}`, w.Body.String())
}

func TestStorageCorruptDocument(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Valid JSON of the wrong shape for the parent wallet
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/parentWallet",
		json.RawMessage(`"not a wallet"`), headers)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/wallet", nil, headers)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var errResp models.ErrorResponse
	testutils.DecodeJSON(t, w, &errResp)
	assert.Equal(t, "INTERNAL_ERROR", errResp.Code)
}

func TestStorageAcceptsClientDocuments(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Test case 1: A children list as the web client saves it
	children := json.RawMessage(`[{"id":"1759990000123","firstName":"Sara","lastName":"Ahmadi","nationalId":"0012345678",
		"birthDate":"1395/05/10","avatar":"","isOnline":false,"lastOnlineTime":1759990000123.4567}]`)
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/childrenList", children, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/children", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	var views []models.ChildView
	testutils.DecodeJSON(t, w, &views)
	if assert.Len(t, views, 1) {
		assert.Equal(t, "Sara", views[0].FirstName)
		if assert.NotNil(t, views[0].LastOnlineTime) {
			assert.Equal(t, int64(1759990000123), *views[0].LastOnlineTime)
		}
	}

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/children/1759990000123", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 2: Old activities gain points when uploaded
	activities := json.RawMessage(`[{"id":"1","title":"t","status":"completed","date":5}]`)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/storage/childActivities_1759990000123", activities, headers)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/children/1759990000123/activities", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	var rows []models.Activity
	testutils.DecodeJSON(t, w, &rows)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, int64(0), rows[0].Points)
	}

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/storage/childActivities_1759990000123", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"points":0`)
}
