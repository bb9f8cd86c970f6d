package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/api"
	"github.com/digiplay/digiplay-server/internal/api/testutils"
	"github.com/digiplay/digiplay-server/internal/utils"
)

func TestLoggerAndMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(
		api.RequestIDMiddleware(),
		api.LoggerMiddleware(utils.NewLoggerWithWriter(&buf, "http")),
		api.MetricsMiddleware(),
	)
	router.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := testutils.PerformRequest(router, http.MethodGet, "/ping/7", nil, map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/ping/7", line["path"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "http", line["component"])

	// Metrics are labelled by route template
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `digiplay_http_requests_total{method="GET",route="/ping/:id",status="200"}`)
}

func TestAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(token string) *gin.Engine {
		router := gin.New()
		router.POST("/ops", api.AdminMiddleware(token), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return router
	}

	// Test case 1: Matching token
	w := testutils.PerformRequest(newRouter("s3cret"), http.MethodPost, "/ops", nil, map[string]string{"X-Admin-Token": "s3cret"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Test case 2: Wrong or missing token
	w = testutils.PerformRequest(newRouter("s3cret"), http.MethodPost, "/ops", nil, map[string]string{"X-Admin-Token": "s3cre"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = testutils.PerformRequest(newRouter("s3cret"), http.MethodPost, "/ops", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Test case 3: No token configured refuses everyone
	w = testutils.PerformRequest(newRouter(""), http.MethodPost, "/ops", nil, map[string]string{"X-Admin-Token": ""})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
