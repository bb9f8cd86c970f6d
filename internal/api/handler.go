package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

// Handler serves the HTTP API on top of the service
type Handler struct {
	service    service.Service
	hub        *updates.Hub
	adminToken string
	logger     *utils.Logger
}

// NewHandler creates a new API handler. adminToken guards operator routes.
func NewHandler(svc service.Service, hub *updates.Hub, adminToken string, logger *utils.Logger) *Handler {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Handler{
		service:    svc,
		hub:        hub,
		adminToken: adminToken,
		logger:     logger,
	}
}

// SetupRoutes registers every route on router. JWTSecretMiddleware must
// already be installed.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/otp/request", h.RequestOTP)
		auth.POST("/register/parent", h.RegisterParent)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", AuthMiddleware(), h.Logout)
	}

	// Installable app
	app := api.Group("/app")
	{
		app.GET("/version", OptionalAuthMiddleware(), h.GetVersion)
		app.POST("/releases", AdminMiddleware(h.adminToken), h.PublishRelease)

		authed := app.Group("", AuthMiddleware())
		authed.POST("/offline-ready", h.OfflineReady)
		authed.POST("/apply", h.ApplyUpdate)
		authed.GET("/updates/ws", h.UpdatesStream)
	}

	// Protected routes
	protected := api.Group("", AuthMiddleware())
	{
		protected.GET("/profile", h.GetProfile)
		protected.PUT("/profile", h.UpdateProfile)

		children := protected.Group("/children")
		children.GET("", h.ListChildren)
		children.POST("", h.CreateChild)

		child := children.Group("/:childId")
		child.GET("", h.GetChild)
		child.PUT("", h.UpdateChild)
		child.DELETE("", h.DeleteChild)
		child.GET("/stats", h.GetChildStats)
		child.GET("/wallet", h.GetChildWallet)
		child.GET("/wallet/feed", h.GetWalletFeed)
		child.GET("/goals", h.GetGoals)
		child.POST("/goals", h.CreateGoal)
		child.GET("/allowance", h.GetAllowance)
		child.PUT("/allowance", h.UpdateAllowance)
		child.POST("/allowance/toggle", h.ToggleAllowance)
		child.GET("/tasks", h.ListTasks)
		child.POST("/tasks", h.CreateTask)
		child.DELETE("/tasks/:taskId", h.DeleteTask)
		child.GET("/activities", h.ListActivities)
		child.GET("/requests", h.ListRequests)

		wallet := protected.Group("/wallet")
		wallet.GET("", h.GetParentWallet)
		wallet.GET("/summary", h.GetWalletSummary)
		wallet.POST("/deposit", h.Deposit)
		wallet.POST("/charge", h.Charge)
		wallet.POST("/transfer", h.Transfer)

		protected.GET("/messages", h.GetMessages)

		storage := protected.Group("/storage")
		storage.GET("", h.ListKeys)
		storage.GET("/:key", h.GetDocument)
		storage.PUT("/:key", h.PutDocument)
		storage.DELETE("/:key", h.DeleteDocument)
	}
}

// Auth handlers
func (h *Handler) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.RequestOTP(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) RegisterParent(c *gin.Context) {
	var req models.RegisterParentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.RegisterParent(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), c.GetString(ctxUserID)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{Message: "خروج انجام شد"})
}

func (h *Handler) GetProfile(c *gin.Context) {
	parent, err := h.service.GetProfile(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parent)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	parent, err := h.service.UpdateProfile(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parent)
}

// App update handlers
func (h *Handler) GetVersion(c *gin.Context) {
	resp := h.service.GetVersion(c.Request.Context(), c.GetString(ctxUserID), c.Query("current"))
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) PublishRelease(c *gin.Context) {
	var req models.PublishReleaseRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.service.PublishRelease(c.Request.Context(), req))
}

func (h *Handler) OfflineReady(c *gin.Context) {
	h.service.OfflineReady(c.Request.Context(), c.GetString(ctxUserID))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ApplyUpdate(c *gin.Context) {
	var req models.ApplyUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.ApplyUpdate(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdatesStream upgrades to a websocket carrying the caller's update events
func (h *Handler) UpdatesStream(c *gin.Context) {
	if err := updates.ServeWs(h.hub, c.Writer, c.Request, c.GetString(ctxUserID)); err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "err", err)
	}
}
