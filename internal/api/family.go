package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digiplay/digiplay-server/internal/models"
)

// Children handlers
func (h *Handler) ListChildren(c *gin.Context) {
	children, err := h.service.ListChildren(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, children)
}

func (h *Handler) CreateChild(c *gin.Context) {
	var req models.CreateChildRequest
	if !bindJSON(c, &req) {
		return
	}

	child, err := h.service.CreateChild(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, child)
}

func (h *Handler) GetChild(c *gin.Context) {
	detail, err := h.service.GetChildDetail(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateChild(c *gin.Context) {
	var req models.UpdateChildRequest
	if !bindJSON(c, &req) {
		return
	}

	child, err := h.service.UpdateChild(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, child)
}

func (h *Handler) DeleteChild(c *gin.Context) {
	if err := h.service.DeleteChild(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetChildStats(c *gin.Context) {
	stats, err := h.service.GetChildStats(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Child wallet handlers
func (h *Handler) GetChildWallet(c *gin.Context) {
	wallet, err := h.service.GetChildWallet(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) GetWalletFeed(c *gin.Context) {
	feed, err := h.service.GetWalletFeed(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) GetGoals(c *gin.Context) {
	goals, err := h.service.GetGoals(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *Handler) CreateGoal(c *gin.Context) {
	var req models.CreateGoalRequest
	if !bindJSON(c, &req) {
		return
	}

	goal, err := h.service.CreateGoal(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *Handler) GetAllowance(c *gin.Context) {
	allowance, err := h.service.GetAllowance(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allowance)
}

func (h *Handler) ToggleAllowance(c *gin.Context) {
	allowance, err := h.service.ToggleAllowance(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allowance)
}

func (h *Handler) UpdateAllowance(c *gin.Context) {
	var req models.UpdateAllowanceRequest
	if !bindJSON(c, &req) {
		return
	}

	allowance, err := h.service.UpdateAllowance(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allowance)
}

// Task handlers
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.service.ListTasks(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	err := h.service.DeleteTask(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), c.Param("taskId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListActivities(c *gin.Context) {
	activities, err := h.service.ListActivities(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// ListRequests returns every request, or only pending ones with ?status=pending
func (h *Handler) ListRequests(c *gin.Context) {
	pendingOnly := c.Query("status") == models.RequestPending
	requests, err := h.service.ListRequests(c.Request.Context(), c.GetString(ctxUserID), c.Param("childId"), pendingOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// Parent wallet handlers
func (h *Handler) GetParentWallet(c *gin.Context) {
	wallet, err := h.service.GetParentWallet(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) GetWalletSummary(c *gin.Context) {
	summary, err := h.service.GetWalletSummary(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetMessages returns the parent's feed, filtered by ?q= when given
func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.service.GetMessages(c.Request.Context(), c.GetString(ctxUserID), c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) Deposit(c *gin.Context) {
	var req models.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	wallet, err := h.service.Deposit(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) Charge(c *gin.Context) {
	var req models.ChargeRequest
	if !bindJSON(c, &req) {
		return
	}

	wallet, err := h.service.Charge(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *Handler) Transfer(c *gin.Context) {
	var req models.TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Transfer(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Raw document handlers
func (h *Handler) ListKeys(c *gin.Context) {
	keys, err := h.service.ListKeys(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (h *Handler) GetDocument(c *gin.Context) {
	raw, err := h.service.GetDocument(c.Request.Context(), c.GetString(ctxUserID), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// PutDocument stores the request body verbatim under the key
func (h *Handler) PutDocument(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	err = h.service.PutDocument(c.Request.Context(), c.GetString(ctxUserID), c.Param("key"), json.RawMessage(body))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.service.DeleteDocument(c.Request.Context(), c.GetString(ctxUserID), c.Param("key")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
