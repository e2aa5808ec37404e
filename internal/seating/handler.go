package seating

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var neErr *TableNotEmptyError

	switch {
	case errors.As(err, &neErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":  neErr.Error(),
			"guests": neErr.Guests,
		})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrGuestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

func eventIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("eventID"), 10, 32)
	return uint(id)
}

func tableIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("tableID"), 10, 32)
	return uint(id)
}

// POST /events/:eventID/tables
func (h *Handler) CreateTable(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.CreateTable(c.Request.Context(), eventIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GET /events/:eventID/tables
func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.svc.ListTables(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

// PUT /events/:eventID/tables/:tableID
func (h *Handler) UpdateTable(c *gin.Context) {
	var req UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.svc.UpdateTable(c.Request.Context(), eventIDParam(c), tableIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DELETE /events/:eventID/tables/:tableID
func (h *Handler) DeleteTable(c *gin.Context) {
	err := h.svc.DeleteTable(c.Request.Context(), eventIDParam(c), tableIDParam(c), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "table deleted"})
}

// POST /events/:eventID/seating/assign
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tableID uint
	if req.TableID != nil {
		tableID = *req.TableID
	}

	tables, err := h.svc.Assign(c.Request.Context(), eventIDParam(c), req.GuestID, tableID, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}
